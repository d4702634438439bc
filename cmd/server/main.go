package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicenote/internal/api"
	"voicenote/internal/auth"
	"voicenote/internal/config"
	"voicenote/internal/db"
	"voicenote/internal/elevenlabs"
	"voicenote/internal/notes"
	"voicenote/internal/quota"
	"voicenote/internal/textgen"
	"voicenote/internal/voice"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	accounts := db.NewAccountRepository(database)
	codes := db.NewActivationCodeRepository(database)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
	ledger := quota.NewLedger(accounts)

	elevenClient := elevenlabs.NewClient(cfg.ElevenLabs.BaseURL, cfg.ElevenLabs.APIKey)
	resolver := voice.NewResolver(elevenClient, accounts)

	var strategies []textgen.Strategy
	if cfg.Gemini.APIKey != "" {
		sdkStrategy, err := textgen.NewSDKStrategy(cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			slog.Warn("gemini sdk client unavailable, relying on the rest strategy", "error", err)
		} else {
			strategies = append(strategies, sdkStrategy)
		}
		strategies = append(strategies,
			textgen.NewRESTStrategy(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model),
		)
	} else {
		slog.Warn("no gemini api key configured, notes will use fallback text")
	}
	generator := textgen.NewGenerator(strategies...)

	orchestrator := notes.NewOrchestrator(ledger, generator, resolver, elevenClient, cfg.ElevenLabs.ModelID)

	server := api.NewServer(database, accounts, codes, tokens, ledger, resolver, elevenClient, orchestrator)

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

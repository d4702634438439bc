package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"voicenote/internal/auth"
	"voicenote/internal/db"
	"voicenote/internal/quota"
	"voicenote/internal/voice"
)

type Server struct {
	router *chi.Mux
}

func NewServer(
	database *db.DB,
	accounts *db.AccountRepository,
	codes *db.ActivationCodeRepository,
	tokens *auth.TokenService,
	ledger *quota.Ledger,
	resolver *voice.Resolver,
	verifier KeyVerifier,
	orchestrator NoteGenerator,
) *Server {
	authHandler := NewAuthHandler(accounts, codes, tokens)
	userHandler := NewUserHandler(accounts, ledger)
	voiceHandler := NewVoiceHandler(resolver)
	generateHandler := NewGenerateHandler(orchestrator)
	healthHandler := NewHealthHandler(database, verifier)

	authMiddleware := NewAuthMiddleware(tokens, accounts)

	r := chi.NewRouter()
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)
	r.Get("/verify-api", healthHandler.VerifyAPI)

	// Unauthenticated, credential-bearing endpoints are rate limited per IP.
	r.Group(func(r chi.Router) {
		r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Post("/verify-activation-code", authHandler.VerifyActivationCode)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Group(func(r chi.Router) {
			r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", userHandler.Me)
			r.Post("/update-settings", userHandler.UpdateSettings)
			r.Get("/character-usage", userHandler.CharacterUsage)
			r.Delete("/delete-voice-clone", voiceHandler.DeleteClone)
			r.Post("/generate-audio-cloned", generateHandler.GenerateAudio)
		})

		r.Group(func(r chi.Router) {
			r.Use(maxBodySizeMiddleware(maxCloneUploadBytes))
			r.Post("/generate-voice-clone", voiceHandler.CreateClone)
		})
	})

	return &Server{router: r}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"voicenote/internal/elevenlabs"
	"voicenote/internal/models"
	"voicenote/internal/notes"
	"voicenote/internal/quota"
	"voicenote/internal/voice"
)

// NoteGenerator runs the generation pipeline for one request.
type NoteGenerator interface {
	Generate(ctx context.Context, account *models.Account, req notes.Request) (*notes.Result, error)
}

type GenerateHandler struct {
	orchestrator NoteGenerator
}

func NewGenerateHandler(orchestrator NoteGenerator) *GenerateHandler {
	return &GenerateHandler{orchestrator: orchestrator}
}

type GenerateAudioRequest struct {
	Topic           string   `json:"topic" validate:"required"`
	Value           string   `json:"value" validate:"required"`
	Stability       *float64 `json:"stability" validate:"omitempty,gte=0,lte=1"`
	SimilarityBoost *float64 `json:"similarity_boost" validate:"omitempty,gte=0,lte=1"`
}

// GenerateAudio accepts either a JSON body or form data, runs the note
// pipeline and streams the synthesized audio back.
func (h *GenerateHandler) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	account := CurrentAccount(r)

	req, err := parseGenerateRequest(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	result, genErr := h.orchestrator.Generate(r.Context(), account, notes.Request{
		Topic:           req.Topic,
		Value:           req.Value,
		Stability:       req.Stability,
		SimilarityBoost: req.SimilarityBoost,
	})
	if genErr != nil {
		switch {
		case errors.Is(genErr, quota.ErrLimitExceeded):
			quotaExceeded(w, fmt.Sprintf(
				"Monthly character limit reached (%d/%d). Resets on the first of next month.",
				account.CharCount, quota.MonthlyLimit))
		case errors.Is(genErr, voice.ErrNoVoiceAvailable):
			slog.Error("no voice available for synthesis", "account_id", account.ID)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal,
				"No voice clone found and default voice unavailable")
		default:
			var upstream *elevenlabs.UpstreamError
			if errors.As(genErr, &upstream) {
				slog.Warn("synthesis failed upstream",
					"account_id", account.ID, "status", upstream.StatusCode)
				upstreamErrorResponse(w, upstream)
				return
			}
			slog.Error("error generating audio", "error", genErr, "account_id", account.ID)
			internalError(w)
		}
		return
	}
	defer result.Audio.Close()

	contentType := result.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, result.Audio); err != nil {
		slog.Warn("error streaming audio", "error", err, "account_id", account.ID)
	}
}

func parseGenerateRequest(r *http.Request) (*GenerateAudioRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req GenerateAudioRequest
		if err := decodeAndValidate(r.Body, &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body")
	}

	req := GenerateAudioRequest{
		Topic: r.PostFormValue("topic"),
		Value: r.PostFormValue("value"),
	}
	var err error
	if req.Stability, err = parseFormFloat(r, "stability"); err != nil {
		return nil, err
	}
	if req.SimilarityBoost, err = parseFormFloat(r, "similarity_boost"); err != nil {
		return nil, err
	}

	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func parseFormFloat(r *http.Request, field string) (*float64, error) {
	raw := r.PostFormValue(field)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid number", field)
	}
	return &value, nil
}

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"voicenote/internal/elevenlabs"
	"voicenote/internal/voice"
)

// maxCloneUploadBytes bounds the voice sample upload.
const maxCloneUploadBytes = 25 << 20

type VoiceHandler struct {
	resolver *voice.Resolver
}

func NewVoiceHandler(resolver *voice.Resolver) *VoiceHandler {
	return &VoiceHandler{resolver: resolver}
}

type VoiceCloneResponse struct {
	VoiceCloneID string `json:"voice_clone_id"`
	Message      string `json:"message"`
}

func (h *VoiceHandler) CreateClone(w http.ResponseWriter, r *http.Request) {
	account := CurrentAccount(r)

	if err := r.ParseMultipartForm(maxCloneUploadBytes); err != nil {
		badRequest(w, "Invalid multipart form")
		return
	}
	overwrite := parseBoolFlag(r.FormValue("overwrite"))

	if existing := account.GetVoiceCloneID(); existing != "" && !overwrite {
		writeJSON(w, http.StatusOK, VoiceCloneResponse{
			VoiceCloneID: existing,
			Message:      "Existing voice clone returned",
		})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		badRequest(w, "Missing 'audio' file")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		badRequest(w, "No selected file")
		return
	}

	voiceID, err := h.resolver.CreateOrReplace(r.Context(), account, header.Filename, file, overwrite)
	if err != nil {
		var upstream *elevenlabs.UpstreamError
		if errors.As(err, &upstream) {
			slog.Warn("voice cloning rejected upstream",
				"account_id", account.ID, "status", upstream.StatusCode)
			upstreamErrorResponse(w, upstream)
			return
		}
		slog.Error("error creating voice clone", "error", err, "account_id", account.ID)
		internalError(w)
		return
	}

	slog.Info("voice clone created", "account_id", account.ID, "voice_id", voiceID)
	writeJSON(w, http.StatusOK, VoiceCloneResponse{
		VoiceCloneID: voiceID,
		Message:      "Voice clone created successfully",
	})
}

func (h *VoiceHandler) DeleteClone(w http.ResponseWriter, r *http.Request) {
	account := CurrentAccount(r)

	if err := h.resolver.Delete(r.Context(), account); err != nil {
		if errors.Is(err, voice.ErrNoClone) {
			notFound(w, "No voice clone to delete")
			return
		}
		var upstream *elevenlabs.UpstreamError
		if errors.As(err, &upstream) {
			upstreamErrorResponse(w, upstream)
			return
		}
		slog.Error("error deleting voice clone", "error", err, "account_id", account.ID)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Voice clone deleted"})
}

func parseBoolFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return true
	default:
		return false
	}
}

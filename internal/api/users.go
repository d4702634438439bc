package api

import (
	"log/slog"
	"net/http"

	"voicenote/internal/db"
	"voicenote/internal/models"
	"voicenote/internal/quota"
	"voicenote/internal/voice"
)

type UserHandler struct {
	accounts *db.AccountRepository
	ledger   *quota.Ledger
}

func NewUserHandler(accounts *db.AccountRepository, ledger *quota.Ledger) *UserHandler {
	return &UserHandler{accounts: accounts, ledger: ledger}
}

type ProfileResponse struct {
	ID           string          `json:"user_id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	Settings     models.Settings `json:"settings"`
	VoiceCloneID *string         `json:"voice_clone_id"`
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := CurrentAccount(r)

	writeJSON(w, http.StatusOK, ProfileResponse{
		ID:           account.ID,
		Username:     account.Username,
		Email:        account.Email,
		Settings:     account.Settings,
		VoiceCloneID: account.VoiceCloneID,
	})
}

type UpdateSettingsRequest struct {
	Language           *string  `json:"language"`
	VoiceSimilarity    *float64 `json:"voice_similarity" validate:"omitempty,gte=0,lte=1"`
	Stability          *float64 `json:"stability" validate:"omitempty,gte=0,lte=1"`
	AddBackgroundSound *bool    `json:"add_background_sound"`
	BackgroundVolume   *float64 `json:"background_volume" validate:"omitempty,gte=0,lte=1"`
}

type UpdateSettingsResponse struct {
	Message  string          `json:"message"`
	Settings models.Settings `json:"settings"`
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	account := CurrentAccount(r)

	var req UpdateSettingsRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if req.Language == nil && req.VoiceSimilarity == nil && req.Stability == nil &&
		req.AddBackgroundSound == nil && req.BackgroundVolume == nil {
		writeJSON(w, http.StatusOK, UpdateSettingsResponse{
			Message:  "No settings provided to update",
			Settings: account.Settings,
		})
		return
	}

	settings := account.Settings
	if req.Language != nil {
		if !voice.SupportedLanguage(*req.Language) {
			badRequest(w, "Invalid language value")
			return
		}
		settings.Language = *req.Language
	}
	if req.VoiceSimilarity != nil {
		settings.VoiceSimilarity = *req.VoiceSimilarity
	}
	if req.Stability != nil {
		settings.Stability = *req.Stability
	}
	if req.AddBackgroundSound != nil {
		settings.AddBackgroundSound = *req.AddBackgroundSound
	}
	if req.BackgroundVolume != nil {
		settings.BackgroundVolume = *req.BackgroundVolume
	}

	if err := h.accounts.UpdateSettings(r.Context(), account.ID, settings); err != nil {
		slog.Error("error updating settings", "error", err, "account_id", account.ID)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, UpdateSettingsResponse{
		Message:  "Settings updated successfully",
		Settings: settings,
	})
}

func (h *UserHandler) CharacterUsage(w http.ResponseWriter, r *http.Request) {
	account := CurrentAccount(r)

	snapshot, err := h.ledger.Snapshot(r.Context(), account)
	if err != nil {
		slog.Error("error building usage snapshot", "error", err, "account_id", account.ID)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

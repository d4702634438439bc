package api

import (
	"context"
	"net/http"

	"voicenote/internal/db"
)

// KeyVerifier checks that the speech-synthesis API key is accepted upstream.
type KeyVerifier interface {
	VerifyKey(ctx context.Context) error
}

type HealthHandler struct {
	database *db.DB
	verifier KeyVerifier
}

func NewHealthHandler(database *db.DB, verifier KeyVerifier) *HealthHandler {
	return &HealthHandler{database: database, verifier: verifier}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK

	if err := h.database.Ping(); err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	}

	result := "ok"
	if status != http.StatusOK {
		result = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status": result,
		"checks": map[string]string{
			"database": dbStatus,
		},
	})
}

func (h *HealthHandler) VerifyAPI(w http.ResponseWriter, r *http.Request) {
	if err := h.verifier.VerifyKey(r.Context()); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"status":  "error",
			"message": "API key is invalid",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "API key is valid",
	})
}

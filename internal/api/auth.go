package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"voicenote/internal/auth"
	"voicenote/internal/db"
)

type AuthHandler struct {
	accounts *db.AccountRepository
	codes    *db.ActivationCodeRepository
	tokens   *auth.TokenService
}

func NewAuthHandler(accounts *db.AccountRepository, codes *db.ActivationCodeRepository, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{accounts: accounts, codes: codes, tokens: tokens}
}

type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=30"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	ActivationCode string `json:"activation_code" validate:"required"`
}

type RegisterResponse struct {
	ID       string `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	code, err := h.codes.FindByCode(r.Context(), strings.TrimSpace(req.ActivationCode))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			badRequest(w, "Invalid activation code")
			return
		}
		slog.Error("error looking up activation code", "error", err)
		internalError(w)
		return
	}
	if code.Used {
		conflict(w, "Activation code already used")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		internalError(w)
		return
	}

	account, err := h.accounts.Create(r.Context(), req.Username, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			conflict(w, "Username or email already exists")
			return
		}
		slog.Error("error creating account", "error", err)
		internalError(w)
		return
	}

	consumed, err := h.codes.ConsumeForRegistration(r.Context(), code.ID, account.ID)
	if err != nil {
		slog.Error("error consuming activation code", "error", err, "code_id", code.ID)
		internalError(w)
		return
	}
	if !consumed {
		// A concurrent registration grabbed the code between the check
		// and the consume.
		conflict(w, "Activation code already used")
		return
	}

	slog.Info("account registered", "account_id", account.ID, "username", account.Username)
	writeJSON(w, http.StatusCreated, RegisterResponse{
		ID:       account.ID,
		Username: account.Username,
		Message:  "Registration successful",
	})
}

type LoginRequest struct {
	// The client sends its identity in the email field, which may hold a
	// username instead.
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	identity := strings.TrimSpace(req.Email)

	account, err := h.accounts.FindByIdentity(r.Context(), identity)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid credentials")
			return
		}
		slog.Error("error looking up account", "error", err)
		internalError(w)
		return
	}

	if !auth.CheckPassword(account.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid credentials")
		return
	}

	activated, err := h.accounts.ActivateSessionIfInactive(r.Context(), account.ID)
	if err != nil {
		slog.Error("error activating session", "error", err, "account_id", account.ID)
		internalError(w)
		return
	}
	if !activated {
		conflict(w, "Already logged in from another device. Please sign out there first.")
		return
	}

	token, err := h.tokens.Issue(account)
	if err != nil {
		slog.Error("error issuing token", "error", err, "account_id", account.ID)
		if deactivateErr := h.accounts.DeactivateSession(r.Context(), account.ID); deactivateErr != nil {
			slog.Error("error releasing session after failed token issue",
				"error", deactivateErr, "account_id", account.ID)
		}
		internalError(w)
		return
	}

	slog.Info("login", "account_id", account.ID, "username", account.Username)
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Message: "Login successful"})
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account := CurrentAccount(r)

	if err := h.accounts.DeactivateSession(r.Context(), account.ID); err != nil {
		slog.Error("error deactivating session", "error", err, "account_id", account.ID)
		internalError(w)
		return
	}

	slog.Info("logout", "account_id", account.ID)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

type VerifyActivationCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type VerifyActivationCodeResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func (h *AuthHandler) VerifyActivationCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyActivationCodeRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	code, err := h.codes.FindByCode(r.Context(), strings.TrimSpace(req.Code))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "Activation code not found")
			return
		}
		slog.Error("error looking up activation code", "error", err)
		internalError(w)
		return
	}

	if code.Used {
		writeJSON(w, http.StatusOK, VerifyActivationCodeResponse{
			Valid:   false,
			Message: "Activation code has already been used",
		})
		return
	}

	writeJSON(w, http.StatusOK, VerifyActivationCodeResponse{
		Valid:   true,
		Message: "Activation code is valid",
	})
}

type ResetPasswordRequest struct {
	Email          string `json:"email" validate:"required,email,max=254"`
	ActivationCode string `json:"activation_code" validate:"required"`
	NewPassword    string `json:"new_password" validate:"required,min=8,max=128"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	code, err := h.codes.FindByCode(r.Context(), strings.TrimSpace(req.ActivationCode))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			badRequest(w, "Invalid activation code")
			return
		}
		slog.Error("error looking up activation code", "error", err)
		internalError(w)
		return
	}
	if code.UsedForPasswordReset {
		badRequest(w, "Activation code has already been used for password reset")
		return
	}

	account, err := h.accounts.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "No account found with this email address")
			return
		}
		slog.Error("error looking up account", "error", err)
		internalError(w)
		return
	}

	consumed, err := h.codes.ConsumeForPasswordReset(r.Context(), code.ID, account.ID)
	if err != nil {
		slog.Error("error consuming activation code for reset", "error", err, "code_id", code.ID)
		internalError(w)
		return
	}
	if !consumed {
		badRequest(w, "Activation code has already been used for password reset")
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		internalError(w)
		return
	}

	// UpdatePassword also drops any active session, so the reset logs the
	// account out everywhere.
	if err := h.accounts.UpdatePassword(r.Context(), account.ID, passwordHash); err != nil {
		slog.Error("error updating password", "error", err, "account_id", account.ID)
		internalError(w)
		return
	}

	slog.Info("password reset", "account_id", account.ID)
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: "Password reset successful. Please log in with your new password.",
	})
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"voicenote/internal/auth"
	"voicenote/internal/db"
	"voicenote/internal/models"
)

type contextKey string

const accountKey contextKey = "account"

// AuthMiddleware validates the bearer token and loads the account fresh on
// every request, so handlers always see current quota and session state.
type AuthMiddleware struct {
	tokens   *auth.TokenService
	accounts *db.AccountRepository
}

func NewAuthMiddleware(tokens *auth.TokenService, accounts *db.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, ErrCodeTokenExpired, "Token has expired")
				return
			}
			unauthorized(w, "Invalid token")
			return
		}

		account, err := m.accounts.FindByID(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				unauthorized(w, "Account not found for token")
				return
			}
			slog.Error("error loading account for token", "error", err, "account_id", claims.Subject)
			internalError(w)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentAccount returns the authenticated account loaded by RequireAuth,
// or nil on routes outside the auth group.
func CurrentAccount(r *http.Request) *models.Account {
	if account, ok := r.Context().Value(accountKey).(*models.Account); ok {
		return account
	}
	return nil
}

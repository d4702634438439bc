package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"voicenote/internal/models"
)

func TestIssueAndValidateRoundTrip(t *testing.T) {
	service := NewTokenService("test-secret-test-secret-test-secret")
	account := &models.Account{ID: "usr_1", Username: "alice"}

	token, err := service.Issue(account)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := service.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Subject != "usr_1" {
		t.Errorf("subject = %q, want %q", claims.Subject, "usr_1")
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q, want %q", claims.Username, "alice")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 23*time.Hour || ttl > 24*time.Hour {
		t.Errorf("expiry in %v, want ~24h", ttl)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a-secret-a-secret-a-secret-a").Issue(&models.Account{ID: "usr_1"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := NewTokenService("secret-b-secret-b-secret-b-secret-b").Validate(token); err != ErrTokenInvalid {
		t.Errorf("Validate() error = %v, want ErrTokenInvalid", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	service := NewTokenService("test-secret-test-secret-test-secret")
	for _, tc := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := service.Validate(tc); err != ErrTokenInvalid {
			t.Errorf("Validate(%q) error = %v, want ErrTokenInvalid", tc, err)
		}
	}
}

func TestValidateReportsExpiry(t *testing.T) {
	secret := "test-secret-test-secret-test-secret"
	claims := Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr_1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := NewTokenService(secret).Validate(expired); err != ErrTokenExpired {
		t.Errorf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if strings.Contains(hash, "s3cret") {
		t.Fatal("hash must not contain the plaintext password")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("CheckPassword() = false for correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() = true for wrong password")
	}
}

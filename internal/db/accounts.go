package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicenote/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, username, email, password_hash,
	language, voice_similarity, stability, add_background_sound, background_volume,
	voice_clone_id, session_active, char_count, last_char_reset, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, username, email, passwordHash string) (*models.Account, error) {
	id, err := GenerateID("usr")
	if err != nil {
		return nil, fmt.Errorf("generating account ID: %w", err)
	}
	now := time.Now().UTC()
	settings := models.DefaultSettings()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash,
			language, voice_similarity, stability, add_background_sound, background_volume,
			session_active, char_count, last_char_reset, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		id, username, email, passwordHash,
		settings.Language, settings.VoiceSimilarity, settings.Stability,
		settings.AddBackgroundSound, settings.BackgroundVolume,
		now, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	return &models.Account{
		ID:            id,
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		CreatedAt:     now,
		Settings:      settings,
		LastCharReset: now,
	}, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

// FindByIdentity looks an account up by email or username, in that order.
// Emails are stored lowercased, so the email comparison folds case; usernames
// match exactly.
func (r *AccountRepository) FindByIdentity(ctx context.Context, emailOrUsername string) (*models.Account, error) {
	return r.findOne(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = lower(?) OR username = ?`,
		emailOrUsername, emailOrUsername,
	)
}

func (r *AccountRepository) UpdateSettings(ctx context.Context, id string, settings models.Settings) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET language = ?, voice_similarity = ?, stability = ?,
			add_background_sound = ?, background_volume = ?, updated_at = ?
		WHERE id = ?`,
		settings.Language, settings.VoiceSimilarity, settings.Stability,
		settings.AddBackgroundSound, settings.BackgroundVolume, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	return checkRowsAffected(result)
}

// ActivateSessionIfInactive atomically flips the session flag on, only if it
// is currently off. Returns false when another session is already active.
func (r *AccountRepository) ActivateSessionIfInactive(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET session_active = 1, updated_at = ? WHERE id = ? AND session_active = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("activating session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeactivateSession clears the session flag. Idempotent.
func (r *AccountRepository) DeactivateSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET session_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivating session: %w", err)
	}
	return nil
}

func (r *AccountRepository) SetVoiceCloneID(ctx context.Context, id, voiceID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET voice_clone_id = ?, updated_at = ? WHERE id = ?`,
		voiceID, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting voice clone id: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *AccountRepository) ClearVoiceCloneID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET voice_clone_id = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("clearing voice clone id: %w", err)
	}
	return checkRowsAffected(result)
}

// ResetCharCount zeroes the monthly counter and stamps the reset time.
func (r *AccountRepository) ResetCharCount(ctx context.Context, id string, resetAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET char_count = 0, last_char_reset = ? WHERE id = ?`,
		resetAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("resetting char count: %w", err)
	}
	return checkRowsAffected(result)
}

// ChargeCharCount atomically adds delta to the counter only while it is
// below limit, and returns the new total. Returns -1 if the account was
// already at or over the limit (no update performed).
func (r *AccountRepository) ChargeCharCount(ctx context.Context, id string, delta, limit int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`UPDATE accounts SET char_count = char_count + ? WHERE id = ? AND char_count < ? RETURNING char_count`,
		delta, id, limit,
	).Scan(&total)

	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("charging char count: %w", err)
	}
	return total, nil
}

// UpdatePassword replaces the credential and forces the session flag off so
// every device has to log in again.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, session_active = 0, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	var a models.Account
	var voiceCloneID sql.NullString
	var updatedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash,
		&a.Settings.Language, &a.Settings.VoiceSimilarity, &a.Settings.Stability,
		&a.Settings.AddBackgroundSound, &a.Settings.BackgroundVolume,
		&voiceCloneID, &a.SessionActive, &a.CharCount, &a.LastCharReset,
		&a.CreatedAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	a.VoiceCloneID = nullStringToPtr(voiceCloneID)
	a.UpdatedAt = nullTimeToPtr(updatedAt)

	return &a, nil
}

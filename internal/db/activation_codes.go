package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicenote/internal/models"
)

type ActivationCodeRepository struct {
	db *DB
}

func NewActivationCodeRepository(db *DB) *ActivationCodeRepository {
	return &ActivationCodeRepository{db: db}
}

func (r *ActivationCodeRepository) Create(ctx context.Context, code string) (*models.ActivationCode, error) {
	id, err := GenerateID("act")
	if err != nil {
		return nil, fmt.Errorf("generating activation code ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO activation_codes (id, code, used, used_for_password_reset, created_at) VALUES (?, ?, 0, 0, ?)`,
		id, code, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating activation code: %w", err)
	}

	return &models.ActivationCode{ID: id, Code: code, CreatedAt: now}, nil
}

func (r *ActivationCodeRepository) FindByCode(ctx context.Context, code string) (*models.ActivationCode, error) {
	var ac models.ActivationCode
	var usedBy, resetBy sql.NullString
	var usedAt, resetAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, used, used_by, used_at, used_for_password_reset, password_reset_by, password_reset_at, created_at
		FROM activation_codes WHERE code = ?`,
		code,
	).Scan(&ac.ID, &ac.Code, &ac.Used, &usedBy, &usedAt, &ac.UsedForPasswordReset, &resetBy, &resetAt, &ac.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying activation code: %w", err)
	}

	ac.UsedBy = nullStringToPtr(usedBy)
	ac.UsedAt = nullTimeToPtr(usedAt)
	ac.PasswordResetBy = nullStringToPtr(resetBy)
	ac.PasswordResetAt = nullTimeToPtr(resetAt)

	return &ac, nil
}

// ConsumeForRegistration atomically marks a code as used only if it hasn't
// been used yet, recording which account spent it.
func (r *ActivationCodeRepository) ConsumeForRegistration(ctx context.Context, id, accountID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activation_codes SET used = 1, used_by = ?, used_at = ? WHERE id = ? AND used = 0`,
		accountID, time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("consuming activation code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// ConsumeForPasswordReset spends the code's one password-reset use. The
// registration use is tracked separately.
func (r *ActivationCodeRepository) ConsumeForPasswordReset(ctx context.Context, id, accountID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activation_codes SET used_for_password_reset = 1, password_reset_by = ?, password_reset_at = ?
		WHERE id = ? AND used_for_password_reset = 0`,
		accountID, time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("consuming activation code for password reset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

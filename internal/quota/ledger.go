// Package quota tracks per-account character usage over calendar months.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voicenote/internal/db"
	"voicenote/internal/models"
)

// MonthlyLimit is the character budget every account gets per calendar month.
const MonthlyLimit = 5000

var ErrLimitExceeded = errors.New("monthly character limit exceeded")

type Ledger struct {
	accounts *db.AccountRepository
}

func NewLedger(accounts *db.AccountRepository) *Ledger {
	return &Ledger{accounts: accounts}
}

// Sync rolls the counter over if the stored reset month differs from the
// current one, persisting the reset immediately. The account record is
// updated in place so callers see the post-rollover count.
func (l *Ledger) Sync(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	if sameMonth(now, account.LastCharReset) {
		return nil
	}

	if err := l.accounts.ResetCharCount(ctx, account.ID, now); err != nil {
		return fmt.Errorf("resetting monthly count: %w", err)
	}
	account.CharCount = 0
	account.LastCharReset = now
	return nil
}

// AtLimit reports whether the account has exhausted its budget. Callers must
// Sync first so a stale counter from a prior month doesn't block the request.
func (l *Ledger) AtLimit(account *models.Account) bool {
	return account.CharCount >= MonthlyLimit
}

// Charge adds delta to the account's counter and returns the new total. The
// increment only lands while the stored count is below the limit; at or over
// it, ErrLimitExceeded is returned and nothing is mutated. The check and the
// increment are a single conditional update, so concurrent requests cannot
// both slip past the ceiling.
func (l *Ledger) Charge(ctx context.Context, accountID string, delta int) (int, error) {
	total, err := l.accounts.ChargeCharCount(ctx, accountID, delta, MonthlyLimit)
	if err != nil {
		return 0, fmt.Errorf("charging quota: %w", err)
	}
	if total < 0 {
		return 0, ErrLimitExceeded
	}
	return total, nil
}

type Snapshot struct {
	UsedCharacters      int       `json:"used_characters"`
	TotalLimit          int       `json:"total_limit"`
	RemainingCharacters int       `json:"remaining_characters"`
	DaysUntilReset      int       `json:"days_until_reset"`
	LastReset           time.Time `json:"last_reset"`
	NextReset           time.Time `json:"next_reset"`
}

// Snapshot returns the reset-aware usage view for the account.
func (l *Ledger) Snapshot(ctx context.Context, account *models.Account) (*Snapshot, error) {
	if err := l.Sync(ctx, account); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next := firstOfNextMonth(now)
	remaining := MonthlyLimit - account.CharCount
	if remaining < 0 {
		remaining = 0
	}

	return &Snapshot{
		UsedCharacters:      account.CharCount,
		TotalLimit:          MonthlyLimit,
		RemainingCharacters: remaining,
		DaysUntilReset:      int(next.Sub(now).Hours() / 24),
		LastReset:           account.LastCharReset,
		NextReset:           next,
	}, nil
}

// ChargeableLength is the billed size of a generated text: half its byte
// length. A deliberate under-count, fixed business rule.
func ChargeableLength(text string) int {
	return len(text) / 2
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func firstOfNextMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

package quota

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"voicenote/internal/db"
	"voicenote/internal/models"
)

func setup(t *testing.T) (*Ledger, *db.AccountRepository, *models.Account) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	accounts := db.NewAccountRepository(database)
	account, err := accounts.Create(context.Background(), "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	return NewLedger(accounts), accounts, account
}

func TestSyncResetsAcrossMonthBoundary(t *testing.T) {
	ledger, accounts, account := setup(t)
	ctx := context.Background()

	if _, err := ledger.Charge(ctx, account.ID, 4999); err != nil {
		t.Fatalf("Charge() error = %v", err)
	}

	// Backdate the reset stamp to a prior month without touching the count.
	lastMonth := time.Now().UTC().AddDate(0, -1, 0)
	if err := accounts.ResetCharCount(ctx, account.ID, lastMonth); err != nil {
		t.Fatalf("ResetCharCount() error = %v", err)
	}
	if _, err := ledger.Charge(ctx, account.ID, 4999); err != nil {
		t.Fatalf("Charge() error = %v", err)
	}

	account, err := accounts.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if account.CharCount != 4999 {
		t.Fatalf("precondition: count = %d, want 4999", account.CharCount)
	}

	if err := ledger.Sync(ctx, account); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if account.CharCount != 0 {
		t.Errorf("count after sync = %d, want 0", account.CharCount)
	}
	if ledger.AtLimit(account) {
		t.Error("account should be allowed after the monthly reset")
	}

	total, err := ledger.Charge(ctx, account.ID, 100)
	if err != nil {
		t.Fatalf("Charge() after reset error = %v", err)
	}
	if total != 100 {
		t.Errorf("total = %d, want 100", total)
	}
}

func TestSyncIsNoOpWithinMonth(t *testing.T) {
	ledger, accounts, account := setup(t)
	ctx := context.Background()

	if _, err := ledger.Charge(ctx, account.ID, 1234); err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	account, err := accounts.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}

	if err := ledger.Sync(ctx, account); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if account.CharCount != 1234 {
		t.Errorf("count = %d, want 1234", account.CharCount)
	}
}

func TestChargeRefusedAtCeiling(t *testing.T) {
	ledger, accounts, account := setup(t)
	ctx := context.Background()

	if _, err := ledger.Charge(ctx, account.ID, MonthlyLimit); err != nil {
		t.Fatalf("Charge() error = %v", err)
	}

	if _, err := ledger.Charge(ctx, account.ID, 1); err != ErrLimitExceeded {
		t.Fatalf("Charge() at ceiling error = %v, want ErrLimitExceeded", err)
	}

	account, err := accounts.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if account.CharCount != MonthlyLimit {
		t.Errorf("stored count = %d, want %d (refused charge must not mutate)", account.CharCount, MonthlyLimit)
	}
	if !ledger.AtLimit(account) {
		t.Error("AtLimit() = false, want true")
	}
}

func TestSnapshot(t *testing.T) {
	ledger, accounts, account := setup(t)
	ctx := context.Background()

	if _, err := ledger.Charge(ctx, account.ID, 1500); err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	account, err := accounts.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}

	snap, err := ledger.Snapshot(ctx, account)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.UsedCharacters != 1500 {
		t.Errorf("used = %d, want 1500", snap.UsedCharacters)
	}
	if snap.RemainingCharacters != MonthlyLimit-1500 {
		t.Errorf("remaining = %d, want %d", snap.RemainingCharacters, MonthlyLimit-1500)
	}

	now := time.Now().UTC()
	wantNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	if !snap.NextReset.Equal(wantNext) {
		t.Errorf("next reset = %v, want %v", snap.NextReset, wantNext)
	}
	if snap.DaysUntilReset < 0 || snap.DaysUntilReset > 31 {
		t.Errorf("days until reset = %d, out of range", snap.DaysUntilReset)
	}
}

func TestChargeableLength(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 0},
		{"ab", 1},
		{"hello world", 5},
	}
	for _, tc := range cases {
		if got := ChargeableLength(tc.text); got != tc.want {
			t.Errorf("ChargeableLength(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

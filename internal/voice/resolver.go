// Package voice decides which synthetic voice identity a request uses: the
// account's own clone when it has one, otherwise a process-wide default
// resolved once against the upstream voice directory.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"voicenote/internal/db"
	"voicenote/internal/elevenlabs"
	"voicenote/internal/models"
)

// DefaultVoiceName is the preferred name for the shared fallback voice.
const DefaultVoiceName = "Alex Latorre"

// defaultCloneName is the known cloned variant of the default voice.
const defaultCloneName = "alexlatorre_en"

var (
	ErrNoVoiceAvailable = errors.New("no default voice available")
	ErrNoClone          = errors.New("account has no voice clone")
)

// Directory is the subset of the upstream voice API the resolver needs.
type Directory interface {
	ListVoices(ctx context.Context) ([]elevenlabs.Voice, error)
	AddVoice(ctx context.Context, name, description, filename string, sample io.Reader) (string, error)
	DeleteVoice(ctx context.Context, voiceID string) error
}

// Resolver caches the default voice id for the process lifetime. Construct
// one in main and inject it wherever voice identity is needed.
type Resolver struct {
	directory Directory
	accounts  *db.AccountRepository

	mu             sync.Mutex
	defaultVoiceID string
}

func NewResolver(directory Directory, accounts *db.AccountRepository) *Resolver {
	return &Resolver{directory: directory, accounts: accounts}
}

// Resolve returns the voice identity for the account: its owned clone when
// set, otherwise the shared default.
func (r *Resolver) Resolve(ctx context.Context, account *models.Account) (string, error) {
	if id := account.GetVoiceCloneID(); id != "" {
		return id, nil
	}
	return r.DefaultVoiceID(ctx)
}

// DefaultVoiceID looks the shared default voice up in the directory, trying
// progressively looser matches, and caches the winner.
func (r *Resolver) DefaultVoiceID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.defaultVoiceID != "" {
		return r.defaultVoiceID, nil
	}

	voices, err := r.directory.ListVoices(ctx)
	if err != nil {
		return "", fmt.Errorf("listing voices for default lookup: %w", err)
	}

	id := pickDefault(voices)
	if id == "" {
		return "", ErrNoVoiceAvailable
	}

	r.defaultVoiceID = id
	return id, nil
}

// pickDefault applies the fallback tiers: exact name, known clone name,
// first non-default cloned voice, first cloned voice of any name.
func pickDefault(voices []elevenlabs.Voice) string {
	for _, v := range voices {
		if strings.EqualFold(v.Name, DefaultVoiceName) {
			return v.ID
		}
	}
	for _, v := range voices {
		if strings.EqualFold(v.Name, defaultCloneName) {
			return v.ID
		}
	}
	for _, v := range voices {
		if v.Category == "cloned" && !strings.EqualFold(v.Name, "default") {
			return v.ID
		}
	}
	for _, v := range voices {
		if v.Category == "cloned" {
			return v.ID
		}
	}
	return ""
}

// CreateOrReplace submits an audio sample for cloning. When the account
// already owns a clone and overwrite is false, the existing id is returned
// untouched. With overwrite, the prior upstream resource is deleted best
// effort before the replacement is created.
func (r *Resolver) CreateOrReplace(ctx context.Context, account *models.Account, filename string, sample io.Reader, overwrite bool) (string, error) {
	existing := account.GetVoiceCloneID()
	if existing != "" && !overwrite {
		return existing, nil
	}

	if existing != "" {
		if err := r.directory.DeleteVoice(ctx, existing); err != nil {
			slog.Warn("failed to delete old voice clone, continuing with replacement",
				"voice_id", existing, "account_id", account.ID, "error", err)
		}
		if err := r.accounts.ClearVoiceCloneID(ctx, account.ID); err != nil {
			return "", fmt.Errorf("clearing old voice clone id: %w", err)
		}
		account.VoiceCloneID = nil
	}

	name := fmt.Sprintf("%s_%s", account.Username, LanguageCode(account.Settings.Language))
	description := fmt.Sprintf("Voice clone for user %s (Language: %s)", account.Username, account.Settings.Language)

	voiceID, err := r.directory.AddVoice(ctx, name, description, filename, sample)
	if err != nil {
		return "", fmt.Errorf("cloning voice: %w", err)
	}

	if err := r.accounts.SetVoiceCloneID(ctx, account.ID, voiceID); err != nil {
		return "", fmt.Errorf("storing voice clone id: %w", err)
	}
	account.VoiceCloneID = &voiceID

	return voiceID, nil
}

// Delete removes the account's clone. The stored identifier is cleared even
// when the upstream delete fails, so local state never references a resource
// the caller believes is gone; the upstream failure is still returned.
func (r *Resolver) Delete(ctx context.Context, account *models.Account) error {
	existing := account.GetVoiceCloneID()
	if existing == "" {
		return ErrNoClone
	}

	deleteErr := r.directory.DeleteVoice(ctx, existing)

	if err := r.accounts.ClearVoiceCloneID(ctx, account.ID); err != nil {
		return fmt.Errorf("clearing voice clone id: %w", err)
	}
	account.VoiceCloneID = nil

	if deleteErr != nil {
		return fmt.Errorf("deleting upstream voice: %w", deleteErr)
	}
	return nil
}

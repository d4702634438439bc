// Package notes coordinates a single voice-note generation request: quota,
// content safety, text generation, voice resolution and speech synthesis.
package notes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"voicenote/internal/elevenlabs"
	"voicenote/internal/models"
	"voicenote/internal/quota"
	"voicenote/internal/safety"
	"voicenote/internal/textgen"
)

// DefaultTTSModel is the synthesis model used for every note.
const DefaultTTSModel = "eleven_turbo_v2_5"

// TextGenerator produces the note text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VoiceResolver maps an account to the voice identity to synthesize with.
type VoiceResolver interface {
	Resolve(ctx context.Context, account *models.Account) (string, error)
}

// Synthesizer turns text into an audio stream.
type Synthesizer interface {
	Synthesize(ctx context.Context, voiceID string, synth elevenlabs.SynthesisRequest) (io.ReadCloser, string, error)
}

// Request carries the caller's inputs. Stability and SimilarityBoost, when
// set, override the account's stored voice settings for this note only.
type Request struct {
	Topic           string
	Value           string
	Stability       *float64
	SimilarityBoost *float64
}

// Result is a successful generation. Audio must be closed by the caller.
type Result struct {
	Audio       io.ReadCloser
	ContentType string
	Text        string
	Charged     int
	UsedTotal   int
}

type Orchestrator struct {
	ledger      *quota.Ledger
	generator   TextGenerator
	resolver    VoiceResolver
	synthesizer Synthesizer
	ttsModel    string
	sanitizer   *bluemonday.Policy
}

func NewOrchestrator(ledger *quota.Ledger, generator TextGenerator, resolver VoiceResolver, synthesizer Synthesizer, ttsModel string) *Orchestrator {
	if ttsModel == "" {
		ttsModel = DefaultTTSModel
	}
	return &Orchestrator{
		ledger:      ledger,
		generator:   generator,
		resolver:    resolver,
		synthesizer: synthesizer,
		ttsModel:    ttsModel,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// Generate runs the full pipeline for one note. Quota exhaustion surfaces as
// quota.ErrLimitExceeded before any external call; a failed synthesis
// surfaces the upstream error unchanged. Text generation failure is the one
// non-fatal step: the note falls back to a fixed phrase in the account's
// language.
func (o *Orchestrator) Generate(ctx context.Context, account *models.Account, req Request) (*Result, error) {
	if err := o.ledger.Sync(ctx, account); err != nil {
		return nil, err
	}
	if o.ledger.AtLimit(account) {
		return nil, quota.ErrLimitExceeded
	}

	topic := o.clean(req.Topic)
	value := o.clean(req.Value)
	language := account.Settings.Language

	var text string
	if safety.LikelyInappropriate(topic) || safety.LikelyInappropriate(value) {
		slog.Info("input flagged by content filter, using safe note",
			"account_id", account.ID)
		text = textgen.SafeNote(language)
	} else {
		generated, err := o.generator.Generate(ctx, textgen.BuildPrompt(language, topic, value))
		if err != nil {
			slog.Warn("text generation failed, using fallback note",
				"account_id", account.ID, "error", err)
			generated = textgen.FallbackNote(language, topic, value)
		}
		text = generated
	}

	voiceID, err := o.resolver.Resolve(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("resolving voice: %w", err)
	}

	stability := account.Settings.Stability
	if req.Stability != nil {
		stability = *req.Stability
	}
	similarity := account.Settings.VoiceSimilarity
	if req.SimilarityBoost != nil {
		similarity = *req.SimilarityBoost
	}

	audio, contentType, err := o.synthesizer.Synthesize(ctx, voiceID, elevenlabs.SynthesisRequest{
		Text:    text,
		ModelID: o.ttsModel,
		VoiceSettings: elevenlabs.VoiceSettings{
			Stability:       stability,
			SimilarityBoost: similarity,
		},
	})
	if err != nil {
		return nil, err
	}

	charged := quota.ChargeableLength(text)
	total, err := o.ledger.Charge(ctx, account.ID, charged)
	if err != nil {
		// Synthesis already succeeded; a concurrent request racing the
		// counter past the ceiling must not discard the audio.
		slog.Warn("quota charge refused after synthesis, delivering anyway",
			"account_id", account.ID, "charged", charged, "error", err)
		total = account.CharCount
	}

	return &Result{
		Audio:       audio,
		ContentType: contentType,
		Text:        text,
		Charged:     charged,
		UsedTotal:   total,
	}, nil
}

func (o *Orchestrator) clean(s string) string {
	return strings.TrimSpace(o.sanitizer.Sanitize(s))
}

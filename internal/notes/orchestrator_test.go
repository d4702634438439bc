package notes

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"voicenote/internal/db"
	"voicenote/internal/elevenlabs"
	"voicenote/internal/models"
	"voicenote/internal/quota"
	"voicenote/internal/textgen"
)

type countingGenerator struct {
	calls  int
	text   string
	err    error
	prompt string
}

func (g *countingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.prompt = prompt
	return g.text, g.err
}

type fixedResolver struct {
	id  string
	err error
}

func (r *fixedResolver) Resolve(ctx context.Context, account *models.Account) (string, error) {
	return r.id, r.err
}

type fakeSynthesizer struct {
	calls int
	last  elevenlabs.SynthesisRequest
	err   error
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, voiceID string, synth elevenlabs.SynthesisRequest) (io.ReadCloser, string, error) {
	s.calls++
	s.last = synth
	if s.err != nil {
		return nil, "", s.err
	}
	return io.NopCloser(strings.NewReader("mp3 bytes")), "audio/mpeg", nil
}

type fixture struct {
	accounts    *db.AccountRepository
	account     *models.Account
	generator   *countingGenerator
	synthesizer *fakeSynthesizer
	orch        *Orchestrator
}

func newFixture(t *testing.T) *fixture {
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

	generator := &countingGenerator{text: "Okay, so today I saw something remarkable on my walk."}
	synthesizer := &fakeSynthesizer{}
	orch := NewOrchestrator(
		quota.NewLedger(accounts),
		generator,
		&fixedResolver{id: "voice1"},
		synthesizer,
		"",
	)
	return &fixture{accounts: accounts, account: account, generator: generator, synthesizer: synthesizer, orch: orch}
}

func TestGenerateHappyPath(t *testing.T) {
	f := newFixture(t)

	result, err := f.orch.Generate(context.Background(), f.account, Request{Topic: "travel", Value: "Paris"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	defer result.Audio.Close()

	if result.ContentType != "audio/mpeg" {
		t.Errorf("content type = %q, want audio/mpeg", result.ContentType)
	}
	if result.Text != f.generator.text {
		t.Errorf("text = %q, want generated text", result.Text)
	}
	wantCharge := len(f.generator.text) / 2
	if result.Charged != wantCharge {
		t.Errorf("charged = %d, want %d", result.Charged, wantCharge)
	}
	if result.UsedTotal != wantCharge {
		t.Errorf("used total = %d, want %d", result.UsedTotal, wantCharge)
	}
	if f.synthesizer.last.ModelID != DefaultTTSModel {
		t.Errorf("model = %q, want %q", f.synthesizer.last.ModelID, DefaultTTSModel)
	}

	stored, err := f.accounts.FindByID(context.Background(), f.account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.CharCount != wantCharge {
		t.Errorf("stored count = %d, want %d", stored.CharCount, wantCharge)
	}
}

func TestGenerateFlaggedInputSkipsGenerator(t *testing.T) {
	f := newFixture(t)

	result, err := f.orch.Generate(context.Background(), f.account, Request{Topic: "sex", Value: "anything"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	defer result.Audio.Close()

	if f.generator.calls != 0 {
		t.Errorf("generator called %d times, want 0", f.generator.calls)
	}
	if result.Text != textgen.SafeNote("english") {
		t.Errorf("text = %q, want fixed safe note", result.Text)
	}
	if f.synthesizer.calls != 1 {
		t.Errorf("synthesizer called %d times, want 1", f.synthesizer.calls)
	}
}

func TestGenerateFallsBackWhenGeneratorFails(t *testing.T) {
	f := newFixture(t)
	f.generator.err = errors.New("upstream down")
	f.generator.text = ""

	result, err := f.orch.Generate(context.Background(), f.account, Request{Topic: "travel", Value: "Paris"})
	if err != nil {
		t.Fatalf("Generate() error = %v, generation failure must be non-fatal", err)
	}
	defer result.Audio.Close()

	if result.Text != textgen.FallbackNote("english", "travel", "Paris") {
		t.Errorf("text = %q, want fallback note", result.Text)
	}
}

func TestGenerateQuotaExhaustedStopsBeforeExternalCalls(t *testing.T) {
	f := newFixture(t)

	if _, err := f.accounts.ChargeCharCount(context.Background(), f.account.ID, quota.MonthlyLimit, quota.MonthlyLimit); err != nil {
		t.Fatalf("ChargeCharCount() error = %v", err)
	}
	account, err := f.accounts.FindByID(context.Background(), f.account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}

	_, genErr := f.orch.Generate(context.Background(), account, Request{Topic: "travel", Value: "Paris"})
	if !errors.Is(genErr, quota.ErrLimitExceeded) {
		t.Fatalf("Generate() error = %v, want ErrLimitExceeded", genErr)
	}
	if f.generator.calls != 0 || f.synthesizer.calls != 0 {
		t.Errorf("external calls made (generator=%d synthesizer=%d), want none",
			f.generator.calls, f.synthesizer.calls)
	}
}

func TestGenerateSynthesisFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.synthesizer.err = &elevenlabs.UpstreamError{StatusCode: 422, Body: "bad voice settings"}

	_, err := f.orch.Generate(context.Background(), f.account, Request{Topic: "travel", Value: "Paris"})

	var upstream *elevenlabs.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Generate() error = %v, want UpstreamError", err)
	}
	if upstream.StatusCode != 422 {
		t.Errorf("status = %d, want 422", upstream.StatusCode)
	}

	stored, findErr := f.accounts.FindByID(context.Background(), f.account.ID)
	if findErr != nil {
		t.Fatalf("FindByID() error = %v", findErr)
	}
	if stored.CharCount != 0 {
		t.Errorf("stored count = %d, want 0 when synthesis fails", stored.CharCount)
	}
}

func TestGenerateRequestSettingsOverrideAccount(t *testing.T) {
	f := newFixture(t)

	stability := 0.25
	similarity := 0.95
	result, err := f.orch.Generate(context.Background(), f.account, Request{
		Topic:           "travel",
		Value:           "Paris",
		Stability:       &stability,
		SimilarityBoost: &similarity,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	defer result.Audio.Close()

	if f.synthesizer.last.VoiceSettings.Stability != 0.25 {
		t.Errorf("stability = %v, want 0.25", f.synthesizer.last.VoiceSettings.Stability)
	}
	if f.synthesizer.last.VoiceSettings.SimilarityBoost != 0.95 {
		t.Errorf("similarity = %v, want 0.95", f.synthesizer.last.VoiceSettings.SimilarityBoost)
	}
}

func TestGenerateStripsMarkupFromInputs(t *testing.T) {
	f := newFixture(t)

	result, err := f.orch.Generate(context.Background(), f.account, Request{
		Topic: "<script>alert(1)</script>travel",
		Value: "  <b>Paris</b>  ",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	defer result.Audio.Close()

	if strings.Contains(f.generator.prompt, "<script>") || strings.Contains(f.generator.prompt, "<b>") {
		t.Errorf("prompt contains markup: %q", f.generator.prompt)
	}
	if !strings.Contains(f.generator.prompt, "travel") || !strings.Contains(f.generator.prompt, "Paris") {
		t.Errorf("prompt missing cleaned inputs: %q", f.generator.prompt)
	}
}

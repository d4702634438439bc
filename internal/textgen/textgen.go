// Package textgen produces the short voice-note text. Generation is a chain
// of strategies tried in order (Gemini SDK, then the REST endpoint); when
// every strategy fails the caller substitutes a fixed fallback phrase, so a
// generation outage never fails a request.
package textgen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// DefaultModel is the Gemini model used for note generation.
const DefaultModel = "gemini-2.0-flash"

var ErrExhausted = errors.New("all text generation strategies failed")

// Strategy is one way of turning a prompt into text. Returning an empty
// string without error also counts as a miss.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type Generator struct {
	strategies []Strategy
}

func NewGenerator(strategies ...Strategy) *Generator {
	return &Generator{strategies: strategies}
}

// Generate tries each strategy in order and returns the first non-empty
// result. Failures are logged and swallowed; only full exhaustion is an
// error.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	for _, strategy := range g.strategies {
		text, err := strategy.Generate(ctx, prompt)
		if err != nil {
			slog.Warn("text generation strategy failed", "strategy", strategy.Name(), "error", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
		slog.Warn("text generation strategy returned empty text", "strategy", strategy.Name())
	}
	return "", ErrExhausted
}

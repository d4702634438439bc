package textgen

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// SDKStrategy generates text through the Gemini SDK. The client is built
// once at construction and reused across requests.
type SDKStrategy struct {
	client *genai.Client
	model  string
}

func NewSDKStrategy(apiKey, model string) (*SDKStrategy, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &SDKStrategy{client: client, model: model}, nil
}

func (s *SDKStrategy) Name() string { return "gemini-sdk" }

func (s *SDKStrategy) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}

	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

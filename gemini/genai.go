package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIGenerator is the Generator backed by the Gemini API
type GenAIGenerator struct {
	client *genai.Client
}

func NewGenAIGenerator(ctx context.Context, apiKey string) (*GenAIGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GenAIGenerator{client: client}, nil
}

func (g *GenAIGenerator) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

var _ Generator = (*GenAIGenerator)(nil)

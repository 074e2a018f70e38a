package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"
	"google.golang.org/api/option"
)

// contentGenerator is the part of *genai.GenerativeModel the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiProvider calls Google's Gemini API through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  contentGenerator
	logger *slog.Logger
}

// NewGeminiProvider creates a provider for the named Gemini model. Responses
// are requested as JSON.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m := client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0.3)
	m.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))

	return &GeminiProvider{client: client, model: m, logger: logger}, nil
}

// Complete sends prompt to Gemini. Internal server errors are retried a few
// times with a fixed delay.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var (
		text string
		err  error
	)
	_, _, _ = lo.AttemptWhileWithDelay(3, 2*time.Second, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			p.logger.Warn("gemini internal error, retrying", "attempt", i+1)
		}
		text, err = p.generate(ctx, prompt)
		return err, isInternalError(err) && ctx.Err() == nil
	})
	return text, err
}

func (p *GeminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp)
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned empty content")
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini response part is not text")
	}
	return b.String(), nil
}

func isInternalError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "Error 500")
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// OpenAIOptions configures an OpenAIProvider. BaseURL may point at any
// server speaking the chat completions protocol.
type OpenAIOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64 // 0.3 when zero
	MaxTokens   int     // 300 when zero
}

// OpenAIProvider asks a chat completions endpoint for a structured salary
// estimate.
type OpenAIProvider struct {
	opts     OpenAIOptions
	endpoint string
	client   *http.Client
}

// NewOpenAIProvider creates a provider; a nil client means http.DefaultClient.
func NewOpenAIProvider(opts OpenAIOptions, client *http.Client) *OpenAIProvider {
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 300
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIProvider{
		opts:     opts,
		endpoint: strings.TrimSuffix(opts.BaseURL, "/") + "/chat/completions",
		client:   client,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string         `json:"name"`
			Schema map[string]any `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) newRequest(prompt string) chatRequest {
	req := chatRequest{
		Model: p.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
	}
	req.ResponseFormat.Type = "json_schema"
	req.ResponseFormat.JSONSchema.Name = "salary_estimate"
	req.ResponseFormat.JSONSchema.Schema = salaryEstimateSchema
	return req
}

// Complete returns the first choice's content. A non-200 status comes back as
// *model.HTTPError so callers can honor Retry-After.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(p.newRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.opts.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	// Error bodies are only quoted in messages, so a short prefix is enough.
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", model.NewHTTPError(resp, fmt.Errorf("chat completions: %s", bytes.TrimSpace(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	switch {
	case out.Error != nil:
		return "", fmt.Errorf("chat completions %s: %s", out.Error.Type, out.Error.Message)
	case len(out.Choices) == 0:
		return "", errors.New("chat completions returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

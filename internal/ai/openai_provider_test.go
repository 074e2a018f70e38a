package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/model"
)

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
}

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatReply(`{"confidence":"High"}`))

	provider := NewOpenAIProvider(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}, client)
	got, err := provider.Complete(context.Background(), "estimate this")
	require.NoError(t, err)
	assert.Equal(t, `{"confidence":"High"}`, got)
}

func TestComplete_HTTPErrorIsTyped(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}, client)
	_, err := provider.Complete(context.Background(), "estimate this")
	require.Error(t, err)

	var httpErr *model.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestProviderFunc(t *testing.T) {
	var p LLMProvider = ProviderFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})
	got, err := p.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "echo:x", got)
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, map[string]any{"choices": []any{}})

	provider := NewOpenAIProvider(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}, client)
	_, err := provider.Complete(context.Background(), "estimate this")
	assert.Error(t, err)
}

func TestComplete_APIErrorBody(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, map[string]any{
		"error": map[string]string{"message": "bad model", "type": "invalid_request_error"},
	})

	provider := NewOpenAIProvider(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}, client)
	_, err := provider.Complete(context.Background(), "estimate this")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
}

func TestComplete_SendsAuthAndStructuredOutputFormat(t *testing.T) {
	var gotReq chatRequest
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatReply("{}"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(OpenAIOptions{BaseURL: srv.URL + "/", APIKey: "my-secret-key", Model: "gpt-4o-mini"}, srv.Client())
	_, err := provider.Complete(context.Background(), "estimate this")
	require.NoError(t, err)

	assert.Equal(t, "Bearer my-secret-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.InDelta(t, 0.3, gotReq.Temperature, 1e-9)
	assert.Equal(t, 300, gotReq.MaxTokens)
	assert.Equal(t, systemPrompt, gotReq.Messages[0].Content)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, "json_schema", gotReq.ResponseFormat.Type)
	assert.Equal(t, "salary_estimate", gotReq.ResponseFormat.JSONSchema.Name)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "estimate this", gotReq.Messages[1].Content)
}

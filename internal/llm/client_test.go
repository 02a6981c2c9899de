package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepcli/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"}, nil)
	return client, server
}

func TestClientComplete(t *testing.T) {
	var captured chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"deepseek-chat","choices":[{"message":{"content":"hi there"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	})

	resp, err := client.Complete(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)

	assert.Equal(t, "deepseek-chat", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "hello", captured.Messages[0].Content)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	assert.Equal(t, 2000, captured.MaxTokens)
}

func TestClientCompleteJSONMode(t *testing.T) {
	var captured chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	})

	resp, err := client.Complete(context.Background(), Request{Prompt: "give me json", ResponseFormat: "json_object"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, resp.Content)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestClientCompleteRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))

	var transient *errors.TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, 3, transient.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, transient.StatusCode)
}

func TestClientCompleteServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestClientCompleteBadRequest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsPermanent(err))
	assert.Equal(t, http.StatusUnauthorized, errors.StatusCode(err))
}

func TestClientCompleteEmptyChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestClientFIMComplete(t *testing.T) {
	var captured fimRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/beta/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"model":"deepseek-coder","choices":[{"text":"return a + b"}]}`))
	})

	resp, err := client.FIMComplete(context.Background(), FIMRequest{
		Prompt: "def add(a, b):\n    ",
		Suffix: "\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "return a + b", resp.Content)

	assert.Equal(t, "deepseek-coder", captured.Model)
	assert.Equal(t, "\n", captured.Suffix)
	assert.InDelta(t, 0.3, captured.Temperature, 0.001)
	assert.Equal(t, 1024, captured.MaxTokens)
}

func TestClientDefaults(t *testing.T) {
	client := NewClient(Config{}, nil)
	cfg := client.Config()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.InDelta(t, DefaultTemperature, cfg.Temperature, 0.001)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 0, parseRetryAfter(""))
	assert.Equal(t, 7, parseRetryAfter("7"))
	assert.Equal(t, 0, parseRetryAfter("not-a-number"))
}

func TestClientCompleteExplicitZeroTemperature(t *testing.T) {
	var captured chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"deterministic"}}]}`))
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "hello", Temperature: Temp(0)})
	require.NoError(t, err)
	assert.Zero(t, captured.Temperature)

	// Unset still falls back to the client default.
	_, err = client.Complete(context.Background(), Request{Prompt: "hello again"})
	require.NoError(t, err)
	assert.InDelta(t, DefaultTemperature, captured.Temperature, 0.001)
}

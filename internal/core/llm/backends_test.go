package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaCompleteSendsGenerateRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"mistral","response":"It is about a cat.","done":true}`))
	}))
	defer srv.Close()

	text, err := NewOllamaLLM(srv.URL+"/", srv.Client()).Complete(context.Background(), "prompt body", "mistral")

	require.NoError(t, err)
	assert.Equal(t, "It is about a cat.", text)
	assert.Equal(t, "mistral", got["model"])
	assert.Equal(t, "prompt body", got["prompt"])
	assert.Equal(t, false, got["stream"])

	options, ok := got["options"].(map[string]any)
	require.True(t, ok, "options object missing: %v", got)
	assert.InDelta(t, 0.7, options["temperature"], 1e-9)
	assert.InDelta(t, 0.9, options["top_p"], 1e-9)
	assert.Equal(t, float64(1000), options["max_tokens"])
}

func TestOllamaAcceptsAnySuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"response":"created","done":true}`))
	}))
	defer srv.Close()

	text, err := NewOllamaLLM(srv.URL, srv.Client()).Complete(context.Background(), "p", "mistral")

	require.NoError(t, err)
	assert.Equal(t, "created", text)
}

func TestOllamaErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusInternalServerError, "", ErrUnavailable},
		{"model missing", http.StatusNotFound, `{"error":"model 'mistral' not found"}`, ErrUnavailable},
		{"garbage body", http.StatusOK, `not json`, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewOllamaLLM(srv.URL, srv.Client()).Complete(context.Background(), "p", "mistral")

			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOllamaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllamaLLM(url, nil).Complete(context.Background(), "p", "mistral")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllamaEmptyResponseIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"","done":true}`))
	}))
	defer srv.Close()

	text, err := NewOllamaLLM(srv.URL, srv.Client()).Complete(context.Background(), "p", "mistral")

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestOpenAIComplete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Forty-two."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	text, err := NewOpenAILLM("sk-test", srv.URL, srv.Client()).Complete(context.Background(), "question", "gpt-4o-mini")

	require.NoError(t, err)
	assert.Equal(t, "Forty-two.", text)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 1000, body["max_tokens"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-6)
}

func TestOpenAIErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"api error", http.StatusTooManyRequests, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`, ErrUnavailable},
		{"plain 502", http.StatusBadGateway, `bad gateway`, ErrUnavailable},
		{"malformed", http.StatusOK, `{"choices": nope}`, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewOpenAILLM("sk-test", srv.URL, srv.Client()).Complete(context.Background(), "q", "gpt-4o-mini")

			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAnthropicCompleteTakesFirstTextBlock(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"  The cat sat.  "},{"type":"text","text":"ignored"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":4}
		}`))
	}))
	defer srv.Close()

	text, err := NewAnthropicLLM("sk-ant", srv.URL, srv.Client()).Complete(context.Background(), "q", "claude-3-5-haiku-latest")

	require.NoError(t, err)
	assert.Equal(t, "  The cat sat.  ", text)
	assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
	assert.EqualValues(t, 1000, body["max_tokens"])
}

func TestAnthropicAPIErrorIsUnavailable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	_, err := NewAnthropicLLM("sk-ant", srv.URL, srv.Client()).Complete(context.Background(), "q", "claude-3-5-haiku-latest")

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestOllamaAdmin(t *testing.T) {
	var pulled string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.WriteHeader(http.StatusOK)
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"mistral:latest","model":"mistral:latest"}]}`))
		case "/api/pull":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			pulled, _ = req["model"].(string)
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = w.Write([]byte("{\"status\":\"pulling manifest\"}\n{\"status\":\"success\"}\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	admin, err := NewOllamaAdmin(srv.URL, srv.Client())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, admin.Reachable(ctx))

	has, err := admin.HasModel(ctx, "mistral")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = admin.HasModel(ctx, "llama3")
	require.NoError(t, err)
	assert.False(t, has)

	var statuses []string
	require.NoError(t, admin.Pull(ctx, "llama3", func(status string, _, _ int64) {
		statuses = append(statuses, status)
	}))
	assert.Equal(t, "llama3", pulled)
	assert.Equal(t, []string{"pulling manifest", "success"}, statuses)
}

func TestOllamaAdminUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	admin, err := NewOllamaAdmin(url, nil)
	require.NoError(t, err)

	err = admin.Reachable(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
}

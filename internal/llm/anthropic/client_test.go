package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/llm"
)

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing API key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Missing anthropic-version header")
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["max_tokens"] == nil {
			t.Error("max_tokens is required")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "Renames a helper"},
				{"type": "text", "text": " and adds a test."},
			},
		})
	}))
	defer server.Close()

	c := New("test-key", WithBaseURL(server.URL))
	got, err := c.Complete(context.Background(), "explain", "claude-sonnet-4-20250514")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "Renames a helper and adds a test." {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []map[string]any{}})
	}))
	defer server.Close()

	c := New("test-key", WithBaseURL(server.URL))
	if _, err := c.Complete(context.Background(), "p", "m"); err == nil {
		t.Error("Complete() should error on empty content")
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "invalid request"}}`))
	}))
	defer server.Close()

	c := New("test-key", WithBaseURL(server.URL))
	_, err := c.Complete(context.Background(), "p", "m")
	if err == nil {
		t.Fatal("Complete() should error on non-200 status")
	}
}

func TestClient_ExhaustedRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New("test-key", WithBaseURL(server.URL), WithRetries(2), WithBackoff(time.Millisecond))
	if _, err := c.Complete(context.Background(), "p", "m"); err == nil {
		t.Error("Complete() should error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRegistered(t *testing.T) {
	c, err := llm.New(config.LLMConfig{Strategy: "anthropic", APIKey: "k"})
	if err != nil {
		t.Fatalf("llm.New() error = %v", err)
	}
	if _, ok := c.(*Client); !ok {
		t.Errorf("llm.New() = %T, want *anthropic.Client", c)
	}
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/llm"
)

func reply(w http.ResponseWriter, text string) {
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
	})
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["model"] != "gpt-4o" {
			t.Errorf("model = %v, want gpt-4o", body["model"])
		}
		if temp, ok := body["temperature"]; !ok || temp != 0.0 {
			t.Errorf("temperature = %v (present %v), want 0", temp, ok)
		}
		reply(w, "This file adds a main function.")
	}))
	defer server.Close()

	c := New("test-key", WithBaseURL(server.URL))
	got, err := c.Complete(context.Background(), "explain", "gpt-4o")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "This file adds a main function." {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Prompt != "explain" {
		t.Errorf("Prompt = %q, want explain", got.Prompt)
	}
}

func TestClient_O1MiniOmitsTemperature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["temperature"]; ok {
			t.Error("temperature must be omitted for o1-mini")
		}
		reply(w, "ok")
	}))
	defer server.Close()

	c := New("k", WithBaseURL(server.URL))
	if _, err := c.Complete(context.Background(), "p", "o1-mini"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestClient_RetryOnServerError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		reply(w, "done")
	}))
	defer server.Close()

	c := New("k", WithBaseURL(server.URL), WithRetries(3), WithBackoff(time.Millisecond))
	got, err := c.Complete(context.Background(), "p", "gpt-4o")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "done" {
		t.Errorf("Text = %q, want done", got.Text)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "context length exceeded"}}`))
	}))
	defer server.Close()

	c := New("k", WithBaseURL(server.URL), WithRetries(3), WithBackoff(time.Millisecond))
	_, err := c.Complete(context.Background(), "p", "gpt-4o")

	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "context length exceeded" {
		t.Errorf("Complete() error = %v, want context length message", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	c := New("k", WithBaseURL(server.URL))
	if _, err := c.Complete(context.Background(), "p", "gpt-4o"); err == nil {
		t.Error("Complete() should error on empty choices")
	}
}

func TestRegistered(t *testing.T) {
	c, err := llm.New(config.LLMConfig{Strategy: "openai", APIKey: "k", MaxRetries: 1})
	if err != nil {
		t.Fatalf("llm.New() error = %v", err)
	}
	if _, ok := c.(*Client); !ok {
		t.Errorf("llm.New() = %T, want *openai.Client", c)
	}
}

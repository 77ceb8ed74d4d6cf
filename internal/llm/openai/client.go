// Package openai implements llm.Completer with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/llm"
	"github.com/drewdunne/difftale/internal/metrics"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Ensure Client implements llm.Completer.
var _ llm.Completer = (*Client)(nil)

func init() {
	llm.Register(llm.StrategyOpenAI, func(cfg config.LLMConfig) llm.Completer {
		opts := []Option{WithRetries(cfg.MaxRetries)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.TimeoutSeconds > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}))
		}
		return New(cfg.APIKey, opts...)
	})
}

// Client calls the chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retry   llm.RetryConfig
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing or compatible gateways).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRetries sets the number of retries after the first attempt.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retry.MaxRetries = n
	}
}

// WithBackoff sets the initial retry backoff.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.retry.InitialBackoff = d
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New creates a client authenticating with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		retry:   llm.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type response struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt, model string) (llm.Completion, error) {
	body := request{
		Model:    model,
		Messages: []message{{Role: "user", Content: prompt}},
	}
	if llm.SupportsTemperature(model) {
		zero := 0.0
		body.Temperature = &zero
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	var resp response
	err := llm.WithRetry(ctx, c.retry, func() error {
		metrics.LLMCall()
		return llm.PostJSON(ctx, c.client, c.baseURL+"/chat/completions", headers, body, &resp)
	})
	if err != nil {
		return llm.Completion{Prompt: prompt}, err
	}

	if len(resp.Choices) == 0 {
		return llm.Completion{Prompt: prompt}, errors.New("openai returned no choices")
	}
	return llm.Completion{Text: resp.Choices[0].Message.Content, Prompt: prompt}, nil
}

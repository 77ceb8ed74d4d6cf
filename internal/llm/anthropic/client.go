// Package anthropic implements llm.Completer with the Anthropic messages API.
package anthropic

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

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Ensure Client implements llm.Completer.
var _ llm.Completer = (*Client)(nil)

func init() {
	llm.Register(llm.StrategyAnthropic, func(cfg config.LLMConfig) llm.Completer {
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

// Client calls the messages endpoint.
type Client struct {
	apiKey    string
	baseURL   string
	maxTokens int
	client    *http.Client
	retry     llm.RetryConfig
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
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

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		c.maxTokens = n
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
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
		retry:     llm.DefaultRetryConfig(),
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
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends prompt as a single user message and joins the text blocks
// of the reply.
func (c *Client) Complete(ctx context.Context, prompt, model string) (llm.Completion, error) {
	zero := 0.0
	body := request{
		Model:       model,
		MaxTokens:   c.maxTokens,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: &zero,
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": apiVersion,
	}
	var resp response
	err := llm.WithRetry(ctx, c.retry, func() error {
		metrics.LLMCall()
		return llm.PostJSON(ctx, c.client, c.baseURL+"/messages", headers, body, &resp)
	})
	if err != nil {
		return llm.Completion{Prompt: prompt}, err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return llm.Completion{Prompt: prompt}, errors.New("empty response from API")
	}
	return llm.Completion{Text: strings.Join(parts, ""), Prompt: prompt}, nil
}

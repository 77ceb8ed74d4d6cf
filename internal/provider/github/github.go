package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/drewdunne/difftale/internal/provider"
	"github.com/google/go-github/v60/github"
)

// Provider reads repository data from the GitHub REST API.
type Provider struct {
	client *github.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL sets a custom base URL (for testing or GitHub Enterprise).
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.client.BaseURL, _ = p.client.BaseURL.Parse(strings.TrimRight(url, "/") + "/")
	}
}

// New creates a new GitHub provider. An empty token uses anonymous access.
func New(token string, opts ...Option) *Provider {
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token},
	}
	p := &Provider{client: github.NewClient(httpClient)}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// tokenTransport adds authorization header to requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "github"
}

// GetRepository fetches repository metadata.
func (p *Provider) GetRepository(ctx context.Context, owner, repo string) (*provider.Repository, error) {
	r, _, err := p.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching repository: %w", err)
	}

	return &provider.Repository{
		ID:            int(r.GetID()),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		CloneURL:      r.GetCloneURL(),
		SSHURL:        r.GetSSHURL(),
		WebURL:        r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
	}, nil
}

// Compare fetches commit statistics between two refs.
func (p *Provider) Compare(ctx context.Context, owner, repo, from, to string) (*provider.Comparison, error) {
	c, _, err := p.client.Repositories.CompareCommits(ctx, owner, repo, from, to, &github.ListOptions{PerPage: 1})
	if err != nil {
		return nil, fmt.Errorf("comparing commits: %w", err)
	}

	return &provider.Comparison{
		TotalCommits: c.GetTotalCommits(),
		AheadBy:      c.GetAheadBy(),
		BehindBy:     c.GetBehindBy(),
		WebURL:       c.GetHTMLURL(),
	}, nil
}

// CompareURL returns https://github.com/owner/repo/compare/from...to.
func (p *Provider) CompareURL(webURL, from, to string) string {
	return CompareURL(webURL, from, to)
}

// CompareURL builds a GitHub compare link without a client.
func CompareURL(webURL, from, to string) string {
	return fmt.Sprintf("%s/compare/%s...%s", strings.TrimSuffix(strings.TrimRight(webURL, "/"), ".git"), from, to)
}

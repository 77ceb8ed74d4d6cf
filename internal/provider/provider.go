package provider

import "context"

// Provider defines the hosting platform operations used around a comparison.
type Provider interface {
	// Name returns the provider name (github, gitlab).
	Name() string

	// GetRepository fetches repository metadata.
	GetRepository(ctx context.Context, owner, repo string) (*Repository, error)

	// Compare fetches commit statistics between two refs.
	Compare(ctx context.Context, owner, repo, from, to string) (*Comparison, error)

	// CompareURL returns the platform's compare page for two refs of the
	// repository at webURL. It makes no network calls.
	CompareURL(webURL, from, to string) string
}

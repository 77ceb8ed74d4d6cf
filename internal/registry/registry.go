package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/gitremote"
	"github.com/drewdunne/difftale/internal/provider"
	"github.com/drewdunne/difftale/internal/provider/github"
	"github.com/drewdunne/difftale/internal/provider/gitlab"
)

// Registry manages provider instances.
type Registry struct {
	providers  map[string]provider.Provider
	gitlabHost string
}

// New creates a new provider registry from config. Both providers are always
// available; tokens only raise rate limits and unlock private repositories.
func New(cfg *config.Config) *Registry {
	r := &Registry{
		providers: make(map[string]provider.Provider),
	}

	r.providers["github"] = github.New(cfg.Providers.GitHub.Token)

	var opts []gitlab.Option
	if base := cfg.Providers.GitLab.BaseURL; base != "" {
		opts = append(opts, gitlab.WithBaseURL(base))
		r.gitlabHost = gitremote.Host(base)
	}
	r.providers["gitlab"] = gitlab.New(cfg.Providers.GitLab.Token, opts...)

	return r
}

// Get returns the provider for the given name, or nil if not configured.
func (r *Registry) Get(name string) provider.Provider {
	return r.providers[name]
}

// ForURL returns the provider hosting repoURL, or nil for unknown hosts.
func (r *Registry) ForURL(repoURL string) provider.Provider {
	host := strings.ToLower(gitremote.Host(repoURL))
	switch {
	case host == "":
		return nil
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		return r.providers["github"]
	case strings.Contains(host, "gitlab") || (r.gitlabHost != "" && host == r.gitlabHost):
		return r.providers["gitlab"]
	default:
		return nil
	}
}

// CompareURL links to the hosting platform's compare page. Unknown hosts use
// the GitHub layout; local paths yield "".
func (r *Registry) CompareURL(repoURL, from, to string) string {
	web := gitremote.WebURL(repoURL)
	if web == "" {
		return ""
	}
	if p := r.ForURL(repoURL); p != nil {
		return p.CompareURL(web, from, to)
	}
	return github.CompareURL(web, from, to)
}

// DefaultBranch asks the hosting platform for repoURL's default branch.
func (r *Registry) DefaultBranch(ctx context.Context, repoURL string) (string, error) {
	p := r.ForURL(repoURL)
	if p == nil {
		return "", fmt.Errorf("no provider for %s", gitremote.Host(repoURL))
	}
	owner, repo, err := gitremote.OwnerRepo(repoURL)
	if err != nil {
		return "", err
	}
	info, err := p.GetRepository(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	if info.DefaultBranch == "" {
		return "", fmt.Errorf("%s/%s has no default branch", owner, repo)
	}
	return info.DefaultBranch, nil
}

// Compare fetches commit statistics between two refs of repoURL.
func (r *Registry) Compare(ctx context.Context, repoURL, from, to string) (*provider.Comparison, error) {
	p := r.ForURL(repoURL)
	if p == nil {
		return nil, fmt.Errorf("no provider for %s", gitremote.Host(repoURL))
	}
	owner, repo, err := gitremote.OwnerRepo(repoURL)
	if err != nil {
		return nil, err
	}
	return p.Compare(ctx, owner, repo, from, to)
}

// List returns all configured provider names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

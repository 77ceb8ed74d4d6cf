package gitlab

import (
	"context"
	"fmt"
	"strings"

	"github.com/drewdunne/difftale/internal/provider"
	"github.com/xanzy/go-gitlab"
)

// Provider reads project data from the GitLab v4 API.
type Provider struct {
	client *gitlab.Client
	token  string
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the client at a self-managed instance (or a test server).
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.client, _ = gitlab.NewClient(p.token, gitlab.WithBaseURL(strings.TrimRight(baseURL, "/")+"/api/v4"))
	}
}

// New creates a new GitLab provider.
func New(token string, opts ...Option) *Provider {
	client, _ := gitlab.NewClient(token)
	p := &Provider{client: client, token: token}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gitlab"
}

// GetRepository fetches project metadata. Nested groups are part of owner.
func (p *Provider) GetRepository(ctx context.Context, owner, repo string) (*provider.Repository, error) {
	project, _, err := p.client.Projects.GetProject(owner+"/"+repo, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching project: %w", err)
	}

	return &provider.Repository{
		ID:            project.ID,
		Name:          project.Name,
		FullName:      project.PathWithNamespace,
		CloneURL:      project.HTTPURLToRepo,
		SSHURL:        project.SSHURLToRepo,
		WebURL:        project.WebURL,
		DefaultBranch: project.DefaultBranch,
	}, nil
}

// Compare fetches commit statistics between two refs.
func (p *Provider) Compare(ctx context.Context, owner, repo, from, to string) (*provider.Comparison, error) {
	c, _, err := p.client.Repositories.Compare(owner+"/"+repo, &gitlab.CompareOptions{
		From: gitlab.Ptr(from),
		To:   gitlab.Ptr(to),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("comparing refs: %w", err)
	}

	return &provider.Comparison{
		TotalCommits: len(c.Commits),
		AheadBy:      len(c.Commits),
	}, nil
}

// CompareURL returns https://gitlab.com/group/repo/-/compare/from...to.
func (p *Provider) CompareURL(webURL, from, to string) string {
	return CompareURL(webURL, from, to)
}

// CompareURL builds a GitLab compare link without a client.
func CompareURL(webURL, from, to string) string {
	return fmt.Sprintf("%s/-/compare/%s...%s", strings.TrimSuffix(strings.TrimRight(webURL, "/"), ".git"), from, to)
}

package gitremote

import (
	"context"
	"fmt"
	"strings"

	"github.com/drewdunne/difftale/internal/runner"
)

// Lister reads the tags, branches and commits a remote offers.
type Lister struct {
	exec runner.Executor
}

// NewLister creates a Lister running git through exec.
func NewLister(exec runner.Executor) *Lister {
	return &Lister{exec: exec}
}

// Tags returns tag names, newest first.
func (l *Lister) Tags(ctx context.Context, dir, remote string) ([]string, error) {
	out, err := l.exec.Capture(ctx, "List tags of "+remote,
		runner.Git(dir, "ls-remote", "--tags", "--sort=-creatordate", remote))
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return parseRefs(out, "refs/tags/"), nil
}

// Branches returns branch names, most recently committed first.
func (l *Lister) Branches(ctx context.Context, dir, remote string) ([]string, error) {
	out, err := l.exec.Capture(ctx, "List branches of "+remote,
		runner.Git(dir, "ls-remote", "--heads", "--sort=-creatordate", remote))
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	return parseRefs(out, "refs/heads/"), nil
}

// Commits returns the hashes of commits reachable from the remote's refs.
func (l *Lister) Commits(ctx context.Context, dir, remote string) ([]string, error) {
	out, err := l.exec.Capture(ctx, "List commits of "+remote,
		runner.Git(dir, "log", "--pretty=format:%H", "--remotes="+remote))
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	var hashes []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes, nil
}

// parseRefs reads `<sha>\t<ref>` lines, dropping peeled ^{} entries.
func parseRefs(out, prefix string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		_, ref, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if !ok || strings.HasSuffix(ref, "^{}") || !strings.HasPrefix(ref, prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(ref, prefix))
	}
	return names
}

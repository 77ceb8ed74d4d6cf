package gitremote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/drewdunne/difftale/internal/runner"
)

// Resolver makes sure a named remote points at a URL and has its refs fetched.
type Resolver struct {
	exec runner.Executor
}

// NewResolver creates a Resolver running git through exec.
func NewResolver(exec runner.Executor) *Resolver {
	return &Resolver{exec: exec}
}

// Ensure adds remoteName → repoURL to the repository in dir and fetches its
// tags. An existing remote with the same name is replaced, so calling Ensure
// again with a changed URL repoints the remote.
func (r *Resolver) Ensure(ctx context.Context, dir, remoteName, repoURL string, useSSH bool) error {
	if remoteName == "" || repoURL == "" {
		return fmt.Errorf("remote name and url are required")
	}
	if useSSH {
		sshURL, err := ToSSH(repoURL)
		if err != nil {
			return err
		}
		repoURL = sshURL
	}

	if _, err := r.exec.Capture(ctx, "Fetch all remotes", runner.Git(dir, "fetch", "--all", "--tags")); err != nil {
		return fmt.Errorf("fetching remotes: %w", err)
	}

	_, err := r.exec.Capture(ctx, "Add remote "+remoteName, runner.Git(dir, "remote", "add", remoteName, repoURL))
	if err != nil {
		if !IsRemoteExists(err) {
			return fmt.Errorf("adding remote %s: %w", remoteName, err)
		}
		slog.Debug("remote exists, recreating", "remote", remoteName)
		if _, err := r.exec.Capture(ctx, "Remove remote "+remoteName, runner.Git(dir, "remote", "remove", remoteName)); err != nil {
			return fmt.Errorf("removing remote %s: %w", remoteName, err)
		}
		if _, err := r.exec.Capture(ctx, "Add remote "+remoteName, runner.Git(dir, "remote", "add", remoteName, repoURL)); err != nil {
			return fmt.Errorf("re-adding remote %s: %w", remoteName, err)
		}
	}

	if _, err := r.exec.Capture(ctx, "Fetch remote "+remoteName, runner.Git(dir, "fetch", remoteName, "--tags")); err != nil {
		return fmt.Errorf("fetching remote %s: %w", remoteName, err)
	}
	return nil
}

// IsRemoteExists reports whether err is git refusing to add a duplicate remote.
func IsRemoteExists(err error) bool {
	var cmdErr *runner.CommandError
	if errors.As(err, &cmdErr) {
		return strings.Contains(cmdErr.Output, "already exists")
	}
	return err != nil && strings.Contains(err.Error(), "already exists")
}

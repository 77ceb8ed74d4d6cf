package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/drewdunne/difftale/internal/runner"
)

// ErrMissingCloneURL is returned when Clone is called without a URL.
var ErrMissingCloneURL = errors.New("clone url is required")

// Cloner clones repositories into fresh registered directories.
type Cloner struct {
	baseDir  string
	exec     runner.Executor
	registry *Registry
}

// NewCloner creates a Cloner placing clones under baseDir (the system temp
// dir when empty).
func NewCloner(baseDir string, exec runner.Executor, registry *Registry) *Cloner {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Cloner{baseDir: baseDir, exec: exec, registry: registry}
}

// Clone clones cloneURL into a new directory and returns its path. The
// directory is registered before cloning so a failed clone is still cleaned up.
func (c *Cloner) Clone(ctx context.Context, cloneURL string) (string, error) {
	if cloneURL == "" {
		return "", ErrMissingCloneURL
	}
	if err := os.MkdirAll(c.baseDir, 0755); err != nil {
		return "", fmt.Errorf("creating workspace directory: %w", err)
	}

	dir := filepath.Join(c.baseDir, "difftale-"+uuid.NewString())
	c.registry.Register(dir)

	slog.Info("cloning repository", "dir", dir)
	if _, err := c.exec.Capture(ctx, "Clone repository", runner.Git(c.baseDir, "clone", "-q", cloneURL, dir)); err != nil {
		return "", fmt.Errorf("cloning repo: %w", err)
	}
	return dir, nil
}

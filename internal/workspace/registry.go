// Package workspace owns the temporary clones comparisons run in.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
)

// Registry tracks temporary directories so they can be removed at shutdown.
type Registry struct {
	mu    sync.Mutex
	paths []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register records path for cleanup.
func (r *Registry) Register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.paths, path) {
		r.paths = append(r.paths, path)
	}
}

// Paths returns a copy of the registered paths.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.paths)
}

// Release removes path from disk and from the registry.
func (r *Registry) Release(path string) error {
	r.mu.Lock()
	r.paths = slices.DeleteFunc(r.paths, func(p string) bool { return p == path })
	r.mu.Unlock()

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// CleanupAll removes every registered path and empties the registry.
func (r *Registry) CleanupAll() error {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

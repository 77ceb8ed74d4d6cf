package server

import (
	"context"
	"fmt"
	"sync"
)

// runSet tracks the cancel funcs of in-flight comparisons by run ID.
type runSet struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newRunSet() *runSet {
	return &runSet{cancels: make(map[string]context.CancelFunc)}
}

// start registers id and returns its context and a func that must be
// called when the run ends.
func (r *runSet) start(parent context.Context, id string) (context.Context, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cancels[id]; ok {
		return nil, nil, fmt.Errorf("run %s is already active", id)
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancels[id] = cancel
	return ctx, func() {
		r.mu.Lock()
		delete(r.cancels, id)
		r.mu.Unlock()
		cancel()
	}, nil
}

// stop cancels id and reports whether it was running.
func (r *runSet) stop(id string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// stopAll cancels every active run and returns how many there were.
func (r *runSet) stopAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cancel := range r.cancels {
		cancel()
	}
	return len(r.cancels)
}

func (r *runSet) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

package logging

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// CleanupScheduler sweeps one or more directories on a fixed interval.
type CleanupScheduler struct {
	interval time.Duration
	cleaners []*Cleaner

	started atomic.Bool
	once    sync.Once
	quit    chan struct{}
	done    chan struct{}
}

// NewCleanupScheduler returns a scheduler that runs every cleaner each interval.
func NewCleanupScheduler(interval time.Duration, cleaners ...*Cleaner) *CleanupScheduler {
	return &CleanupScheduler{
		interval: interval,
		cleaners: cleaners,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start sweeps once right away and then on every tick until Stop.
func (s *CleanupScheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.quit:
				return
			}
		}
	}()
}

// Stop ends the schedule and waits for an in-progress sweep to finish.
// It is safe to call more than once, and before Start.
func (s *CleanupScheduler) Stop() {
	s.once.Do(func() { close(s.quit) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *CleanupScheduler) sweep() {
	for _, c := range s.cleaners {
		deleted, err := c.Cleanup()
		switch {
		case err != nil:
			slog.Warn("cleanup failed", "dir", c.baseDir, "error", err)
		case deleted > 0:
			slog.Info("removed expired files", "dir", c.baseDir, "deleted", deleted)
		}
	}
}

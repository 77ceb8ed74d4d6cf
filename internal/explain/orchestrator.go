package explain

import (
	"context"
	"sync"

	"github.com/drewdunne/difftale/internal/compare"
)

// DefaultConcurrency is the number of explanations in flight when none is configured.
const DefaultConcurrency = 5

// Orchestrator explains many files with bounded concurrency.
type Orchestrator struct {
	explainer   *Explainer
	concurrency int
	onDone      func(ExplainedFile)
}

// NewOrchestrator creates an Orchestrator. A concurrency below 1 uses DefaultConcurrency.
func NewOrchestrator(e *Explainer, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{explainer: e, concurrency: concurrency}
}

// OnDone registers a callback run after each file, from the worker goroutine.
func (o *Orchestrator) OnDone(fn func(ExplainedFile)) {
	o.onDone = fn
}

// ExplainAll returns one explained record per input, in input order.
func (o *Orchestrator) ExplainAll(ctx context.Context, files []compare.ChangedFile) ([]ExplainedFile, error) {
	results := make([]ExplainedFile, len(files))
	errs := make([]error, len(files))
	semaphore := make(chan struct{}, o.concurrency)

	var wg sync.WaitGroup
launch:
	for i, f := range files {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			break launch
		}
		wg.Add(1)
		go func(i int, f compare.ChangedFile) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i], errs[i] = o.explainer.Explain(ctx, f)
			if o.onDone != nil {
				o.onDone(results[i])
			}
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

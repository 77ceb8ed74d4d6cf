package linecount

import (
	"context"
	"iter"
	"strings"

	"github.com/drewdunne/difftale/internal/runner"
)

// Request selects the two refs to diff and an optional language allow-list.
type Request struct {
	Dir       string
	FromRef   string
	ToRef     string
	Languages []string
}

// Args returns the tool arguments for req.
func (req Request) Args() []string {
	args := []string{"--git-diff-rel", "--csv", "--by-file", req.ToRef, req.FromRef}
	if len(req.Languages) > 0 {
		args = append(args, "--include-lang="+strings.Join(req.Languages, ","))
	}
	return args
}

// Counter produces the raw CSV lines of a by-file line diff.
type Counter interface {
	Lines(ctx context.Context, req Request) iter.Seq2[string, error]
}

// LocalCounter runs the tool binary installed on this host.
type LocalCounter struct {
	Binary string
	Runner *runner.Runner
}

// NewLocalCounter returns a counter running binary (default cloc) through r.
func NewLocalCounter(binary string, r *runner.Runner) *LocalCounter {
	if strings.TrimSpace(binary) == "" {
		binary = "cloc"
	}
	return &LocalCounter{Binary: binary, Runner: r}
}

// Lines implements Counter.
func (c *LocalCounter) Lines(ctx context.Context, req Request) iter.Seq2[string, error] {
	return c.Runner.StreamLines(ctx, "Count changed lines", runner.Command{
		Name: c.Binary,
		Args: req.Args(),
		Dir:  req.Dir,
	})
}

package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/drewdunne/difftale/internal/gitremote"
	"github.com/drewdunne/difftale/internal/linecount"
	"github.com/drewdunne/difftale/internal/metrics"
	"github.com/drewdunne/difftale/internal/runner"
)

// ErrToolUnavailable means the line counter could not produce output and
// the name-only diff was used instead.
var ErrToolUnavailable = errors.New("line-counting tool unavailable")

// Comparator computes the files that differ between two endpoints.
type Comparator struct {
	exec     runner.Executor
	resolver *gitremote.Resolver
	counter  linecount.Counter
	content  ContentReader
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithContentReader overrides how file contents at the target ref are read.
func WithContentReader(r ContentReader) Option {
	return func(c *Comparator) {
		c.content = r
	}
}

// NewComparator creates a Comparator. A nil counter always uses the
// name-only diff.
func NewComparator(exec runner.Executor, counter linecount.Counter, opts ...Option) *Comparator {
	c := &Comparator{
		exec:     exec,
		resolver: gitremote.NewResolver(exec),
		counter:  counter,
		content:  NewRepoContentReader(exec),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare resolves both endpoints and returns the changed files sorted by path.
func (c *Comparator) Compare(ctx context.Context, p Params) ([]ChangedFile, error) {
	if p.Dir == "" {
		return nil, errors.New("project directory is required")
	}
	if p.From.Ref == "" || p.To.Ref == "" {
		return nil, errors.New("both from and to refs are required")
	}

	// Sequential: both endpoints may rewrite the same remote configuration.
	for _, e := range []Endpoint{p.From, p.To} {
		repoURL, err := p.remoteURL(e)
		if err != nil {
			return nil, err
		}
		if err := c.resolver.Ensure(ctx, p.Dir, e.Remote, repoURL, p.UseSSH); err != nil {
			return nil, fmt.Errorf("resolving remote %s: %w", e.Remote, err)
		}
	}

	fromRef, toRef := p.From.Normalized(), p.To.Normalized()

	if p.Checkout {
		if _, err := c.exec.Capture(ctx, "Check out from ref", runner.Git(p.Dir, "checkout", "-q", fromRef)); err != nil {
			return nil, fmt.Errorf("checking out %s: %w", fromRef, err)
		}
	}

	files, err := c.changes(ctx, p.Dir, fromRef, toRef)
	if err != nil {
		return nil, err
	}

	langs := ParseLanguages(p.Languages)
	rows, err := c.countLines(ctx, linecount.Request{Dir: p.Dir, FromRef: fromRef, ToRef: toRef, Languages: langs})
	if err != nil {
		slog.Warn("line counting failed, using name-only diff", "dir", p.Dir, "error", err)
		metrics.LineCountFallback()
	}

	result := make([]ChangedFile, 0, len(files))
	for _, f := range files {
		// The counter already applied the language filter to its rows, so
		// a counted file is kept even when the extension table lacks it.
		stats, counted := rows[f.Path]
		if !counted && !matchesLanguage(f.Path, langs) {
			continue
		}
		if counted {
			f.Lines = stats
		}
		f.FullPath = filepath.Join(p.Dir, f.Path)
		f.Extension = strings.TrimPrefix(filepath.Ext(f.Path), ".")

		if err := c.fill(ctx, p.Dir, fromRef, toRef, &f); err != nil {
			return nil, err
		}
		result = append(result, f)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// changes lists every file git reports between the refs, with change-kind
// flags and unavailable line counts.
func (c *Comparator) changes(ctx context.Context, dir, fromRef, toRef string) ([]ChangedFile, error) {
	out, err := c.exec.Capture(ctx, "List changed files",
		runner.Git(dir, "-c", "core.quotePath=false", "diff", "--name-status", "-M", "-C", fromRef, toRef))
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", fromRef, toRef, err)
	}
	return parseNameStatus(out), nil
}

func parseNameStatus(out string) []ChangedFile {
	var files []ChangedFile
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		f := ChangedFile{Path: fields[len(fields)-1], Lines: linecount.UnavailableStats()}
		switch fields[0][0] {
		case 'A':
			f.Added = true
		case 'D':
			f.Deleted = true
		case 'R':
			f.Renamed = true
			f.OldPath = fields[1]
		case 'C':
			f.Copied = true
			f.OldPath = fields[1]
		}
		files = append(files, f)
	}
	return files
}

// countLines runs the line counter and indexes its rows by path.
func (c *Comparator) countLines(ctx context.Context, req linecount.Request) (map[string]linecount.Stats, error) {
	if c.counter == nil {
		return nil, ErrToolUnavailable
	}
	rows, err := linecount.ParseCSV(c.counter.Lines(ctx, req))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}
	stats := make(map[string]linecount.Stats, len(rows))
	for _, r := range rows {
		stats[strings.TrimPrefix(r.File, "./")] = r.Stats
	}
	return stats, nil
}

// fill attaches the raw diff and, unless the file was deleted, its content at toRef.
func (c *Comparator) fill(ctx context.Context, dir, fromRef, toRef string, f *ChangedFile) error {
	args := []string{"diff", fromRef, toRef, "--"}
	if f.OldPath != "" {
		args = append(args, f.OldPath)
	}
	args = append(args, f.Path)
	diff, err := c.exec.Capture(ctx, "Diff "+f.Path, runner.Git(dir, args...))
	if err != nil {
		return fmt.Errorf("diffing %s: %w", f.Path, err)
	}
	f.Diff = diff

	if f.Deleted {
		return nil
	}
	content, err := c.content.ReadAt(ctx, dir, toRef, f.Path)
	if err != nil {
		slog.Warn("reading file content failed", "path", f.Path, "ref", toRef, "error", err)
		return nil
	}
	f.Content = content
	return nil
}

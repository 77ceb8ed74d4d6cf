// Package explain turns changed files into model-written explanations and a
// project summary.
package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/drewdunne/difftale/internal/compare"
	"github.com/drewdunne/difftale/internal/linecount"
	"github.com/drewdunne/difftale/internal/llm"
	"github.com/drewdunne/difftale/internal/logging"
	"github.com/drewdunne/difftale/internal/metrics"
	"github.com/drewdunne/difftale/internal/prompt"
	"github.com/drewdunne/difftale/internal/runner"
)

// ExplainedFile is a changed file with its explanation. It carries no diff
// text or file content.
type ExplainedFile struct {
	Path        string          `json:"path"`
	OldPath     string          `json:"oldPath,omitempty"`
	Extension   string          `json:"extension"`
	Added       bool            `json:"added"`
	Deleted     bool            `json:"deleted"`
	Renamed     bool            `json:"renamed"`
	Copied      bool            `json:"copied"`
	Lines       linecount.Stats `json:"lines"`
	Explanation string          `json:"explanation"`
	Failed      bool            `json:"failed,omitempty"`
}

// Kind names the change, checking added, removed, renamed and copied in that order.
func (f ExplainedFile) Kind() string {
	return compare.ChangedFile{Added: f.Added, Deleted: f.Deleted, Renamed: f.Renamed, Copied: f.Copied}.Kind()
}

func strip(f compare.ChangedFile) ExplainedFile {
	return ExplainedFile{
		Path:      f.Path,
		OldPath:   f.OldPath,
		Extension: f.Extension,
		Added:     f.Added,
		Deleted:   f.Deleted,
		Renamed:   f.Renamed,
		Copied:    f.Copied,
		Lines:     f.Lines,
	}
}

// Explainer explains one file at a time.
type Explainer struct {
	llm       llm.Completer
	templates *prompt.Set
	model     string
	log       *runner.Log

	mu        sync.Mutex
	writer    *logging.Writer
	promptLog string
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithPromptLog appends every prompt and answer to path.
func WithPromptLog(w *logging.Writer, path string) Option {
	return func(e *Explainer) {
		e.writer = w
		e.promptLog = path
	}
}

// WithCommandLog records explanation failures in log.
func WithCommandLog(log *runner.Log) Option {
	return func(e *Explainer) {
		e.log = log
	}
}

// NewExplainer creates an Explainer sending prompts built from templates to model.
func NewExplainer(c llm.Completer, templates *prompt.Set, model string, opts ...Option) *Explainer {
	e := &Explainer{llm: c, templates: templates, model: model}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var errEmptyExplanation = errors.New("model returned an empty explanation")

// Explain returns f's explanation. Model failures become the explanation
// text; only a malformed template is returned as an error.
func (e *Explainer) Explain(ctx context.Context, f compare.ChangedFile) (ExplainedFile, error) {
	out := strip(f)
	metrics.FileExplained()

	tmpl := e.selectTemplate(f)
	if tmpl == "" {
		verb := "renamed"
		if !f.Renamed {
			verb = "copied"
		}
		out.Explanation = fmt.Sprintf("The file %s was %s from %s and is not explained.", f.Path, verb, f.OldPath)
		return out, nil
	}

	p, err := prompt.Render(tmpl, map[string]string{
		prompt.KeyLanguage:    f.Language(),
		prompt.KeyFileName:    f.Path,
		prompt.KeyOldFileName: f.OldPath,
		prompt.KeyFileContent: f.Content,
		prompt.KeyDiffs:       f.Diff,
	})
	if err != nil {
		return out, fmt.Errorf("building prompt for %s: %w", f.Path, err)
	}

	completion, err := e.llm.Complete(ctx, p, e.model)
	if err == nil && strings.TrimSpace(completion.Text) == "" {
		err = errEmptyExplanation
	}
	if err != nil {
		metrics.ExplanationFailed()
		slog.Warn("explanation failed", "path", f.Path, "error", err)
		out.Explanation = fmt.Sprintf("Error explaining %s: %s", f.Path, err)
		out.Failed = true
		if e.log != nil {
			e.log.Add(fmt.Sprintf("Explanation failed for %s: %s", f.Path, err))
		}
		return out, nil
	}

	out.Explanation = completion.Text
	e.appendPromptLog(f.Path, p, completion.Text)
	return out, nil
}

func (e *Explainer) selectTemplate(f compare.ChangedFile) string {
	switch {
	case f.Deleted:
		return e.templates.Removed
	case f.Added:
		return e.templates.Added
	case f.Renamed || f.Copied:
		return e.templates.Renamed
	default:
		return e.templates.Diff
	}
}

func (e *Explainer) appendPromptLog(path, p, answer string) {
	if e.writer == nil || e.promptLog == "" {
		return
	}
	entry := fmt.Sprintf("=== %s ===\n--- prompt ---\n%s\n--- explanation ---\n%s\n\n", path, p, answer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writer.AppendOrCreate(e.promptLog, []byte(entry)); err != nil {
		slog.Warn("writing prompt log failed", "path", e.promptLog, "error", err)
	}
}

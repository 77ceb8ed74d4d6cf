package explain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/drewdunne/difftale/internal/llm"
	"github.com/drewdunne/difftale/internal/metrics"
	"github.com/drewdunne/difftale/internal/prompt"
)

// SummaryError replaces the summary when the model call fails.
const SummaryError = "Error generating the summary."

const divider = "\n--------------------------------------------------\n"

// Summarizer produces the project-level summary.
type Summarizer struct {
	llm      llm.Completer
	template string
	model    string
}

// NewSummarizer creates a Summarizer using template.
func NewSummarizer(c llm.Completer, template, model string) *Summarizer {
	return &Summarizer{llm: c, template: template, model: model}
}

// Summarize asks the model for one summary of all explanations. A model
// failure yields SummaryError; only a malformed template is an error.
func (s *Summarizer) Summarize(ctx context.Context, files []ExplainedFile, languages []string, project string) (string, error) {
	p, err := prompt.Render(s.template, map[string]string{
		prompt.KeyDiffs:     DiffBlock(files),
		prompt.KeyLanguages: strings.Join(languages, ", "),
		prompt.KeyProject:   project,
	})
	if err != nil {
		return "", fmt.Errorf("building summary prompt: %w", err)
	}

	completion, err := s.llm.Complete(ctx, p, s.model)
	if err != nil {
		metrics.SummaryFailed()
		slog.Error("summary failed", "project", project, "error", err)
		return SummaryError, nil
	}
	return completion.Text, nil
}

// DiffBlock lists path, change kind and explanation per file.
func DiffBlock(files []ExplainedFile) string {
	blocks := make([]string, len(files))
	for i, f := range files {
		blocks[i] = fmt.Sprintf("File: %s\nChange: %s\nExplanation:\n%s", f.Path, f.Kind(), f.Explanation)
	}
	return strings.Join(blocks, divider)
}

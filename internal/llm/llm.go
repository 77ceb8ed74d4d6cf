// Package llm defines the completion capability used to explain diffs and
// answer chat questions.
package llm

import (
	"context"
	"strings"
)

// Strategy names a completion backend.
type Strategy string

const (
	StrategyOpenAI    Strategy = "openai"
	StrategyAnthropic Strategy = "anthropic"
)

// Completion is the model's answer together with the prompt that produced it.
type Completion struct {
	Text   string
	Prompt string
}

// Completer sends a single prompt to a model.
type Completer interface {
	Complete(ctx context.Context, prompt, model string) (Completion, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt, model string) (Completion, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, prompt, model string) (Completion, error) {
	return f(ctx, prompt, model)
}

// SupportsTemperature reports whether model accepts a temperature parameter.
// o1-mini rejects it.
func SupportsTemperature(model string) bool {
	return !strings.HasPrefix(model, "o1-mini")
}

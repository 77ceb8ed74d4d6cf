package llm

import (
	"fmt"
	"sync"

	"github.com/drewdunne/difftale/internal/config"
)

// Factory creates a Completer from configuration.
type Factory func(cfg config.LLMConfig) Completer

var (
	mu       sync.RWMutex
	registry = make(map[Strategy]Factory)
)

// Register registers a completer factory for a strategy.
func Register(strategy Strategy, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[strategy] = factory
}

// New creates a completer based on the configured strategy.
func New(cfg config.LLMConfig) (Completer, error) {
	mu.RLock()
	factory, ok := registry[Strategy(cfg.Strategy)]
	mu.RUnlock()
	if !ok {
		switch Strategy(cfg.Strategy) {
		case StrategyOpenAI, StrategyAnthropic:
			return nil, fmt.Errorf("%s strategy not registered (import _ \"github.com/drewdunne/difftale/internal/llm/%s\")", cfg.Strategy, cfg.Strategy)
		default:
			return nil, fmt.Errorf("unknown llm strategy: %s", cfg.Strategy)
		}
	}
	return factory(cfg), nil
}

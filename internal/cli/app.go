package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/drewdunne/difftale/internal/chat"
	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/docker"
	"github.com/drewdunne/difftale/internal/linecount"
	"github.com/drewdunne/difftale/internal/llm"
	"github.com/drewdunne/difftale/internal/logging"
	"github.com/drewdunne/difftale/internal/pipeline"
	"github.com/drewdunne/difftale/internal/prompt"
	"github.com/drewdunne/difftale/internal/registry"
	"github.com/drewdunne/difftale/internal/runner"
	"github.com/drewdunne/difftale/internal/workspace"

	// Completer backends register themselves.
	_ "github.com/drewdunne/difftale/internal/llm/anthropic"
	_ "github.com/drewdunne/difftale/internal/llm/openai"
)

const defaultConfigFile = "config.yaml"

// apiKeyEnv names the variable read when the config has no api_key.
var apiKeyEnv = map[string]string{
	string(llm.StrategyOpenAI):    "OPENAI_API_KEY",
	string(llm.StrategyAnthropic): "ANTHROPIC_API_KEY",
}

// app wires the packages together for one process.
type app struct {
	cfg        *config.Config
	workspaces *workspace.Registry
	docker     *docker.Client
}

func newApp() (*app, error) {
	loadEnv()

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(apiKeyEnv[cfg.LLM.Strategy])
	}

	level := cfg.Logging.Level
	if globalFlags.Verbose {
		level = "debug"
	}
	logging.Setup(os.Stderr, level, cfg.Logging.Format)

	return &app{cfg: cfg, workspaces: workspace.NewRegistry()}, nil
}

func loadEnv() {
	if globalFlags.EnvFile != "" {
		if err := godotenv.Load(globalFlags.EnvFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load env file %s: %v\n", globalFlags.EnvFile, err)
		}
		return
	}
	godotenv.Load(".env")
}

func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.Load(globalFlags.ConfigFile)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return config.Load(defaultConfigFile)
	}
	return config.DefaultConfig(), nil
}

// close removes every workspace the run created.
func (a *app) close() {
	if err := a.workspaces.CleanupAll(); err != nil {
		slog.Warn("removing workspaces failed", "error", err)
	}
	if a.docker != nil {
		a.docker.Close()
	}
}

func (a *app) completer() (llm.Completer, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, errors.New("no llm api key: set llm.api_key or " + apiKeyEnv[a.cfg.LLM.Strategy])
	}
	return llm.New(a.cfg.LLM)
}

// counters picks the line counter: a container when an image is configured
// and docker answers, the local binary otherwise.
func (a *app) counters() pipeline.CounterFactory {
	lc := a.cfg.LineCount
	if lc.Disabled {
		return nil
	}
	if lc.DockerImage != "" {
		client, err := docker.NewClient()
		if err == nil {
			a.docker = client
			return func(r *runner.Runner) linecount.Counter {
				return linecount.NewDockerCounter(client, lc.DockerImage, r.Log())
			}
		}
		slog.Warn("docker unavailable, counting lines locally", "error", err)
	}
	return func(r *runner.Runner) linecount.Counter {
		return linecount.NewLocalCounter(lc.Binary, r)
	}
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	templates, err := prompt.LoadSet(a.cfg.Prompts.Dir)
	if err != nil {
		return nil, err
	}
	c, err := a.completer()
	if err != nil {
		return nil, err
	}
	return pipeline.New(a.cfg, c, templates,
		pipeline.WithCounter(a.counters()),
		pipeline.WithProviders(registry.New(a.cfg)),
		pipeline.WithWorkspaces(a.workspaces, ""),
	), nil
}

func (a *app) chat() (*chat.Service, error) {
	templates, err := prompt.LoadChatSet(a.cfg.Prompts.Dir)
	if err != nil {
		return nil, err
	}
	c, err := a.completer()
	if err != nil {
		return nil, err
	}
	return chat.NewService(c, templates, a.cfg.LLM.Model, a.cfg.Output.Dir, runner.New(nil)), nil
}

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Output    OutputConfig    `yaml:"output"`
	Prompts   PromptsConfig   `yaml:"prompts"`
	LLM       LLMConfig       `yaml:"llm"`
	Git       GitConfig       `yaml:"git"`
	LineCount LineCountConfig `yaml:"linecount"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
}

// OutputConfig controls where reports and chat logs are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// PromptsConfig points at the directory holding the prompt template files.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// LLMConfig holds language model settings.
type LLMConfig struct {
	Strategy       string `yaml:"strategy"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	MaxRetries     int    `yaml:"max_retries"`
	Concurrency    int    `yaml:"concurrency"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GitConfig holds comparison defaults.
type GitConfig struct {
	UseSSH    bool     `yaml:"use_ssh"`
	Checkout  bool     `yaml:"checkout"`
	Languages []string `yaml:"languages"`
}

// LineCountConfig configures the external line-counting tool.
type LineCountConfig struct {
	Binary      string `yaml:"binary"`
	DockerImage string `yaml:"docker_image"`
	Disabled    bool   `yaml:"disabled"`
}

// ProvidersConfig holds git hosting provider configurations.
type ProvidersConfig struct {
	GitHub GitHubConfig `yaml:"github"`
	GitLab GitLabConfig `yaml:"gitlab"`
}

// GitHubConfig holds GitHub-specific settings.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// GitLabConfig holds GitLab-specific settings.
type GitLabConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 7000,
		},
		Logging: LoggingConfig{
			Dir:           "logs",
			RetentionDays: 30,
			Level:         "info",
			Format:        "text",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Prompts: PromptsConfig{
			Dir: "prompts",
		},
		LLM: LLMConfig{
			Strategy:       "openai",
			Model:          "gpt-4o",
			MaxRetries:     3,
			Concurrency:    5,
			TimeoutSeconds: 120,
		},
		Git: GitConfig{
			Checkout: true,
		},
		LineCount: LineCountConfig{
			Binary: "cloc",
		},
	}
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Substitute environment variables
	data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.LLM.Concurrency < 0 {
		return fmt.Errorf("llm concurrency must not be negative, got %d", c.LLM.Concurrency)
	}
	switch c.LLM.Strategy {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm strategy: %q", c.LLM.Strategy)
	}
	return nil
}

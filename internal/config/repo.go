package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RepoConfigFile is the repository-level config path, relative to the clone root.
const RepoConfigFile = ".difftale.yaml"

// ErrConfigNotFound indicates the repo config file doesn't exist.
var ErrConfigNotFound = errors.New("config not found")

// RepoConfig represents repository-level configuration.
type RepoConfig struct {
	Languages []string `yaml:"languages"`
	Model     string   `yaml:"model"`
}

// FileReader reads files from a repository working tree.
type FileReader interface {
	ReadFile(ctx context.Context, dir, path string) ([]byte, error)
}

// DirReader reads files straight from the local checkout.
type DirReader struct{}

// ReadFile implements FileReader.
func (DirReader) ReadFile(_ context.Context, dir, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	return data, err
}

// LoadRepoConfig loads the repo config from .difftale.yaml.
func LoadRepoConfig(ctx context.Context, reader FileReader, dir string) (*RepoConfig, error) {
	data, err := reader.ReadFile(ctx, dir, RepoConfigFile)
	if errors.Is(err, ErrConfigNotFound) {
		return &RepoConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading repo config: %w", err)
	}

	var cfg RepoConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing repo config: %w", err)
	}

	return &cfg, nil
}

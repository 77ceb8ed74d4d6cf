package config

// MergedConfig represents the settings used for one comparison.
type MergedConfig struct {
	Languages []string
	Model     string
	UseSSH    bool
	Checkout  bool
}

// MergeConfigs merges server config with repo config.
// Repo config values take precedence over server defaults.
func MergeConfigs(server *Config, repo *RepoConfig) *MergedConfig {
	merged := &MergedConfig{
		Model:    coalesce(repo.Model, server.LLM.Model),
		UseSSH:   server.Git.UseSSH,
		Checkout: server.Git.Checkout,
	}

	// Languages - a non-empty repo list replaces the server list
	if len(repo.Languages) > 0 {
		merged.Languages = append([]string(nil), repo.Languages...)
	} else {
		merged.Languages = append([]string(nil), server.Git.Languages...)
	}

	return merged
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

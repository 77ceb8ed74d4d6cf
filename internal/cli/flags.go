// Package cli implements the difftale command line.
package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	EnvFile    string
	Verbose    bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "", "config file (default is ./config.yaml when present)")
	cmd.PersistentFlags().StringVar(&globalFlags.EnvFile, "env-file", "", "path to .env file (optional)")
	cmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "debug logging")
}

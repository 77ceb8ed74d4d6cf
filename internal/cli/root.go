package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles every subcommand.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "difftale",
		Short: "Explain the differences between two git refs with a language model",
		Long: `difftale compares two tags, branches or commits of one or two repositories,
asks a language model to explain every changed file, summarizes the change set
and writes the result as a markdown report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(root)

	root.AddCommand(NewServeCommand())
	root.AddCommand(NewReportCommand())
	root.AddCommand(NewRefsCommand())
	root.AddCommand(NewChatCommand())
	root.AddCommand(NewVersionCommand())

	return root
}

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/drewdunne/difftale/internal/compare"
	"github.com/drewdunne/difftale/internal/gitremote"
	"github.com/drewdunne/difftale/internal/runner"
	"github.com/drewdunne/difftale/internal/workspace"
)

// RefsFlags holds refs command flag values
type RefsFlags struct {
	Repo    string
	Dir     string
	Remote  string
	Commits bool
}

var refsFlags RefsFlags

// NewRefsCommand creates the refs command
func NewRefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs",
		Short: "List the tags and branches available for comparison",
		RunE:  runRefs,
	}

	cmd.Flags().StringVar(&refsFlags.Repo, "repo", "", "repository URL, cloned to a temporary directory")
	cmd.Flags().StringVar(&refsFlags.Dir, "dir", "", "local clone whose remote is queried")
	cmd.Flags().StringVar(&refsFlags.Remote, "remote", compare.DefaultRemote, "remote name inside --dir")
	cmd.Flags().BoolVar(&refsFlags.Commits, "commits", false, "also list commits known for the remote")

	return cmd
}

func runRefs(cmd *cobra.Command, args []string) error {
	if refsFlags.Repo == "" && refsFlags.Dir == "" {
		return errors.New("one of --repo or --dir is required")
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	exec := runner.New(nil)
	dir, remote := refsFlags.Dir, refsFlags.Remote
	if dir == "" {
		// Sorting by creation date needs the objects locally.
		if dir, err = workspace.NewCloner("", exec, a.workspaces).Clone(ctx, refsFlags.Repo); err != nil {
			return err
		}
		remote = compare.DefaultRemote
	}

	lister := gitremote.NewLister(exec)
	out := cmd.OutOrStdout()

	tags, err := lister.Tags(ctx, dir, remote)
	if err != nil {
		return err
	}
	branches, err := lister.Branches(ctx, dir, remote)
	if err != nil {
		return err
	}

	printList(out, "Tags", tags, "tags/")
	printList(out, "Branches", branches, "")

	if refsFlags.Commits {
		commits, err := lister.Commits(ctx, dir, remote)
		if err != nil {
			return err
		}
		printList(out, "Commits", commits, "")
	}
	return nil
}

// printList prints names with the prefix report --from/--to expects.
func printList(out io.Writer, title string, names []string, prefix string) {
	fmt.Fprintf(out, "%s (%d):\n", title, len(names))
	for _, n := range names {
		fmt.Fprintf(out, "  %s%s\n", prefix, n)
	}
}

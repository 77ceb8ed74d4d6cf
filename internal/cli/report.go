package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/drewdunne/difftale/internal/compare"
	"github.com/drewdunne/difftale/internal/pipeline"
)

// ReportFlags holds report command flag values
type ReportFlags struct {
	Repo       string
	SecondRepo string
	From       string
	To         string
	Dir        string
	Lang       string
	Model      string
	SSH        bool
	NoCheckout bool
	NoProgress bool
}

var reportFlags ReportFlags

// NewReportCommand creates the report command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Explain the differences between two refs",
		Long: `Compare two tags, branches or commits, explain every changed file with
the configured language model and write a markdown report plus a log of the
commands that were run.

Tags are written as tags/<name>; 40-character hashes are used as commits and
anything else is a branch of the repository's remote.`,
		RunE: runReport,
	}

	cmd.Flags().StringVar(&reportFlags.Repo, "repo", "", "repository URL (required)")
	cmd.Flags().StringVar(&reportFlags.From, "from", "", "ref to compare from (required)")
	cmd.Flags().StringVar(&reportFlags.To, "to", "", "ref to compare with (default: the repository's default branch)")
	cmd.Flags().StringVar(&reportFlags.SecondRepo, "second-repo", "", "repository holding the --to ref, when it differs")
	cmd.Flags().StringVar(&reportFlags.Dir, "dir", "", "existing clone to use instead of a temporary one; its remotes are rewritten and keep any DIFFTALE_GIT_TOKEN in .git/config")
	cmd.Flags().StringVar(&reportFlags.Lang, "lang", "", "comma-separated languages to include")
	cmd.Flags().StringVar(&reportFlags.Model, "model", "", "model override")
	cmd.Flags().BoolVar(&reportFlags.SSH, "ssh", false, "fetch over ssh")
	cmd.Flags().BoolVar(&reportFlags.NoCheckout, "no-checkout", false, "leave the working tree alone")
	cmd.Flags().BoolVar(&reportFlags.NoProgress, "no-progress", false, "hide the progress bar")
	cmd.MarkFlagRequired("repo")
	cmd.MarkFlagRequired("from")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline()
	if err != nil {
		return err
	}

	var progress pipeline.Progress
	var bar *pb.ProgressBar
	if !reportFlags.NoProgress {
		var once sync.Once
		progress = func(done, total int) {
			once.Do(func() {
				bar = pb.New(total).SetWriter(os.Stderr).Start()
			})
			bar.SetCurrent(int64(done))
		}
	}

	res, err := p.Run(cmd.Context(), pipeline.Request{
		RepoURL:       reportFlags.Repo,
		SecondRepoURL: reportFlags.SecondRepo,
		From:          reportFlags.From,
		To:            reportFlags.To,
		Dir:           reportFlags.Dir,
		Languages:     compare.ParseLanguages([]string{reportFlags.Lang}),
		UseSSH:        reportFlags.SSH,
		NoCheckout:    reportFlags.NoCheckout,
		Model:         reportFlags.Model,
		Token:         os.Getenv("DIFFTALE_GIT_TOKEN"),
	}, progress)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Files explained: %d\n", len(res.Files))
	fmt.Fprintf(out, "Report:   %s\n", res.Artifact.MarkdownPath)
	fmt.Fprintf(out, "Commands: %s\n", res.Artifact.CommandsPath)
	return nil
}

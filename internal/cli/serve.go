package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/drewdunne/difftale/internal/gitremote"
	"github.com/drewdunne/difftale/internal/logging"
	"github.com/drewdunne/difftale/internal/runner"
	"github.com/drewdunne/difftale/internal/server"
)

const cleanupInterval = time.Hour

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP command server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline()
	if err != nil {
		return err
	}
	c, err := a.chat()
	if err != nil {
		return err
	}

	retention := a.cfg.Logging.RetentionDays
	sched := logging.NewCleanupScheduler(cleanupInterval,
		logging.NewCleaner(a.cfg.Output.Dir, retention, ".md", ".txt"),
		logging.NewCleaner(a.cfg.Logging.Dir, retention, ".log"),
	)

	srv := server.New(a.cfg,
		server.WithReporter(p),
		server.WithChat(c),
		server.WithRefLister(gitremote.NewLister(runner.New(nil))),
		server.WithCleanup(sched),
	)
	return srv.ListenAndServeWithShutdown()
}

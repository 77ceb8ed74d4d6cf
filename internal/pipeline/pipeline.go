// Package pipeline runs one comparison report from request to artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drewdunne/difftale/internal/compare"
	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/explain"
	"github.com/drewdunne/difftale/internal/gitremote"
	"github.com/drewdunne/difftale/internal/linecount"
	"github.com/drewdunne/difftale/internal/llm"
	"github.com/drewdunne/difftale/internal/logging"
	"github.com/drewdunne/difftale/internal/metrics"
	"github.com/drewdunne/difftale/internal/prompt"
	"github.com/drewdunne/difftale/internal/registry"
	"github.com/drewdunne/difftale/internal/report"
	"github.com/drewdunne/difftale/internal/runner"
	"github.com/drewdunne/difftale/internal/workspace"
)

// Request is one report request.
type Request struct {
	RepoURL       string   `json:"repoUrl"`
	SecondRepoURL string   `json:"secondRepoUrl,omitempty"`
	From          string   `json:"from"`
	To            string   `json:"to,omitempty"`
	Dir           string   `json:"dir,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	UseSSH        bool     `json:"useSsh,omitempty"`
	NoCheckout    bool     `json:"noCheckout,omitempty"`
	Model         string   `json:"model,omitempty"`
	Username      string   `json:"username,omitempty"`
	Token         string   `json:"token,omitempty"`

	// RunID names the prompt log; a uuid is generated when empty.
	RunID string `json:"-"`
}

// Validate reports missing mandatory fields.
func (r Request) Validate() error {
	if r.RepoURL == "" {
		return errors.New("repoUrl is required")
	}
	if r.From == "" {
		return errors.New("from is required")
	}
	return nil
}

func (r Request) credentials() *compare.Credentials {
	if r.Token == "" {
		return nil
	}
	return &compare.Credentials{Username: r.Username, Token: r.Token}
}

// Result is what a finished run hands back.
type Result struct {
	Artifact *report.Artifact       `json:"artifact"`
	Files    []explain.ExplainedFile `json:"files"`
	Summary  string                 `json:"summary"`
}

// Progress is called after each file explanation completes. Calls never
// overlap and done grows by one on every call.
type Progress func(done, total int)

// CounterFactory builds the line counter for one run, recording into r.
type CounterFactory func(r *runner.Runner) linecount.Counter

// Pipeline holds the long-lived collaborators of report runs.
type Pipeline struct {
	cfg        *config.Config
	llm        llm.Completer
	templates  *prompt.Set
	counters   CounterFactory
	providers  *registry.Registry
	workspaces *workspace.Registry
	cloneDir   string
	promptLogs *logging.Writer
	reports    *report.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCounter sets how line counters are built. Without it every run uses
// the name-only diff.
func WithCounter(f CounterFactory) Option {
	return func(p *Pipeline) {
		p.counters = f
	}
}

// WithProviders enables default branch lookup, commit counts and compare links.
func WithProviders(r *registry.Registry) Option {
	return func(p *Pipeline) {
		p.providers = r
	}
}

// WithWorkspaces lets requests without a directory clone into baseDir.
func WithWorkspaces(r *workspace.Registry, baseDir string) Option {
	return func(p *Pipeline) {
		p.workspaces = r
		p.cloneDir = baseDir
	}
}

// New creates a Pipeline writing reports to cfg.Output.Dir and prompt logs
// under cfg.Logging.Dir.
func New(cfg *config.Config, c llm.Completer, templates *prompt.Set, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		llm:        c,
		templates:  templates,
		promptLogs: logging.NewWriter(cfg.Logging.Dir),
		reports:    report.NewWriter(cfg.Output.Dir),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run generates one report. Nothing is written once ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, req Request, progress Progress) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	start := time.Now()
	res, err := p.run(ctx, req, progress)
	switch {
	case err != nil && ctx.Err() != nil:
		metrics.ReportCancelled()
		slog.Info("report cancelled", "run_id", req.RunID)
		return nil, ctx.Err()
	case err != nil:
		metrics.ReportFailed()
		slog.Error("report failed", "run_id", req.RunID, "error", err)
		return nil, err
	}
	metrics.ReportGenerated()
	slog.Info("report generated",
		"run_id", req.RunID,
		"files", len(res.Files),
		"path", res.Artifact.MarkdownPath,
		"duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, progress Progress) (*Result, error) {
	cmdLog := runner.NewLog()
	exec := runner.New(cmdLog)
	useSSH := req.UseSSH || p.cfg.Git.UseSSH

	dir := req.Dir
	if dir == "" {
		cloned, err := p.clone(ctx, exec, req, useSSH)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := p.workspaces.Release(cloned); err != nil {
				slog.Warn("removing workspace failed", "dir", cloned, "error", err)
			}
		}()
		dir = cloned
	}

	repoCfg, err := config.LoadRepoConfig(ctx, config.DirReader{}, dir)
	if err != nil {
		return nil, err
	}
	merged := config.MergeConfigs(p.cfg, repoCfg)
	if len(req.Languages) > 0 {
		merged.Languages = req.Languages
	}
	if req.Model != "" {
		merged.Model = req.Model
	}

	toRef := req.To
	if toRef == "" {
		toRef, err = p.defaultBranch(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	from, to := compare.NewEndpoints(req.RepoURL, req.From, req.SecondRepoURL, toRef)

	var counter linecount.Counter
	if p.counters != nil {
		counter = p.counters(exec)
	}
	files, err := compare.NewComparator(exec, counter).Compare(ctx, compare.Params{
		Dir:         dir,
		RepoURL:     req.RepoURL,
		From:        from,
		To:          to,
		Credentials: req.credentials(),
		UseSSH:      useSSH,
		Languages:   merged.Languages,
		Checkout:    merged.Checkout && !req.NoCheckout,
	})
	if err != nil {
		return nil, fmt.Errorf("comparing %s with %s: %w", from.Ref, to.Ref, err)
	}

	project := projectName(req.RepoURL, dir)
	slog.Info("comparison complete", "run_id", req.RunID, "project", project, "files", len(files))

	opts := []explain.Option{explain.WithCommandLog(cmdLog)}
	logPath, err := p.promptLogs.Create(logging.LogEntry{
		RunID:     req.RunID,
		Project:   project,
		Kind:      "explanations",
		Timestamp: time.Now(),
	})
	if err != nil {
		slog.Warn("prompt log unavailable", "error", err)
	} else {
		opts = append(opts, explain.WithPromptLog(p.promptLogs, logPath))
	}

	orch := explain.NewOrchestrator(explain.NewExplainer(p.llm, p.templates, merged.Model, opts...), p.cfg.LLM.Concurrency)
	if progress != nil {
		var (
			mu   sync.Mutex
			done int
		)
		total := len(files)
		orch.OnDone(func(explain.ExplainedFile) {
			mu.Lock()
			defer mu.Unlock()
			done++
			progress(done, total)
		})
	}
	explained, err := orch.ExplainAll(ctx, files)
	if err != nil {
		return nil, err
	}

	summary, err := explain.NewSummarizer(p.llm, p.templates.Summary, merged.Model).
		Summarize(ctx, explained, merged.Languages, project)
	if err != nil {
		return nil, err
	}

	in := report.Input{
		Project:   project,
		From:      from.DisplayRef(),
		To:        to.DisplayRef(),
		Languages: merged.Languages,
		Files:     explained,
		Summary:   summary,
	}
	if p.providers != nil {
		in.CompareURL = p.providers.CompareURL(req.RepoURL, in.From, in.To)
		if req.SecondRepoURL == "" || req.SecondRepoURL == req.RepoURL {
			if cmp, err := p.providers.Compare(ctx, req.RepoURL, in.From, in.To); err != nil {
				slog.Debug("commit count unavailable", "error", err)
			} else {
				in.Commits = cmp.TotalCommits
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in.Commands = cmdLog.Entries()
	artifact, err := p.reports.Write(in)
	if err != nil {
		return nil, err
	}
	return &Result{Artifact: artifact, Files: explained, Summary: summary}, nil
}

func (p *Pipeline) clone(ctx context.Context, exec runner.Executor, req Request, useSSH bool) (string, error) {
	if p.workspaces == nil {
		return "", errors.New("dir is required when cloning is disabled")
	}
	cloneURL := req.RepoURL
	var err error
	if useSSH {
		cloneURL, err = gitremote.ToSSH(cloneURL)
	} else if c := req.credentials(); c != nil {
		cloneURL, err = gitremote.WithCredentials(cloneURL, c.Username, c.Token)
	}
	if err != nil {
		return "", err
	}
	return workspace.NewCloner(p.cloneDir, exec, p.workspaces).Clone(ctx, cloneURL)
}

func (p *Pipeline) defaultBranch(ctx context.Context, req Request) (string, error) {
	if p.providers == nil {
		return "", errors.New("to is required")
	}
	repoURL := req.RepoURL
	if req.SecondRepoURL != "" {
		repoURL = req.SecondRepoURL
	}
	branch, err := p.providers.DefaultBranch(ctx, repoURL)
	if err != nil {
		return "", fmt.Errorf("resolving default branch: %w", err)
	}
	return branch, nil
}

// projectName labels artifacts after the repository, or the directory for
// URLs without a usable last segment.
func projectName(repoURL, dir string) string {
	if name := gitremote.RepoName(repoURL); name != "" {
		return name
	}
	return filepath.Base(dir)
}

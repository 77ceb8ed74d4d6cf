// Package server exposes report generation and chat over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"github.com/drewdunne/difftale/internal/chat"
	"github.com/drewdunne/difftale/internal/compare"
	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/logging"
	"github.com/drewdunne/difftale/internal/metrics"
	"github.com/drewdunne/difftale/internal/pipeline"
)

// maxBodyBytes bounds command request bodies.
const maxBodyBytes = 1 << 20

// Reporter generates comparison reports.
type Reporter interface {
	Run(ctx context.Context, req pipeline.Request, progress pipeline.Progress) (*pipeline.Result, error)
}

// Chatter answers questions.
type Chatter interface {
	Ask(ctx context.Context, question, extra string) (*chat.Answer, error)
	AskAboutFiles(ctx context.Context, projectDir, question string) (*chat.Answer, error)
}

// RefLister lists the refs a remote offers.
type RefLister interface {
	Tags(ctx context.Context, dir, remote string) ([]string, error)
	Branches(ctx context.Context, dir, remote string) ([]string, error)
}

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// CommandResponse is the reply to every command.
type CommandResponse struct {
	Action Action `json:"action,omitempty"`
	RunID  string `json:"runId,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RefsResult is the list-refs payload.
type RefsResult struct {
	Tags     []string `json:"tags"`
	Branches []string `json:"branches"`
}

// Server is the HTTP server for difftale.
type Server struct {
	cfg             *config.Config
	mux             *http.ServeMux
	mu              sync.Mutex
	live            *listening
	ready           chan struct{} // closed when server is ready to accept connections
	dockerAvailable bool

	reporter Reporter
	chat     Chatter
	refs     RefLister
	cleanup  *logging.CleanupScheduler
	runs     *runSet
}

// Option configures a Server.
type Option func(*Server)

// WithReporter enables the compare action.
func WithReporter(r Reporter) Option {
	return func(s *Server) { s.reporter = r }
}

// WithChat enables the chat actions.
func WithChat(c Chatter) Option {
	return func(s *Server) { s.chat = c }
}

// WithRefLister enables the list-refs action.
func WithRefLister(l RefLister) Option {
	return func(s *Server) { s.refs = l }
}

// WithCleanup runs sched while the server is listening.
func WithCleanup(sched *logging.CleanupScheduler) Option {
	return func(s *Server) { s.cleanup = sched }
}

// New creates a new Server with the given config.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:   cfg,
		mux:   http.NewServeMux(),
		ready: make(chan struct{}),
		runs:  newRunSet(),
	}
	if cfg.LineCount.DockerImage != "" {
		s.dockerAvailable = checkDockerAvailable()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Ready returns a channel that is closed when the server is ready to accept connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// checkDockerAvailable checks if Docker is available on the system.
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up the HTTP routes.
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.HandleFunc("POST /api/command", s.handleCommand)
}

// handleHealth responds with server health status. Docker only matters when
// line counting runs in a container.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]interface{}{
		"active_runs": s.runs.len(),
	}

	status := "ok"
	if s.cfg.LineCount.DockerImage != "" {
		checks["docker"] = s.dockerAvailable
		if !s.dockerAvailable {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: status, Checks: checks})
}

// handleMetrics responds with current operational metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Get())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CommandResponse{Error: err.Error()})
		return
	}

	cmd, err := DecodeCommand(body)
	if err != nil {
		slog.Warn("rejected command", "error", err)
		writeJSON(w, http.StatusBadRequest, CommandResponse{Error: err.Error()})
		return
	}
	metrics.CommandReceived()
	slog.Info("command received", "action", cmd.Action)

	switch cmd.Action {
	case ActionCompare:
		s.handleCompare(w, r, cmd.Compare)
	case ActionChat, ActionChatAboutFiles:
		s.handleChat(w, r, cmd.Action, cmd.Chat)
	case ActionListRefs:
		s.handleListRefs(w, r, cmd.ListRefs)
	case ActionStop:
		s.handleStop(w, cmd.Stop)
	}
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request, c *CompareCommand) {
	if s.reporter == nil {
		unavailable(w, ActionCompare)
		return
	}

	runID := c.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx, done, err := s.runs.start(r.Context(), runID)
	if err != nil {
		writeJSON(w, http.StatusConflict, CommandResponse{Action: ActionCompare, RunID: runID, Error: err.Error()})
		return
	}
	defer done()

	req := c.Request
	req.RunID = runID
	res, err := s.reporter.Run(ctx, req, func(n, total int) {
		slog.Debug("explanation progress", "run_id", runID, "done", n, "total", total)
	})
	switch {
	case err != nil && ctx.Err() != nil:
		writeJSON(w, http.StatusConflict, CommandResponse{Action: ActionCompare, RunID: runID, Error: "run stopped"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, CommandResponse{Action: ActionCompare, RunID: runID, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, CommandResponse{Action: ActionCompare, RunID: runID, Result: res})
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, action Action, c *ChatCommand) {
	if s.chat == nil {
		unavailable(w, action)
		return
	}

	var (
		ans *chat.Answer
		err error
	)
	if action == ActionChatAboutFiles {
		ans, err = s.chat.AskAboutFiles(r.Context(), c.Dir, c.Question)
	} else {
		ans, err = s.chat.Ask(r.Context(), c.Question, c.Context)
	}
	if err != nil {
		slog.Error("chat failed", "action", action, "error", err)
		writeJSON(w, http.StatusInternalServerError, CommandResponse{Action: action, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Action: action, Result: ans})
}

func (s *Server) handleListRefs(w http.ResponseWriter, r *http.Request, c *ListRefsCommand) {
	if s.refs == nil {
		unavailable(w, ActionListRefs)
		return
	}
	remote := c.Remote
	if remote == "" {
		remote = compare.DefaultRemote
	}

	tags, err := s.refs.Tags(r.Context(), c.Dir, remote)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, CommandResponse{Action: ActionListRefs, Error: err.Error()})
		return
	}
	branches, err := s.refs.Branches(r.Context(), c.Dir, remote)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, CommandResponse{Action: ActionListRefs, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Action: ActionListRefs, Result: RefsResult{Tags: tags, Branches: branches}})
}

func (s *Server) handleStop(w http.ResponseWriter, c *StopCommand) {
	if !s.runs.stop(c.RunID) {
		writeJSON(w, http.StatusNotFound, CommandResponse{Action: ActionStop, RunID: c.RunID, Error: "no such run"})
		return
	}
	slog.Info("run stopped", "run_id", c.RunID)
	writeJSON(w, http.StatusOK, CommandResponse{Action: ActionStop, RunID: c.RunID})
}

func unavailable(w http.ResponseWriter, action Action) {
	writeJSON(w, http.StatusServiceUnavailable, CommandResponse{Action: action, Error: string(action) + " is not enabled"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

// Package chat answers free-form questions, optionally grounded in files of
// a project checkout.
package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/drewdunne/difftale/internal/llm"
	"github.com/drewdunne/difftale/internal/logging"
	"github.com/drewdunne/difftale/internal/prompt"
	"github.com/drewdunne/difftale/internal/runner"
)

// Log file names inside the output directory.
const (
	ChatFile              = "chat.txt"
	ChatLogFile           = "chat-log.txt"
	ChatAboutFilesFile    = "chat-about-files.txt"
	ChatAboutFilesLogFile = "chat-about-files-log.txt"
)

// maxFileBytes caps how much of each selected file goes into the prompt.
const maxFileBytes = 100 * 1024

// Answer is the model's reply and, for file questions, the files it used.
type Answer struct {
	Text  string   `json:"text"`
	Files []string `json:"files,omitempty"`
}

// Service answers chat questions.
type Service struct {
	llm       llm.Completer
	templates *prompt.ChatSet
	model     string
	exec      runner.Executor
	logs      *logging.Writer
}

// NewService creates a Service writing its transcripts under outDir.
func NewService(c llm.Completer, templates *prompt.ChatSet, model, outDir string, exec runner.Executor) *Service {
	return &Service{
		llm:       c,
		templates: templates,
		model:     model,
		exec:      exec,
		logs:      logging.NewWriter(outDir),
	}
}

// Ask answers question, with optional extra context such as a report.
func (s *Service) Ask(ctx context.Context, question, extra string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	p, err := prompt.Render(s.templates.Chat, map[string]string{
		prompt.KeyQuestion: question,
		prompt.KeyContext:  extra,
	})
	if err != nil {
		return nil, err
	}

	c, err := s.llm.Complete(ctx, p, s.model)
	if err != nil {
		return nil, fmt.Errorf("asking model: %w", err)
	}

	s.transcript(ChatFile, ChatLogFile, question, p, c.Text)
	return &Answer{Text: c.Text}, nil
}

// AskAboutFiles lets the model pick the tracked files relevant to question,
// then answers using their contents.
func (s *Service) AskAboutFiles(ctx context.Context, projectDir, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	if projectDir == "" {
		return nil, fmt.Errorf("project directory is required")
	}

	out, err := s.exec.Capture(ctx, "List tracked files", runner.Git(projectDir, "ls-files"))
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	tracked := splitLines(out)

	p, err := prompt.Render(s.templates.IdentifyFiles, map[string]string{
		prompt.KeyQuestion: question,
		prompt.KeyFiles:    strings.Join(tracked, "\n"),
	})
	if err != nil {
		return nil, err
	}
	picked, err := s.llm.Complete(ctx, p, s.model)
	if err != nil {
		return nil, fmt.Errorf("identifying files: %w", err)
	}
	files := selectFiles(picked.Text, tracked)
	slog.Info("files selected for question", "count", len(files))

	var blocks []string
	for _, f := range files {
		content, err := readCapped(filepath.Join(projectDir, f))
		if err != nil {
			slog.Warn("reading file for chat failed", "path", f, "error", err)
			continue
		}
		blocks = append(blocks, fmt.Sprintf("File: %s\n```\n%s\n```", f, content))
	}

	p, err = prompt.Render(s.templates.ChatAboutFiles, map[string]string{
		prompt.KeyQuestion: question,
		prompt.KeyFiles:    strings.Join(blocks, "\n\n"),
	})
	if err != nil {
		return nil, err
	}
	c, err := s.llm.Complete(ctx, p, s.model)
	if err != nil {
		return nil, fmt.Errorf("asking model: %w", err)
	}

	s.transcript(ChatAboutFilesFile, ChatAboutFilesLogFile, question, p, c.Text)
	return &Answer{Text: c.Text, Files: files}, nil
}

// transcript appends the exchange to the short and the full log. Write
// failures are logged and otherwise ignored.
func (s *Service) transcript(shortName, fullName, question, p, answer string) {
	ts := time.Now().Format(time.RFC3339)
	short := fmt.Sprintf("[%s]\nQ: %s\nA: %s\n\n", ts, question, answer)
	full := fmt.Sprintf("[%s]\n--- prompt ---\n%s\n--- answer ---\n%s\n\n", ts, p, answer)

	for name, data := range map[string]string{shortName: short, fullName: full} {
		path := filepath.Join(s.logs.Dir(), name)
		if err := s.logs.AppendOrCreate(path, []byte(data)); err != nil {
			slog.Warn("writing chat log failed", "path", path, "error", err)
		}
	}
}

var listMarker = regexp.MustCompile(`^(?:[-*]|\d+[.)])\s+`)

// selectFiles keeps the lines of reply that name a tracked file, in order
// and without duplicates.
func selectFiles(reply string, tracked []string) []string {
	known := make(map[string]bool, len(tracked))
	for _, f := range tracked {
		known[f] = true
	}
	seen := make(map[string]bool)
	var files []string
	for _, line := range splitLines(reply) {
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(line, "`\"' ")
		if known[line] && !seen[line] {
			seen[line] = true
			files = append(files, line)
		}
	}
	return files
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func readCapped(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

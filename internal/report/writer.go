// Package report writes the markdown comparison report and its command log.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drewdunne/difftale/internal/explain"
)

// TimestampFormat is used in artifact names.
const TimestampFormat = "20060102150405"

// Artifact is the pair of files one run produces.
type Artifact struct {
	MarkdownPath string `json:"markdownPath"`
	CommandsPath string `json:"commandsPath"`
}

// Input is everything the report shows.
type Input struct {
	Project    string
	From       string
	To         string
	CompareURL string
	Commits    int // 0 when unknown
	Languages  []string
	Files      []explain.ExplainedFile
	Summary    string
	Commands   []string
}

// Writer writes reports under a directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write renders in and writes both artifacts. Existing files are never
// overwritten; a numeric suffix is added instead.
func (w *Writer) Write(in Input) (*Artifact, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	project := safeName(in.Project)
	ts := w.now().Format(TimestampFormat)

	mdPath, err := writeNew(w.dir, fmt.Sprintf("%s-compare-with-explanations-%s", project, ts), ".md", []byte(Markdown(in)))
	if err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	commands := strings.Join(in.Commands, "\n")
	if commands != "" {
		commands += "\n"
	}
	cmdPath, err := writeNew(w.dir, fmt.Sprintf("%s-executed-commands-%s", project, ts), ".txt", []byte(commands))
	if err != nil {
		return nil, fmt.Errorf("writing command log: %w", err)
	}

	return &Artifact{MarkdownPath: mdPath, CommandsPath: cmdPath}, nil
}

// writeNew creates base+ext exclusively, trying base-2, base-3, ... on collision.
func writeNew(dir, base, ext string, data []byte) (string, error) {
	for n := 1; ; n++ {
		name := base + ext
		if n > 1 {
			name = fmt.Sprintf("%s-%d%s", base, n, ext)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "project"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '-'
		}
		return r
	}, s)
}

package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogEntry identifies one run log.
type LogEntry struct {
	RunID     string
	Project   string
	Kind      string
	Timestamp time.Time
}

func (e LogEntry) fileName() string {
	return fmt.Sprintf("%s-%s-%s.log", e.Timestamp.Format("2006-01-02T15-04-05"), e.Kind, e.RunID)
}

// Writer appends plain-text logs under a base directory, one subdirectory
// per project.
type Writer struct {
	baseDir string
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Dir returns the base directory.
func (w *Writer) Dir() string {
	return w.baseDir
}

// Create makes an empty file at baseDir/<project>/<timestamp>-<kind>-<run>.log
// and returns its path. An existing file with that name is an error.
func (w *Writer) Create(entry LogEntry) (string, error) {
	dir := filepath.Join(w.baseDir, entry.Project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}

	path := filepath.Join(dir, entry.fileName())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("creating log file: %w", err)
	}
	return path, f.Close()
}

// Append adds data to an existing file.
func (w *Writer) Append(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// AppendOrCreate is Append, creating the file and its directory when missing.
func (w *Writer) AppendOrCreate(path string, data []byte) error {
	err := w.Append(path, data)
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

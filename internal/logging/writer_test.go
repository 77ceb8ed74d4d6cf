package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriter_Create(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(base)
	entry := LogEntry{
		RunID:     "abc",
		Project:   "widgets",
		Kind:      "explanations",
		Timestamp: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
	}

	path, err := w.Create(entry)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	want := filepath.Join(base, "widgets", "2026-01-15T10-30-00-explanations-abc.log")
	if path != want {
		t.Errorf("Create() = %q, want %q", path, want)
	}
	if info, err := os.Stat(path); err != nil || info.Size() != 0 {
		t.Errorf("log file should exist and be empty, stat = %v, %v", info, err)
	}

	if _, err := w.Create(entry); err == nil {
		t.Error("Create() with the same entry should not overwrite an existing log")
	}
}

func TestWriter_Append(t *testing.T) {
	w := NewWriter(t.TempDir())
	path, err := w.Create(LogEntry{RunID: "r", Project: "p", Kind: "k", Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, line := range []string{"one\n", "two\n"} {
		if err := w.Append(path, []byte(line)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if got, _ := os.ReadFile(path); string(got) != "one\ntwo\n" {
		t.Errorf("content = %q, want %q", got, "one\ntwo\n")
	}

	if err := w.Append(filepath.Join(t.TempDir(), "missing.log"), []byte("x")); err == nil {
		t.Error("Append() to a missing file should fail")
	}
}

func TestWriter_AppendOrCreate(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(base)
	path := filepath.Join(w.Dir(), "nested", "chat-log.txt")

	for _, chunk := range []string{"first\n", "second\n"} {
		if err := w.AppendOrCreate(path, []byte(chunk)); err != nil {
			t.Fatalf("AppendOrCreate() error = %v", err)
		}
	}
	if got, _ := os.ReadFile(path); string(got) != "first\nsecond\n" {
		t.Errorf("content = %q, want %q", got, "first\nsecond\n")
	}
}

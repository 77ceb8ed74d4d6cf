package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeAged creates path with a modification time daysOld days in the past.
func writeAged(t *testing.T, path string, daysOld int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	when := time.Now().AddDate(0, 0, -daysOld)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCleanup(t *testing.T) {
	tests := []struct {
		name      string
		retention int
		exts      []string
		files     map[string]int // relative path -> age in days
		wantGone  []string
		wantKept  []string
	}{
		{
			name:      "old report removed, recent kept",
			retention: 30,
			files: map[string]int{
				"widgets-compare-with-explanations-20200101000000.md": 60,
				"widgets-executed-commands-20200101000000.txt":        60,
				"widgets-compare-with-explanations-20991231000000.md": 1,
			},
			wantGone: []string{
				"widgets-compare-with-explanations-20200101000000.md",
				"widgets-executed-commands-20200101000000.txt",
			},
			wantKept: []string{"widgets-compare-with-explanations-20991231000000.md"},
		},
		{
			name:      "retention boundary",
			retention: 7,
			files:     map[string]int{"a.log": 10, "b.log": 3},
			wantGone:  []string{"a.log"},
			wantKept:  []string{"b.log"},
		},
		{
			name:      "extension filter keeps chat transcripts",
			retention: 30,
			exts:      []string{".md"},
			files:     map[string]int{"old.md": 90, "chat.txt": 90},
			wantGone:  []string{"old.md"},
			wantKept:  []string{"chat.txt"},
		},
		{
			name:      "prompt logs in project directories",
			retention: 30,
			exts:      []string{".log"},
			files: map[string]int{
				"widgets/2020-01-01T00-00-00-explanations-r1.log": 45,
				"gadgets/2020-01-01T00-00-00-explanations-r2.log": 45,
			},
			wantGone: []string{
				"widgets/2020-01-01T00-00-00-explanations-r1.log",
				"gadgets/2020-01-01T00-00-00-explanations-r2.log",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			for rel, age := range tt.files {
				writeAged(t, filepath.Join(base, rel), age)
			}

			deleted, err := NewCleaner(base, tt.retention, tt.exts...).Cleanup()
			if err != nil {
				t.Fatalf("Cleanup() error = %v", err)
			}
			if deleted != len(tt.wantGone) {
				t.Errorf("deleted = %d, want %d", deleted, len(tt.wantGone))
			}
			for _, rel := range tt.wantGone {
				if exists(filepath.Join(base, rel)) {
					t.Errorf("%s should be deleted", rel)
				}
			}
			for _, rel := range tt.wantKept {
				if !exists(filepath.Join(base, rel)) {
					t.Errorf("%s should be kept", rel)
				}
			}
		})
	}
}

func TestCleanup_RemovesEmptiedDirectories(t *testing.T) {
	base := t.TempDir()
	writeAged(t, filepath.Join(base, "widgets", "nested", "old.log"), 60)
	writeAged(t, filepath.Join(base, "gadgets", "new.log"), 0)

	if _, err := NewCleaner(base, 30).Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if exists(filepath.Join(base, "widgets")) {
		t.Error("directory emptied by cleanup should be removed")
	}
	if !exists(filepath.Join(base, "gadgets")) {
		t.Error("directory with recent files should remain")
	}
	if !exists(base) {
		t.Error("base directory must never be removed")
	}
}

func TestCleanup_MissingOrEmptyBase(t *testing.T) {
	for _, base := range []string{t.TempDir(), filepath.Join(t.TempDir(), "missing")} {
		deleted, err := NewCleaner(base, 30).Cleanup()
		if err != nil {
			t.Errorf("Cleanup(%s) error = %v, want nil", base, err)
		}
		if deleted != 0 {
			t.Errorf("Cleanup(%s) deleted = %d, want 0", base, deleted)
		}
	}
}

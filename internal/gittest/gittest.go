// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireGit skips the test when the git binary is missing.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// Run executes git in dir and returns trimmed stdout, failing the test on error.
func Run(t testing.TB, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@test.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// Init creates a repository in a new temp dir with main as the initial branch.
func Init(t testing.TB) string {
	t.Helper()
	RequireGit(t)
	dir := t.TempDir()
	Run(t, dir, "init", "-q")
	Run(t, dir, "checkout", "-q", "-b", "main")
	Run(t, dir, "config", "user.email", "test@test.com")
	Run(t, dir, "config", "user.name", "Test")
	Run(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

// Commit writes files (nil content deletes) and commits them, returning the hash.
func Commit(t testing.TB, dir string, files map[string]*string, msg string) string {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if content == nil {
			Run(t, dir, "rm", "-q", name)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(*content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		Run(t, dir, "add", name)
	}
	Run(t, dir, "commit", "-q", "--allow-empty", "-m", msg)
	return Run(t, dir, "rev-parse", "HEAD")
}

// Str is a convenience for Commit file maps.
func Str(s string) *string { return &s }

// Clone clones src into a new temp dir.
func Clone(t testing.TB, src string) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), "clone")
	Run(t, filepath.Dir(dst), "clone", "-q", src, dst)
	Run(t, dst, "config", "user.email", "test@test.com")
	Run(t, dst, "config", "user.name", "Test")
	return dst
}

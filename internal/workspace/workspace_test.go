package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drewdunne/difftale/internal/gittest"
	"github.com/drewdunne/difftale/internal/runner"
)

func TestRegistry_CleanupAll(t *testing.T) {
	base := t.TempDir()
	r := NewRegistry()

	var dirs []string
	for _, name := range []string{"a", "b"} {
		dir := filepath.Join(base, name)
		if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
			t.Fatal(err)
		}
		r.Register(dir)
		dirs = append(dirs, dir)
	}
	r.Register(dirs[0])

	if got := len(r.Paths()); got != 2 {
		t.Errorf("len(Paths()) = %d, want 2", got)
	}

	if err := r.CleanupAll(); err != nil {
		t.Fatalf("CleanupAll() error = %v", err)
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("%s still exists", dir)
		}
	}
	if len(r.Paths()) != 0 {
		t.Error("registry should be empty after CleanupAll")
	}
}

func TestRegistry_Release(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "w")
	os.MkdirAll(dir, 0755)
	r := NewRegistry()
	r.Register(dir)

	if err := r.Release(dir); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if len(r.Paths()) != 0 {
		t.Error("Release should unregister the path")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Release should remove the directory")
	}
}

func TestCloner_Clone(t *testing.T) {
	src := gittest.Init(t)
	gittest.Commit(t, src, map[string]*string{"README.md": gittest.Str("hello\n")}, "init")

	reg := NewRegistry()
	c := NewCloner(t.TempDir(), runner.New(nil), reg)

	dir, err := c.Clone(context.Background(), src)
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(dir), "difftale-") {
		t.Errorf("dir = %q, want difftale- prefix", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
		t.Errorf("README.md missing from clone: %v", err)
	}
	if paths := reg.Paths(); len(paths) != 1 || paths[0] != dir {
		t.Errorf("Paths() = %v, want [%s]", paths, dir)
	}

	other, err := c.Clone(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if other == dir {
		t.Error("each clone should get its own directory")
	}
}

func TestCloner_MissingURL(t *testing.T) {
	c := NewCloner(t.TempDir(), runner.New(nil), NewRegistry())
	if _, err := c.Clone(context.Background(), ""); !errors.Is(err, ErrMissingCloneURL) {
		t.Errorf("Clone() error = %v, want ErrMissingCloneURL", err)
	}
}

func TestCloner_FailedCloneIsRegistered(t *testing.T) {
	gittest.RequireGit(t)
	reg := NewRegistry()
	c := NewCloner(t.TempDir(), runner.New(nil), reg)

	if _, err := c.Clone(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("Clone() should fail for a missing source")
	}
	if len(reg.Paths()) != 1 {
		t.Errorf("failed clone should still be registered, got %v", reg.Paths())
	}
}

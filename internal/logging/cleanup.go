package logging

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Cleaner removes report artifacts and logs older than a retention period.
type Cleaner struct {
	baseDir       string
	retentionDays int
	exts          []string
}

// NewCleaner returns a Cleaner for baseDir. With exts set, only files with
// one of those extensions expire; everything else is left alone.
func NewCleaner(baseDir string, retentionDays int, exts ...string) *Cleaner {
	return &Cleaner{baseDir: baseDir, retentionDays: retentionDays, exts: exts}
}

// Cleanup deletes expired files, then any directory left empty below the
// base directory. It returns the number of files deleted. A missing base
// directory is not an error.
func (c *Cleaner) Cleanup() (int, error) {
	cutoff := time.Now().AddDate(0, 0, -c.retentionDays)
	var (
		deleted int
		dirs    []string
	)

	err := filepath.WalkDir(c.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != c.baseDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		if !c.expires(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if os.Remove(path) == nil {
			deleted++
		}
		return nil
	})

	// Deepest first, so a parent emptied by its children goes in the same pass.
	slices.Reverse(dirs)
	for _, dir := range dirs {
		if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
			os.Remove(dir)
		}
	}

	return deleted, err
}

func (c *Cleaner) expires(path string) bool {
	if len(c.exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	return slices.ContainsFunc(c.exts, func(e string) bool { return strings.EqualFold(e, ext) })
}

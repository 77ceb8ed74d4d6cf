package logging

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupScheduler_SweepsOnStart(t *testing.T) {
	reports := t.TempDir()
	logs := t.TempDir()
	oldReport := filepath.Join(reports, "widgets-compare-with-explanations-20200101000000.md")
	oldLog := filepath.Join(logs, "widgets", "2020-01-01T00-00-00-explanations-r1.log")
	writeAged(t, oldReport, 60)
	writeAged(t, oldLog, 60)

	// The interval is long enough that only the initial sweep can run.
	s := NewCleanupScheduler(time.Hour, NewCleaner(reports, 30, ".md"), NewCleaner(logs, 30, ".log"))
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for exists(oldReport) || exists(oldLog) {
		if time.Now().After(deadline) {
			t.Fatal("initial sweep did not remove expired files")
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()
}

func TestCleanupScheduler_SweepsOnTick(t *testing.T) {
	dir := t.TempDir()
	s := NewCleanupScheduler(20*time.Millisecond, NewCleaner(dir, 30))
	s.Start()
	defer s.Stop()

	// Created after the initial sweep; must be caught by a later tick.
	time.Sleep(50 * time.Millisecond)
	late := filepath.Join(dir, "late.txt")
	writeAged(t, late, 45)

	deadline := time.Now().Add(2 * time.Second)
	for exists(late) {
		if time.Now().After(deadline) {
			t.Fatal("scheduled sweep did not remove expired file")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCleanupScheduler_Stop(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		s := NewCleanupScheduler(time.Hour)
		s.Stop()
		s.Stop()
	})

	t.Run("twice after start", func(t *testing.T) {
		s := NewCleanupScheduler(time.Hour, NewCleaner(t.TempDir(), 30))
		s.Start()
		s.Stop()
		s.Stop()
	})

	t.Run("restart ignored", func(t *testing.T) {
		s := NewCleanupScheduler(time.Hour)
		s.Start()
		s.Stop()
		s.Start()
		s.Stop()
	})
}

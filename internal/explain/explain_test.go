package explain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drewdunne/difftale/internal/compare"
	"github.com/drewdunne/difftale/internal/llm"
	"github.com/drewdunne/difftale/internal/logging"
	"github.com/drewdunne/difftale/internal/metrics"
	"github.com/drewdunne/difftale/internal/prompt"
	"github.com/drewdunne/difftale/internal/runner"
)

func templates() *prompt.Set {
	return &prompt.Set{
		Diff:    "CHANGED {{fileName}} ({{language}})\n{{diffs}}",
		Added:   "ADDED {{fileName}}\n{{fileContent}}",
		Removed: "REMOVED {{fileName}}",
		Summary: "SUMMARY [{{languages}}]\n{{diffs}}",
	}
}

// echo answers with the first line of the prompt.
func echo() llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, p, _ string) (llm.Completion, error) {
		first, _, _ := strings.Cut(p, "\n")
		return llm.Completion{Text: first, Prompt: p}, nil
	})
}

func TestExplainer_TemplateSelection(t *testing.T) {
	e := NewExplainer(echo(), templates(), "gpt-4o")
	tests := []struct {
		file compare.ChangedFile
		want string
	}{
		{compare.ChangedFile{Path: "a.go"}, "CHANGED a.go (Go)"},
		{compare.ChangedFile{Path: "b.py", Added: true}, "ADDED b.py"},
		{compare.ChangedFile{Path: "c.rb", Deleted: true}, "REMOVED c.rb"},
		{compare.ChangedFile{Path: "d.txt", Added: true, Deleted: true}, "REMOVED d.txt"},
		{compare.ChangedFile{Path: "Makefile"}, "CHANGED Makefile ()"},
	}
	for _, tt := range tests {
		got, err := e.Explain(context.Background(), tt.file)
		if err != nil {
			t.Fatalf("Explain(%s) error = %v", tt.file.Path, err)
		}
		if got.Explanation != tt.want {
			t.Errorf("Explain(%s) = %q, want %q", tt.file.Path, got.Explanation, tt.want)
		}
	}
}

func TestExplainer_RenamedWithoutTemplate(t *testing.T) {
	var calls int32
	c := llm.CompleterFunc(func(context.Context, string, string) (llm.Completion, error) {
		atomic.AddInt32(&calls, 1)
		return llm.Completion{Text: "x"}, nil
	})
	e := NewExplainer(c, templates(), "m")

	got, err := e.Explain(context.Background(), compare.ChangedFile{Path: "new.go", OldPath: "old.go", Renamed: true})
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if !strings.Contains(got.Explanation, "renamed from old.go") {
		t.Errorf("Explanation = %q", got.Explanation)
	}

	got, _ = e.Explain(context.Background(), compare.ChangedFile{Path: "copy.go", OldPath: "orig.go", Copied: true})
	if !strings.Contains(got.Explanation, "copied from orig.go") {
		t.Errorf("Explanation = %q", got.Explanation)
	}
	if calls != 0 {
		t.Errorf("model called %d times, want 0", calls)
	}
}

func TestExplainer_RenamedWithTemplate(t *testing.T) {
	set := templates()
	set.Renamed = "RENAMED {{oldFileName}} -> {{fileName}}"
	e := NewExplainer(echo(), set, "m")

	got, err := e.Explain(context.Background(), compare.ChangedFile{Path: "new.go", OldPath: "old.go", Renamed: true})
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if got.Explanation != "RENAMED old.go -> new.go" {
		t.Errorf("Explanation = %q", got.Explanation)
	}
}

func TestExplainer_StripsRawData(t *testing.T) {
	e := NewExplainer(echo(), templates(), "m")
	got, err := e.Explain(context.Background(), compare.ChangedFile{Path: "a.go", Diff: "+x", Content: "package a"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != "a.go" || got.Explanation == "" {
		t.Errorf("got %+v", got)
	}
}

func TestExplainer_MalformedTemplate(t *testing.T) {
	set := templates()
	set.Diff = "{{fileName}} {{diffs}} {{nope}}"
	e := NewExplainer(echo(), set, "m")

	_, err := e.Explain(context.Background(), compare.ChangedFile{Path: "a.go"})
	var unresolved *prompt.UnresolvedPlaceholderError
	if !errors.As(err, &unresolved) {
		t.Errorf("Explain() error = %v, want UnresolvedPlaceholderError", err)
	}
}

func TestExplainer_PromptLog(t *testing.T) {
	dir := t.TempDir()
	w := logging.NewWriter(dir)
	path := filepath.Join(dir, "proj", "prompts.log")
	e := NewExplainer(echo(), templates(), "m", WithPromptLog(w, path))

	for _, name := range []string{"a.go", "b.go"} {
		if _, err := e.Explain(context.Background(), compare.ChangedFile{Path: name}); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading prompt log: %v", err)
	}
	if !strings.Contains(string(data), "=== a.go ===") || !strings.Contains(string(data), "=== b.go ===") {
		t.Errorf("prompt log = %q", data)
	}
}

func TestExplainer_PromptLogFailureIgnored(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	e := NewExplainer(echo(), templates(), "m", WithPromptLog(logging.NewWriter(dir), filepath.Join(blocker, "sub", "log")))

	got, err := e.Explain(context.Background(), compare.ChangedFile{Path: "a.go"})
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if got.Explanation == "" {
		t.Error("expected explanation despite log failure")
	}
}

func TestOrchestrator_OneFailureOfFive(t *testing.T) {
	c := llm.CompleterFunc(func(_ context.Context, p, _ string) (llm.Completion, error) {
		if strings.Contains(p, "file3.go") {
			return llm.Completion{}, errors.New("rate limited by upstream")
		}
		return llm.Completion{Text: "ok " + p}, nil
	})
	log := runner.NewLog()
	o := NewOrchestrator(NewExplainer(c, templates(), "m", WithCommandLog(log)), 5)

	var files []compare.ChangedFile
	for i := 1; i <= 5; i++ {
		files = append(files, compare.ChangedFile{Path: fmt.Sprintf("file%d.go", i)})
	}

	got, err := o.ExplainAll(context.Background(), files)
	if err != nil {
		t.Fatalf("ExplainAll() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len(got) = %d, want 5", len(got))
	}
	for i, f := range got {
		if f.Path != files[i].Path {
			t.Errorf("got[%d].Path = %q, want %q", i, f.Path, files[i].Path)
		}
		if f.Explanation == "" {
			t.Errorf("%s: empty explanation", f.Path)
		}
		if f.Path == "file3.go" {
			if !f.Failed || !strings.Contains(f.Explanation, "rate limited by upstream") {
				t.Errorf("file3.go = %+v, want embedded error", f)
			}
		} else if f.Failed {
			t.Errorf("%s: unexpected failure", f.Path)
		}
	}
	if entries := log.Entries(); len(entries) != 1 || !strings.Contains(entries[0], "file3.go") {
		t.Errorf("command log = %v, want the failure recorded", entries)
	}
}

func TestExplainer_BlankAnswerIsFailure(t *testing.T) {
	metrics.Reset()
	blank := llm.CompleterFunc(func(_ context.Context, p, _ string) (llm.Completion, error) {
		if strings.Contains(p, "quiet.go") {
			return llm.Completion{Text: " \n\t", Prompt: p}, nil
		}
		return llm.Completion{Prompt: p}, nil
	})
	log := runner.NewLog()
	o := NewOrchestrator(NewExplainer(blank, templates(), "o1-mini", WithCommandLog(log)), 2)

	files := []compare.ChangedFile{{Path: "empty.go"}, {Path: "quiet.go"}}
	got, err := o.ExplainAll(context.Background(), files)
	if err != nil {
		t.Fatalf("ExplainAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	for _, f := range got {
		if !f.Failed || !strings.Contains(f.Explanation, "empty explanation") || !strings.Contains(f.Explanation, f.Path) {
			t.Errorf("%s = %+v, want a failed explanation naming the file", f.Path, f)
		}
	}
	if n := len(log.Entries()); n != 2 {
		t.Errorf("command log has %d entries, want 2", n)
	}
	if m := metrics.Get(); m.ExplanationsFailed != 2 {
		t.Errorf("ExplanationsFailed = %d, want 2", m.ExplanationsFailed)
	}
}

func TestOrchestrator_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	c := llm.CompleterFunc(func(context.Context, string, string) (llm.Completion, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return llm.Completion{Text: "ok"}, nil
	})
	o := NewOrchestrator(NewExplainer(c, templates(), "m"), 2)

	var mu sync.Mutex
	done := 0
	o.OnDone(func(ExplainedFile) {
		mu.Lock()
		done++
		mu.Unlock()
	})

	files := make([]compare.ChangedFile, 12)
	for i := range files {
		files[i] = compare.ChangedFile{Path: fmt.Sprintf("f%d.go", i)}
	}
	got, err := o.ExplainAll(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(files) {
		t.Errorf("len(got) = %d, want %d", len(got), len(files))
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if done != len(files) {
		t.Errorf("OnDone called %d times, want %d", done, len(files))
	}
}

func TestOrchestrator_DefaultConcurrency(t *testing.T) {
	o := NewOrchestrator(NewExplainer(echo(), templates(), "m"), 0)
	if o.concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want %d", o.concurrency, DefaultConcurrency)
	}
}

func TestOrchestrator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := NewOrchestrator(NewExplainer(echo(), templates(), "m"), 1)

	_, err := o.ExplainAll(ctx, []compare.ChangedFile{{Path: "a.go"}, {Path: "b.go"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExplainAll() error = %v, want context.Canceled", err)
	}
}

func TestSummarizer(t *testing.T) {
	var seen string
	c := llm.CompleterFunc(func(_ context.Context, p, _ string) (llm.Completion, error) {
		seen = p
		return llm.Completion{Text: "Overall: small refactor."}, nil
	})
	s := NewSummarizer(c, templates().Summary, "m")

	files := []ExplainedFile{
		{Path: "a.go", Added: true, Explanation: "adds a"},
		{Path: "b.go", Deleted: true, Explanation: "removes b"},
		{Path: "c.go", Renamed: true, Explanation: "renames c"},
		{Path: "d.go", Explanation: "Error explaining d.go: boom", Failed: true},
	}
	got, err := s.Summarize(context.Background(), files, []string{"Go", "Python"}, "proj")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "Overall: small refactor." {
		t.Errorf("Summarize() = %q", got)
	}
	for _, want := range []string{"[Go, Python]", "Change: added", "Change: removed", "Change: renamed", "Change: changed", "Error explaining d.go", divider} {
		if !strings.Contains(seen, want) {
			t.Errorf("summary prompt missing %q:\n%s", want, seen)
		}
	}
}

func TestSummarizer_Failure(t *testing.T) {
	c := llm.CompleterFunc(func(context.Context, string, string) (llm.Completion, error) {
		return llm.Completion{}, errors.New("boom")
	})
	got, err := NewSummarizer(c, templates().Summary, "m").Summarize(context.Background(), nil, nil, "proj")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != SummaryError {
		t.Errorf("Summarize() = %q, want %q", got, SummaryError)
	}
}

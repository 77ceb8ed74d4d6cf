package server

import (
	"context"
	"errors"
	"sync"

	"github.com/drewdunne/difftale/internal/chat"
	"github.com/drewdunne/difftale/internal/config"
	"github.com/drewdunne/difftale/internal/pipeline"
	"github.com/drewdunne/difftale/internal/report"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
	}
}

// fakeReporter returns a canned result, or blocks until cancelled when block is set.
type fakeReporter struct {
	mu      sync.Mutex
	got     []pipeline.Request
	block   bool
	started chan string
	err     error
}

func (f *fakeReporter) Run(ctx context.Context, req pipeline.Request, progress pipeline.Progress) (*pipeline.Result, error) {
	f.mu.Lock()
	f.got = append(f.got, req)
	f.mu.Unlock()

	if f.block {
		if f.started != nil {
			f.started <- req.RunID
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	progress(1, 1)
	return &pipeline.Result{
		Artifact: &report.Artifact{MarkdownPath: "/out/r.md", CommandsPath: "/out/c.txt"},
		Summary:  "all good",
	}, nil
}

func (f *fakeReporter) requests() []pipeline.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Request(nil), f.got...)
}

type fakeChat struct {
	lastDir, lastQuestion, lastContext string
	fail                               bool
}

func (f *fakeChat) Ask(_ context.Context, question, extra string) (*chat.Answer, error) {
	f.lastQuestion, f.lastContext = question, extra
	if f.fail {
		return nil, errors.New("model down")
	}
	return &chat.Answer{Text: "answer: " + question}, nil
}

func (f *fakeChat) AskAboutFiles(_ context.Context, dir, question string) (*chat.Answer, error) {
	f.lastDir, f.lastQuestion = dir, question
	return &chat.Answer{Text: "files answer", Files: []string{"a.go"}}, nil
}

type fakeRefs struct {
	remote string
	err    error
}

func (f *fakeRefs) Tags(_ context.Context, _, remote string) ([]string, error) {
	f.remote = remote
	return []string{"v2", "v1"}, f.err
}

func (f *fakeRefs) Branches(context.Context, string, string) ([]string, error) {
	return []string{"main"}, nil
}

package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
)

// CommandError reports a command that could not start or exited abnormally.
type CommandError struct {
	Description string
	Command     string
	Output      string
	Err         error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Output)
	if msg == "" {
		return fmt.Sprintf("%s (%s): %v", e.Description, e.Command, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v: %s", e.Description, e.Command, e.Err, Redact(msg))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Executor runs a command and returns its combined output.
type Executor interface {
	Capture(ctx context.Context, description string, cmd Command) (string, error)
}

// Runner executes external processes and records each successful one in a Log.
type Runner struct {
	log    *Log
	logger *slog.Logger
}

// New creates a Runner that appends to log. A nil log gets a fresh one.
func New(log *Log) *Runner {
	if log == nil {
		log = NewLog()
	}
	return &Runner{log: log, logger: slog.Default()}
}

// Log returns the audit log shared by this runner.
func (r *Runner) Log() *Log {
	return r.log
}

func (r *Runner) record(description string, cmd Command) {
	r.log.Add(fmt.Sprintf("%s: %s", description, cmd))
}

// Capture runs cmd to completion and returns stdout and stderr combined.
func (r *Runner) Capture(ctx context.Context, description string, cmd Command) (string, error) {
	c := cmd.build(ctx)
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	r.logger.Debug("running command", "description", description, "command", cmd.String())
	if err := c.Run(); err != nil {
		return out.String(), &CommandError{
			Description: description,
			Command:     cmd.String(),
			Output:      out.String(),
			Err:         err,
		}
	}

	r.record(description, cmd)
	return out.String(), nil
}

// StreamLines starts cmd and yields its stdout one line at a time as the
// lines arrive. Stderr is logged, never yielded. A non-zero exit is yielded
// as a final error. Breaking out of the loop kills the process.
func (r *Runner) StreamLines(ctx context.Context, description string, cmd Command) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		c := cmd.build(ctx)
		fail := func(err error, output string) {
			yield("", &CommandError{
				Description: description,
				Command:     cmd.String(),
				Output:      output,
				Err:         err,
			})
		}

		stdout, err := c.StdoutPipe()
		if err != nil {
			fail(err, "")
			return
		}
		stderr, err := c.StderrPipe()
		if err != nil {
			fail(err, "")
			return
		}
		if err := c.Start(); err != nil {
			fail(err, "")
			return
		}

		var (
			wg      sync.WaitGroup
			errTail []string
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc := bufio.NewScanner(stderr)
			for sc.Scan() {
				line := sc.Text()
				r.logger.Debug("command stderr", "description", description, "line", line)
				if len(errTail) == 20 {
					errTail = errTail[1:]
				}
				errTail = append(errTail, line)
			}
		}()

		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
		stopped := false
		for sc.Scan() {
			if !yield(sc.Text(), nil) {
				stopped = true
				cancel()
				break
			}
		}
		scanErr := sc.Err()
		if scanErr != nil {
			// Nothing reads stdout any more; a child still writing would block Wait.
			cancel()
		}

		wg.Wait()
		waitErr := c.Wait()
		if stopped {
			return
		}
		if scanErr != nil {
			fail(scanErr, "")
			return
		}
		if waitErr != nil {
			fail(waitErr, strings.Join(errTail, "\n"))
			return
		}
		r.record(description, cmd)
	}
}

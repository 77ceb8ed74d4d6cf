package runner

import (
	"context"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string

	// Shell runs Name as a script through `sh -c`; Args are ignored.
	Shell bool
}

// Git returns a git command rooted at dir.
func Git(dir string, args ...string) Command {
	return Command{Name: "git", Args: args, Dir: dir}
}

func (c Command) build(ctx context.Context) *exec.Cmd {
	var cmd *exec.Cmd
	if c.Shell {
		cmd = exec.CommandContext(ctx, "sh", "-c", c.Name)
	} else {
		cmd = exec.CommandContext(ctx, c.Name, c.Args...)
	}
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// String renders the command the way it would be typed in a shell, with
// credentials scrubbed.
func (c Command) String() string {
	if c.Shell {
		return Redact(c.Name)
	}
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return Redact(strings.Join(parts, " "))
}

var safeArg = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./^{}-]+$`)

// quote single-quotes an argument when it holds shell metacharacters.
// Pattern: replace ' with '"'"' (end quote, double-quoted quote, start quote)
func quote(s string) string {
	if s == "" {
		return "''"
	}
	if safeArg.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

var (
	urlCredentials = regexp.MustCompile(`(https?://)[^\s/@]+@`)
	tokenAssign    = regexp.MustCompile(`(?i)(token|secret|password|passwd|bearer)=[^\s]+`)
)

// Redact removes obvious credential substrings from messages.
func Redact(s string) string {
	s = urlCredentials.ReplaceAllString(s, "${1}<redacted>@")
	s = tokenAssign.ReplaceAllString(s, "$1=<redacted>")
	return s
}

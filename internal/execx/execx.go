// Package execx runs the external tools the pipeline shells out to (ffmpeg,
// COLMAP, the trainer's python scripts). Every wrapper package takes a Runner
// so tests can substitute a recording fake and assert on argv instead of
// spawning real processes.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrMissingTool is returned (wrapped) when a required binary is not on PATH.
var ErrMissingTool = errors.New("external tool not found")

// tailLines is how many trailing output lines are kept for error reporting.
const tailLines = 20

// Cmd describes a single external-tool invocation.
type Cmd struct {
	Name string   // binary name or absolute path
	Args []string // argv after the binary name
	Dir  string   // working directory; empty means inherit
	Env  []string // extra environment entries, KEY=VALUE
}

// String renders the invocation the way a user would type it.
func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes external commands.
type Runner interface {
	// Run executes c, streaming its output to the log. On failure the error
	// includes the exit status and the tail of the combined output.
	Run(ctx context.Context, c Cmd) error
	// Output executes c and returns its combined output.
	Output(ctx context.Context, c Cmd) (string, error)
}

// ExecRunner is the real Runner backed by os/exec.
type ExecRunner struct {
	Log    *slog.Logger
	DryRun bool // log the command line without executing
}

// NewRunner returns an ExecRunner logging through log. A nil log falls back
// to slog.Default.
func NewRunner(log *slog.Logger) *ExecRunner {
	if log == nil {
		log = slog.Default()
	}
	return &ExecRunner{Log: log}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Cmd) error {
	if r.DryRun {
		r.Log.Info("dry-run", "cmd", c.String())
		return nil
	}
	r.Log.Debug("exec", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	sink := &lineSink{log: r.Log, tool: baseName(c.Name)}
	cmd.Stdout = sink
	cmd.Stderr = sink

	err := cmd.Run()
	sink.flush()
	if err != nil {
		return runError(c, err, sink.tail())
	}
	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Cmd) (string, error) {
	if r.DryRun {
		r.Log.Info("dry-run", "cmd", c.String())
		return "", nil
	}
	r.Log.Debug("exec", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), runError(c, err, lastLines(string(out), tailLines))
	}
	return string(out), nil
}

// LookPath resolves name on PATH, wrapping failures in ErrMissingTool so
// callers can branch on a missing dependency vs a failed run.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingTool, name)
	}
	return path, nil
}

// runError builds the user-facing failure for a command, keeping the tail of
// its output since tools like COLMAP bury the actual cause in the last lines.
func runError(c Cmd, err error, tail []string) error {
	var exitErr *exec.ExitError
	status := err.Error()
	if errors.As(err, &exitErr) {
		status = fmt.Sprintf("exit status %d", exitErr.ExitCode())
	}
	if len(tail) == 0 {
		return fmt.Errorf("%s: %s", baseName(c.Name), status)
	}
	return fmt.Errorf("%s: %s\n%s", baseName(c.Name), status, strings.Join(tail, "\n"))
}

func baseName(name string) string {
	if i := strings.LastIndexByte(name, os.PathSeparator); i >= 0 {
		return name[i+1:]
	}
	return name
}

func lastLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// lineSink forwards tool output to the log line by line and keeps a bounded
// tail for error messages.
type lineSink struct {
	log  *slog.Logger
	tool string
	buf  bytes.Buffer
	last []string
}

func (s *lineSink) Write(p []byte) (int, error) {
	s.buf.Write(p)
	for {
		line, rest, ok := bytes.Cut(s.buf.Bytes(), []byte("\n"))
		if !ok {
			break
		}
		s.emit(string(line))
		s.buf.Reset()
		s.buf.Write(rest)
	}
	return len(p), nil
}

// flush emits any trailing partial line once the command is done.
func (s *lineSink) flush() {
	if s.buf.Len() > 0 {
		s.emit(s.buf.String())
		s.buf.Reset()
	}
}

func (s *lineSink) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}
	s.log.Debug(line, "tool", s.tool)
	s.last = append(s.last, line)
	if len(s.last) > tailLines {
		s.last = s.last[1:]
	}
}

func (s *lineSink) tail() []string { return s.last }

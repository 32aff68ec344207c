package execx

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner records invocations without spawning processes. Wrapper-package
// tests use it to assert on the exact argv a stage builds.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Cmd

	// Err, when set, is returned from every Run/Output call.
	Err error
	// Outputs maps a binary name to the combined output Output returns for it.
	Outputs map[string]string
	// FailOn, when non-empty, fails only invocations of that binary name.
	FailOn string
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, c Cmd) error {
	f.record(c)
	return f.errFor(c)
}

// Output implements Runner.
func (f *FakeRunner) Output(_ context.Context, c Cmd) (string, error) {
	f.record(c)
	if err := f.errFor(c); err != nil {
		return "", err
	}
	return f.Outputs[baseName(c.Name)], nil
}

// Calls returns the recorded invocations in order.
func (f *FakeRunner) Calls() []Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Cmd, len(f.calls))
	copy(out, f.calls)
	return out
}

// CommandLines renders each recorded invocation as a single string.
func (f *FakeRunner) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// CalledWith reports whether any recorded command line contains substr.
func (f *FakeRunner) CalledWith(substr string) bool {
	for _, line := range f.CommandLines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func (f *FakeRunner) record(c Cmd) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *FakeRunner) errFor(c Cmd) error {
	if f.Err != nil && (f.FailOn == "" || f.FailOn == baseName(c.Name)) {
		return f.Err
	}
	return nil
}

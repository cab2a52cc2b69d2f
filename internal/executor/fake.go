package executor

import (
	"context"
	"strings"
	"sync"
	"time"
)

// FakeCall records one Execute invocation observed by a FakeRunner.
type FakeCall struct {
	Command string
	Timeout time.Duration
}

// FakeResponse pairs a command substring with the canned outcome returned
// when an executed command contains it.
type FakeResponse struct {
	Match  string
	Result Result
	Err    error
}

// FakeRunner is an in-memory Runner for tests. Commands are matched against
// the configured responses in order; the first response whose Match is a
// substring of the command wins. Unmatched commands succeed with empty
// output.
type FakeRunner struct {
	mu        sync.Mutex
	Responses []FakeResponse
	Calls     []FakeCall
}

// Execute implements Runner.
func (f *FakeRunner) Execute(_ context.Context, command string, timeout time.Duration) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, FakeCall{Command: command, Timeout: timeout})
	for _, r := range f.Responses {
		if strings.Contains(command, r.Match) {
			return r.Result, r.Err
		}
	}
	return Result{ExitCode: 0}, nil
}

// CallCount returns the number of commands executed so far.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Commands returns the executed command strings in order.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Command
	}
	return out
}

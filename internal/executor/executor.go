// Package executor runs shell-level commands with explicit timeouts.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimeout is returned when a command does not complete within its timeout.
var ErrTimeout = errors.New("command timed out")

// Result holds the captured output of one command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CombinedOutput returns stdout and stderr concatenated, for diagnostics.
func (r Result) CombinedOutput() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes a shell command string bounded by a timeout.
//
// A non-zero exit status is reported through Result.ExitCode with a nil
// error; callers decide whether that fails their step. The error return is
// reserved for the command not running at all or exceeding its timeout.
type Runner interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (Result, error)
}

// ShellRunner runs commands through a shell so callers can use pipelines
// and quoting. The zero value uses /bin/sh.
type ShellRunner struct {
	Shell string
}

// NewShellRunner returns a ShellRunner using /bin/sh.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Shell: "/bin/sh"}
}

func (r *ShellRunner) shell() string {
	if r == nil || r.Shell == "" {
		return "/bin/sh"
	}
	return r.Shell
}

// Execute runs command and waits for it to finish or for timeout to elapse.
func (r *ShellRunner) Execute(ctx context.Context, command string, timeout time.Duration) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.shell(), "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = -1
		return res, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, command)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("command failed to run: %w", err)
	}

	res.ExitCode = 0
	return res, nil
}

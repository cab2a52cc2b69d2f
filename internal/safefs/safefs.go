// Package safefs provides timeout-bounded filesystem operations.
//
// The backup destination is a FUSE mount; when the mount daemon dies,
// plain os.Stat/os.ReadDir block indefinitely inside the kernel. These
// wrappers stop waiting after a timeout so callers can fail the step
// instead of hanging the whole cycle.
package safefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

var (
	osStat    = os.Stat
	osReadDir = os.ReadDir
)

// ErrTimeout is a sentinel error used to classify filesystem operations that
// did not complete within the configured timeout.
var ErrTimeout = errors.New("filesystem operation timed out")

// TimeoutError is returned when a filesystem operation exceeds its allowed
// duration. Note that this does not cancel the underlying kernel call; it
// only stops waiting.
type TimeoutError struct {
	Op      string
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return "filesystem operation timed out"
	}
	if e.Timeout > 0 {
		return fmt.Sprintf("%s %s: timeout after %s", e.Op, e.Path, e.Timeout)
	}
	return fmt.Sprintf("%s %s: timeout", e.Op, e.Path)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

func effectiveTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0
		}
		if remaining < timeout {
			return remaining
		}
	}
	return timeout
}

func await[T any](ctx context.Context, op, path string, timeout time.Duration, call func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	timeout = effectiveTimeout(ctx, timeout)
	if timeout <= 0 {
		return call()
	}

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := call()
		ch <- result{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timer.C:
		return zero, &TimeoutError{Op: op, Path: path, Timeout: timeout}
	}
}

// Stat is os.Stat bounded by timeout.
func Stat(ctx context.Context, path string, timeout time.Duration) (fs.FileInfo, error) {
	return await(ctx, "stat", path, timeout, func() (fs.FileInfo, error) {
		return osStat(path)
	})
}

// ReadDir is os.ReadDir bounded by timeout.
func ReadDir(ctx context.Context, path string, timeout time.Duration) ([]os.DirEntry, error) {
	return await(ctx, "readdir", path, timeout, func() ([]os.DirEntry, error) {
		return osReadDir(path)
	})
}

// Package input provides cancellable line reading for interactive prompts.
package input

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrAborted signals that interactive input was interrupted, typically via
// Ctrl+C causing context cancellation or stdin closure.
var ErrAborted = errors.New("input aborted")

// IsAborted reports whether an operation was aborted by the user.
func IsAborted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// mapError normalizes common stdin errors (EOF/closed fd) into ErrAborted.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return ErrAborted
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "use of closed file") ||
		strings.Contains(msg, "bad file descriptor") ||
		strings.Contains(msg, "file already closed") {
		return ErrAborted
	}
	return err
}

// ReadLine reads a single line, honoring context cancellation. On ctx
// cancellation or stdin closure it returns ErrAborted. The returned line is
// trimmed of its trailing newline only.
func ReadLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line: strings.TrimRight(line, "\r\n"), err: mapError(err)}
	}()
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", context.DeadlineExceeded
		}
		return "", ErrAborted
	case res := <-ch:
		return res.line, res.err
	}
}

package logging

import (
	"fmt"
	"os"
	"sync"

	"github.com/kestrelops/worksafe/internal/types"
)

type bootstrapEntry struct {
	level   types.LogLevel
	message string
}

// BootstrapLogger accumulates messages emitted before the main logger is
// initialized (config parsing, early validation) so they can be replayed
// into the final log once it exists.
type BootstrapLogger struct {
	mu       sync.Mutex
	entries  []bootstrapEntry
	flushed  bool
	minLevel types.LogLevel
}

// NewBootstrapLogger creates a bootstrap logger with INFO as minimum level.
func NewBootstrapLogger() *BootstrapLogger {
	return &BootstrapLogger{
		minLevel: types.LogLevelInfo,
	}
}

// SetLevel updates the minimum level applied when flushing.
func (b *BootstrapLogger) SetLevel(level types.LogLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minLevel = level
}

func (b *BootstrapLogger) record(level types.LogLevel, format string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed {
		return
	}
	b.entries = append(b.entries, bootstrapEntry{level: level, message: fmt.Sprintf(format, args...)})
}

// Debug records a debug message without printing it to the console.
func (b *BootstrapLogger) Debug(format string, args ...interface{}) {
	b.record(types.LogLevelDebug, format, args...)
}

// Info records and prints an informational message.
func (b *BootstrapLogger) Info(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	b.record(types.LogLevelInfo, format, args...)
}

// Warning records and prints a warning.
func (b *BootstrapLogger) Warning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	b.record(types.LogLevelWarning, format, args...)
}

// Error records and prints an error.
func (b *BootstrapLogger) Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	b.record(types.LogLevelError, format, args...)
}

// FlushTo replays the accumulated entries into the main logger and stops
// recording. Entries below the configured minimum level are dropped.
func (b *BootstrapLogger) FlushTo(logger *Logger) {
	b.mu.Lock()
	entries := b.entries
	min := b.minLevel
	b.entries = nil
	b.flushed = true
	b.mu.Unlock()

	if logger == nil {
		return
	}
	for _, e := range entries {
		if e.level > min {
			continue
		}
		switch e.level {
		case types.LogLevelDebug:
			logger.Debug("%s", e.message)
		case types.LogLevelWarning:
			logger.Warning("%s", e.message)
		case types.LogLevelError, types.LogLevelCritical:
			logger.Error("%s", e.message)
		default:
			logger.Info("%s", e.message)
		}
	}
}

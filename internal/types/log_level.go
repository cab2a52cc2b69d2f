package types

import "strings"

// LogLevel represents logging verbosity. Higher values are more verbose.
type LogLevel int

const (
	LogLevelCritical LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

// String returns the log level label used in log output.
func (l LogLevel) String() string {
	switch l {
	case LogLevelCritical:
		return "CRITICAL"
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a user-supplied level name into a LogLevel.
// The second return value reports whether the name was recognized.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return LogLevelCritical, true
	case "error":
		return LogLevelError, true
	case "warning", "warn":
		return LogLevelWarning, true
	case "info":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	default:
		return LogLevelInfo, false
	}
}

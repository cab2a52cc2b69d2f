package utils

import (
	"fmt"
	"strings"
)

// FormatBytes converts bytes to a human-readable format (KB, MB, GB, etc.).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ParseBool converts a string to a boolean (supports multiple formats).
func ParseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on" || s == "enabled"
}

// TrimQuotes removes surrounding quotes from a string.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// FindInlineCommentIndex returns the index of a # that starts an inline comment.
// A # inside quotes or escaped with a backslash is ignored.
func FindInlineCommentIndex(line string) int {
	inQuote := false
	var quoteChar byte
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if inQuote {
			if ch == quoteChar {
				inQuote = false
			}
			continue
		}
		if ch == '"' || ch == '\'' {
			inQuote = true
			quoteChar = ch
			continue
		}
		if ch == '#' {
			return i
		}
	}
	return -1
}

// FindClosingQuoteIndex returns the index of the closing quote in s,
// honoring backslash escapes. Assumes s[0] is the opening quote.
func FindClosingQuoteIndex(s string, quote byte) int {
	escaped := false
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == quote {
			return i
		}
	}
	return -1
}

// SplitKeyValue splits a "key=value" line into key and value.
// Supports inline comments too: KEY="value" # comment
func SplitKeyValue(line string) (string, string, bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	valuePart := strings.TrimSpace(parts[1])

	if strings.HasPrefix(valuePart, "\"") || strings.HasPrefix(valuePart, "'") {
		quote := valuePart[0]
		if endIdx := FindClosingQuoteIndex(valuePart, quote); endIdx >= 0 {
			valuePart = valuePart[:endIdx+1]
		}
	} else if idx := FindInlineCommentIndex(valuePart); idx >= 0 {
		valuePart = strings.TrimSpace(valuePart[:idx])
	}

	value := TrimQuotes(strings.TrimSpace(valuePart))
	return key, value, true
}

// SetEnvValue sets or updates a KEY=VALUE line in an env-file template,
// preserving comments and unrelated lines. When the key is not present a
// new line is appended.
func SetEnvValue(template, key, value string) string {
	lines := strings.Split(template, "\n")
	prefix := key + "="
	replaced := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, prefix) || strings.HasPrefix(trimmed, "#"+prefix) {
			lines[i] = fmt.Sprintf("%s=%q", key, value)
			replaced = true
			break
		}
	}
	if !replaced {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines[len(lines)-1] = fmt.Sprintf("%s=%q", key, value)
			lines = append(lines, "")
		} else {
			lines = append(lines, fmt.Sprintf("%s=%q", key, value))
		}
	}
	return strings.Join(lines, "\n")
}

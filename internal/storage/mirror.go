package storage

import (
	"fmt"
	"strings"
)

// MirrorCommand builds the rsync invocation that makes dst exactly match
// src: new and changed files are copied, files absent from src are deleted,
// and the given patterns are excluded.
//
// Comparison is size-only and directory times are not preserved because the
// FUSE destination cannot set modification times.
func MirrorCommand(src, dst string, excludes []string) string {
	var b strings.Builder
	b.WriteString("rsync --recursive --links --delete --size-only --omit-dir-times")
	for _, pattern := range excludes {
		fmt.Fprintf(&b, " --exclude=%s", shellQuote(pattern))
	}
	// Trailing slash on src: mirror the contents, not the directory itself.
	fmt.Fprintf(&b, " %s %s", shellQuote(strings.TrimRight(src, "/")+"/"), shellQuote(dst))
	return b.String()
}

// shellQuote wraps s in single quotes for safe interpolation into a shell
// command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

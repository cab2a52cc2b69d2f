package orchestrator

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FailureKind classifies the first hard failure of a pipeline run.
type FailureKind string

const (
	// FailureNotConfigured - required storage settings are missing; fix
	// required, not retryable.
	FailureNotConfigured FailureKind = "not-configured"

	// FailureMount - the remote storage backend could not be mounted; may
	// be transient.
	FailureMount FailureKind = "mount-failed"

	// FailurePrecondition - the source sanity check failed; destructive
	// operations were withheld and an operator should look at the source.
	FailurePrecondition FailureKind = "precondition"

	// FailurePersistence - the manifest or timestamp token could not be
	// written.
	FailurePersistence FailureKind = "persistence"

	// FailureSync - the cycle's durability fence was not confirmed; the
	// transfer output carries the diagnostics.
	FailureSync FailureKind = "sync-failed"

	// FailureUnexpected - anything else, wrapped with its message.
	FailureUnexpected FailureKind = "unexpected"
)

var titleCaser = cases.Title(language.English)

// Title renders the kind as a human-readable heading for summaries and
// notifications (e.g. "Mount Failed").
func (k FailureKind) Title() string {
	return titleCaser.String(strings.ReplaceAll(string(k), "-", " "))
}

// Failure is the structured, typed reason a pipeline run stopped. It is
// reported through SyncResult, never raised across the public boundary.
type Failure struct {
	Kind    FailureKind
	Reason  string // short, actionable text
	Details string // captured diagnostic output, if any
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	if f.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", f.Kind, f.Reason, f.Details)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

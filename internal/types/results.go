package types

// SyncResult is the contract returned to callers of a sync cycle.
// The pipeline never raises across this boundary; failures are reported
// through Error/Details instead.
type SyncResult struct {
	// Success is true only when the durability fence was written and
	// verified for this cycle.
	Success bool `json:"success"`

	// LastSync is the timestamp token written during this cycle
	// (RFC 3339 UTC), set only on success.
	LastSync string `json:"lastSync,omitempty"`

	// Error is a short, actionable description of the first hard failure.
	Error string `json:"error,omitempty"`

	// Details carries diagnostic output captured from the failing step,
	// typically the mirror transfer output.
	Details string `json:"details,omitempty"`

	// Warnings lists non-fatal problems (e.g. rotation failures,
	// unreadable files skipped during manifest generation).
	Warnings []string `json:"warnings,omitempty"`
}

// VerifyResult reports the outcome of an integrity verification pass.
// Errors contains every detected mismatch, not just the first.
type VerifyResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

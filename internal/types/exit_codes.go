// Package types defines shared application data types.
package types

// ExitCode represents the application's exit codes.
type ExitCode int

const (
	// ExitSuccess - Execution completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGenericError - Unspecified generic error.
	ExitGenericError ExitCode = 1

	// ExitConfigError - Configuration missing or invalid.
	ExitConfigError ExitCode = 2

	// ExitMountError - Remote storage mount could not be established.
	ExitMountError ExitCode = 3

	// ExitPreconditionError - Source sanity check failed; destructive steps withheld.
	ExitPreconditionError ExitCode = 4

	// ExitSyncError - Backup cycle did not complete (transfer or fence failure).
	ExitSyncError ExitCode = 5

	// ExitVerificationError - Integrity verification reported mismatches.
	ExitVerificationError ExitCode = 6

	// ExitPanicError - Unhandled panic caught.
	ExitPanicError ExitCode = 7
)

// Int returns the numeric value passed to os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}

// String returns a human-readable description of the exit code.
func (e ExitCode) String() string {
	switch e {
	case ExitSuccess:
		return "success"
	case ExitGenericError:
		return "generic error"
	case ExitConfigError:
		return "configuration error"
	case ExitMountError:
		return "mount error"
	case ExitPreconditionError:
		return "precondition error"
	case ExitSyncError:
		return "sync error"
	case ExitVerificationError:
		return "verification error"
	case ExitPanicError:
		return "panic"
	default:
		return "unknown"
	}
}

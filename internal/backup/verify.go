package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/kestrelops/worksafe/internal/checks"
	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/storage"
	"github.com/kestrelops/worksafe/internal/types"
)

// Verifier re-reads the persisted manifest and recomputes every checksum to
// detect corruption of the current generation. It shares the configuration
// and mount preconditions with the sync pipeline but is otherwise
// independent of it.
type Verifier struct {
	logger  *logging.Logger
	cfg     *config.Config
	checker *checks.Checker
	mount   storage.Mounter
}

// NewVerifier creates a verifier.
func NewVerifier(logger *logging.Logger, cfg *config.Config, checker *checks.Checker, mount storage.Mounter) *Verifier {
	return &Verifier{logger: logger, cfg: cfg, checker: checker, mount: mount}
}

// Verify checks every manifest entry against the destination's current
// contents. All mismatches are accumulated, never short-circuited, so a
// single invocation yields a complete corruption report. A missing file
// counts as a checksum mismatch rather than an error.
func (v *Verifier) Verify(ctx context.Context) types.VerifyResult {
	if result := v.checker.CheckConfig(); !result.Passed {
		return types.VerifyResult{Valid: false, Errors: []string{result.Message}}
	}

	if !v.mount.EnsureMounted(ctx) {
		return types.VerifyResult{Valid: false, Errors: []string{"remote storage mount failed"}}
	}

	manifest, err := LoadManifest(v.cfg.DestRoot)
	if err != nil {
		if errors.Is(err, ErrNoManifest) {
			// Legacy or never-synced backup; reported, not raised.
			return types.VerifyResult{Valid: false, Errors: []string{"no manifest found"}}
		}
		return types.VerifyResult{Valid: false, Errors: []string{err.Error()}}
	}

	v.logger.Info("Verifying %d manifest entries against %s", len(manifest.Entries), v.cfg.DestRoot)

	mismatches := []string{}
	for _, entry := range manifest.Entries {
		if err := ctx.Err(); err != nil {
			mismatches = append(mismatches, fmt.Sprintf("verification aborted: %v", err))
			break
		}

		target := filepath.Join(v.cfg.DestRoot, filepath.FromSlash(entry.Path))
		actual, _, err := HashFile(ctx, target)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				actual = "missing"
			} else {
				actual = fmt.Sprintf("unreadable (%v)", err)
			}
		}
		if actual != entry.Checksum {
			mismatches = append(mismatches,
				fmt.Sprintf("%s: checksum mismatch (expected %s, got %s)", entry.Path, entry.Checksum, actual))
		}
	}

	if len(mismatches) > 0 {
		v.logger.Warning("Verification found %d mismatch(es)", len(mismatches))
	} else {
		v.logger.Info("Verification passed: all %d entries intact", len(manifest.Entries))
	}

	return types.VerifyResult{Valid: len(mismatches) == 0, Errors: mismatches}
}

package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kestrelops/worksafe/internal/executor"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/safefs"
)

// PrevSuffix names the single retained previous generation of a backup root.
const PrevSuffix = ".prev"

// Rotator promotes the current generation of a backup root to its previous
// generation before any destructive transfer. Rotation is a safety net for
// the prior cycle's output: its failures must never block or corrupt the
// primary transfer, so callers treat errors as warnings.
type Rotator struct {
	logger  *logging.Logger
	runner  executor.Runner
	timeout time.Duration
}

// NewRotator creates a rotator whose copy commands are bounded by timeout.
func NewRotator(logger *logging.Logger, runner executor.Runner, timeout time.Duration) *Rotator {
	return &Rotator{logger: logger, runner: runner, timeout: timeout}
}

// statProbeTimeout bounds the existence check on the FUSE destination.
const statProbeTimeout = 10 * time.Second

// Rotate replaces <destRoot>/<name>.prev with a recursive copy of
// <destRoot>/<name>. When no current generation exists there is nothing to
// retain and Rotate returns nil.
func (r *Rotator) Rotate(ctx context.Context, destRoot, name string) error {
	current := strings.TrimRight(destRoot, "/") + "/" + name
	previous := current + PrevSuffix

	info, err := safefs.Stat(ctx, current, statProbeTimeout)
	if err != nil || !info.IsDir() {
		r.logger.Debug("No current generation at %s, skipping rotation", current)
		return nil
	}

	r.logger.Step("Rotating %s -> %s", current, previous)
	cmd := fmt.Sprintf("rm -rf '%s' && cp -R '%s' '%s'", previous, current, previous)
	res, err := r.runner.Execute(ctx, cmd, r.timeout)
	if err != nil {
		return fmt.Errorf("rotation of %s failed: %w", name, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("rotation of %s exited with %d: %s", name, res.ExitCode, strings.TrimSpace(res.CombinedOutput()))
	}
	return nil
}

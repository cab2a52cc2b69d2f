// Package checks performs the pipeline's precondition checks.
package checks

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/executor"
	"github.com/kestrelops/worksafe/internal/logging"
)

// CheckResult is the outcome of a single precondition check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// Checker validates the preconditions shared by sync and verify.
type Checker struct {
	logger *logging.Logger
	cfg    *config.Config
	runner executor.Runner
}

// NewChecker creates a checker. The runner may be nil when only CheckConfig
// is used (the config check must not touch the system at all).
func NewChecker(logger *logging.Logger, cfg *config.Config, runner executor.Runner) *Checker {
	return &Checker{logger: logger, cfg: cfg, runner: runner}
}

// CheckConfig verifies the remote-storage settings are present. It performs
// no network or process side effect whatsoever.
func (c *Checker) CheckConfig() CheckResult {
	result := CheckResult{Name: "config"}
	if c.cfg == nil || !c.cfg.IsRemoteConfigured() {
		result.Message = "backup storage is not configured (remote, mount point, source, roots and sanity marker are required)"
		return result
	}
	result.Passed = true
	result.Message = fmt.Sprintf("remote %q mounted at %q, %d backup root(s)",
		c.cfg.RcloneRemote, c.cfg.MountPoint, len(c.cfg.BackupRoots))
	return result
}

// CheckSourceMarker confirms the sanity marker file exists at the source
// root via a short-timeout executor call. Its absence aborts the cycle
// before any destructive operation: a freshly restarted execution
// environment may expose an empty source volume, and mirroring that over a
// valid backup would destroy it.
func (c *Checker) CheckSourceMarker(ctx context.Context) CheckResult {
	result := CheckResult{Name: "source-sanity"}
	marker := path.Join(c.cfg.SourceRoot, c.cfg.SanityMarker)

	cmd := fmt.Sprintf("test -f '%s'", marker)
	timeout := time.Duration(c.cfg.SanityTimeout) * time.Second
	res, err := c.runner.Execute(ctx, cmd, timeout)
	if err != nil {
		if errors.Is(err, executor.ErrTimeout) {
			result.Message = fmt.Sprintf("source sanity check timed out after %s", timeout)
		} else {
			result.Message = fmt.Sprintf("source sanity check failed to run: %v", err)
		}
		return result
	}
	if res.ExitCode != 0 {
		result.Message = fmt.Sprintf("source missing critical file %s", c.cfg.SanityMarker)
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("sanity marker %s present", c.cfg.SanityMarker)
	return result
}

// Package storage establishes and probes the remote object-store mount and
// builds the mirror-transfer commands that run against it.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/executor"
	"github.com/kestrelops/worksafe/internal/logging"
)

// Mounter ensures the remote store is mounted. Implementations must be
// idempotent and safe to call on every cycle.
type Mounter interface {
	EnsureMounted(ctx context.Context) bool
}

// MountProvider mounts an rclone remote at the configured mount point.
// Expensive first-time setup is cached internally (with a TTL), not by the
// orchestrator.
type MountProvider struct {
	cfg    *config.Config
	logger *logging.Logger
	runner executor.Runner
	cache  *StateCache
}

// NewMountProvider creates a provider using the given cache. A nil cache
// gets a fresh one with the default TTL.
func NewMountProvider(cfg *config.Config, logger *logging.Logger, runner executor.Runner, cache *StateCache) *MountProvider {
	if cache == nil {
		cache = NewStateCache(DefaultMountCacheTTL)
	}
	return &MountProvider{cfg: cfg, logger: logger, runner: runner, cache: cache}
}

// probeTimeout bounds the mountpoint check; a dead FUSE mount makes even
// that hang.
const probeTimeout = 10 * time.Second

// EnsureMounted reports whether the remote is mounted at the configured
// mount point, mounting it first if necessary. Failures are logged, never
// returned as errors; the caller only needs the boolean.
func (m *MountProvider) EnsureMounted(ctx context.Context) bool {
	key := m.cfg.MountPoint
	if m.cache.Healthy(key) {
		m.logger.Debug("Mount %s recently confirmed, skipping probe", key)
		return true
	}

	if m.probe(ctx) {
		m.cache.MarkHealthy(key)
		return true
	}

	m.logger.Info("Mounting remote %s at %s", m.cfg.RcloneRemote, m.cfg.MountPoint)
	mountCmd := fmt.Sprintf("mkdir -p %s && rclone mount %s: %s --daemon --vfs-cache-mode writes",
		shellQuote(m.cfg.MountPoint), m.cfg.RcloneRemote, shellQuote(m.cfg.MountPoint))
	res, err := m.runner.Execute(ctx, mountCmd, time.Duration(m.cfg.MountTimeout)*time.Second)
	if err != nil {
		m.logger.Error("rclone mount failed: %v", err)
		return false
	}
	if res.ExitCode != 0 {
		m.logger.Error("rclone mount exited with %d: %s", res.ExitCode, res.CombinedOutput())
		return false
	}

	// The daemon detaches before the FUSE mount is live; re-probe.
	if !m.probe(ctx) {
		m.logger.Error("mount point %s still not mounted after rclone mount", m.cfg.MountPoint)
		return false
	}

	m.cache.MarkHealthy(key)
	return true
}

func (m *MountProvider) probe(ctx context.Context) bool {
	cmd := fmt.Sprintf("mountpoint -q %s", shellQuote(m.cfg.MountPoint))
	res, err := m.runner.Execute(ctx, cmd, probeTimeout)
	if err != nil {
		m.logger.Debug("mountpoint probe failed: %v", err)
		return false
	}
	return res.ExitCode == 0
}

// Reset forgets the cached mount state, forcing the next EnsureMounted to
// re-probe.
func (m *MountProvider) Reset() {
	m.cache.Reset()
}

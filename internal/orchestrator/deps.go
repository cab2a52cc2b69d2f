package orchestrator

import (
	"context"
	"time"

	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/executor"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/storage"
	"github.com/kestrelops/worksafe/internal/types"
)

// Clock abstracts time acquisition for determinism in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Notifier delivers the outcome of a cycle to an external channel.
// Implementations must be best-effort; delivery failures never change the
// result.
type Notifier interface {
	SendSyncResult(ctx context.Context, result types.SyncResult, duration time.Duration) error
}

// MetricsExporter records cycle statistics for scraping.
type MetricsExporter interface {
	ExportSync(result types.SyncResult, files int, bytes int64, duration time.Duration) error
}

// Deps groups the orchestrator's collaborators. Logger, Config and Runner
// are required; Mount defaults to the rclone provider, Clock to the wall
// clock, and Notifier/Metrics to nil (disabled).
type Deps struct {
	Logger  *logging.Logger
	Config  *config.Config
	Runner  executor.Runner
	Mount   storage.Mounter
	Clock   Clock
	Notify  Notifier
	Metrics MetricsExporter
}

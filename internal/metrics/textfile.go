// Package metrics exports backup cycle statistics in Prometheus textfile
// format for node_exporter.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/types"
)

// textfileName is the file node_exporter's textfile collector picks up.
const textfileName = "worksafe.prom"

// TextfileExporter writes sync metrics to a textfile collector directory.
type TextfileExporter struct {
	dir    string
	logger *logging.Logger
	now    func() time.Time
}

// NewTextfileExporter creates an exporter writing into dir.
func NewTextfileExporter(dir string, logger *logging.Logger) *TextfileExporter {
	return &TextfileExporter{
		dir:    strings.TrimRight(dir, "/"),
		logger: logger,
		now:    time.Now,
	}
}

// ExportSync writes the metrics snapshot for one completed cycle. The file
// is written to a temp path and renamed so the collector never reads a
// half-written file.
func (e *TextfileExporter) ExportSync(result types.SyncResult, files int, bytes int64, duration time.Duration) error {
	if e == nil {
		return nil
	}
	if e.dir == "" {
		return fmt.Errorf("metrics textfile directory is empty")
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create metrics directory: %w", err)
	}

	success := 0
	if result.Success {
		success = 1
	}

	var b strings.Builder
	writeMetric := func(name, help, typ string, value string) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %s\n", name, help, name, typ, name, value)
	}
	writeMetric("worksafe_sync_success", "Whether the last sync cycle completed (1) or failed (0).", "gauge", fmt.Sprintf("%d", success))
	writeMetric("worksafe_sync_last_run_timestamp_seconds", "Unix time of the last sync cycle.", "gauge", fmt.Sprintf("%d", e.now().Unix()))
	writeMetric("worksafe_sync_duration_seconds", "Duration of the last sync cycle.", "gauge", fmt.Sprintf("%.3f", duration.Seconds()))
	writeMetric("worksafe_sync_manifest_files", "Files recorded in the manifest of the last cycle.", "gauge", fmt.Sprintf("%d", files))
	writeMetric("worksafe_sync_manifest_bytes", "Total bytes recorded in the manifest of the last cycle.", "gauge", fmt.Sprintf("%d", bytes))
	writeMetric("worksafe_sync_warnings", "Non-fatal warnings raised by the last cycle.", "gauge", fmt.Sprintf("%d", len(result.Warnings)))

	target := filepath.Join(e.dir, textfileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("cannot write metrics file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot publish metrics file: %w", err)
	}

	e.logger.Debug("Metrics exported to %s", target)
	return nil
}

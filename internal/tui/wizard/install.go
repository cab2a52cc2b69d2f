// Package wizard implements the interactive setup workflow that produces
// the configuration file.
package wizard

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rivo/tview"

	"github.com/kestrelops/worksafe/internal/tui"
	"github.com/kestrelops/worksafe/pkg/utils"
)

// ErrInstallCancelled is returned when the user aborts the setup wizard.
var ErrInstallCancelled = errors.New("setup aborted by user")

// InstallData holds the settings collected by the setup wizard.
type InstallData struct {
	Remote         string
	MountPoint     string
	DestRoot       string
	SourceRoot     string
	BackupRoots    string // comma-separated names
	SanityMarker   string
	WebhookEnabled bool
	WebhookURL     string
	MetricsEnabled bool
	MetricsDir     string
}

// Render applies the collected settings to the embedded configuration
// template and returns the resulting file contents.
func (d *InstallData) Render(template string) string {
	out := template
	out = utils.SetEnvValue(out, "RCLONE_REMOTE", d.Remote)
	out = utils.SetEnvValue(out, "MOUNT_POINT", d.MountPoint)
	out = utils.SetEnvValue(out, "DEST_ROOT", d.DestRoot)
	out = utils.SetEnvValue(out, "SOURCE_ROOT", d.SourceRoot)
	out = utils.SetEnvValue(out, "BACKUP_ROOTS", d.BackupRoots)
	out = utils.SetEnvValue(out, "SANITY_MARKER", d.SanityMarker)
	out = utils.SetEnvValue(out, "WEBHOOK_ENABLED", strconv.FormatBool(d.WebhookEnabled))
	out = utils.SetEnvValue(out, "WEBHOOK_URL", d.WebhookURL)
	out = utils.SetEnvValue(out, "METRICS_ENABLED", strconv.FormatBool(d.MetricsEnabled))
	out = utils.SetEnvValue(out, "METRICS_TEXTFILE_DIR", d.MetricsDir)
	return out
}

// Validate reports the first problem with the collected settings, or "".
func (d *InstallData) Validate() string {
	switch {
	case strings.TrimSpace(d.Remote) == "":
		return "rclone remote name is required"
	case strings.TrimSpace(d.MountPoint) == "":
		return "mount point is required"
	case strings.TrimSpace(d.DestRoot) == "":
		return "destination root is required"
	case strings.TrimSpace(d.SourceRoot) == "":
		return "source root is required"
	case strings.TrimSpace(d.BackupRoots) == "":
		return "at least one backup root is required"
	case strings.TrimSpace(d.SanityMarker) == "":
		return "sanity marker file is required"
	case d.WebhookEnabled && strings.TrimSpace(d.WebhookURL) == "":
		return "webhook URL is required when webhook notifications are enabled"
	case d.MetricsEnabled && strings.TrimSpace(d.MetricsDir) == "":
		return "metrics directory is required when metrics are enabled"
	}
	return ""
}

// RunInstallWizard runs the TUI-based setup wizard and returns the
// collected settings. The context cancels the wizard (e.g. on SIGINT).
func RunInstallWizard(ctx context.Context, existing *InstallData) (*InstallData, error) {
	data := &InstallData{}
	if existing != nil {
		*data = *existing
	}

	app := tui.NewApp()
	done := make(chan error, 1)

	go func() {
		select {
		case <-ctx.Done():
			app.Stop()
		case <-done:
		}
	}()

	status := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	form := tview.NewForm()
	form.AddInputField("Rclone remote name", data.Remote, 40, nil, func(text string) { data.Remote = text }).
		AddInputField("Mount point", data.MountPoint, 40, nil, func(text string) { data.MountPoint = text }).
		AddInputField("Destination root", data.DestRoot, 40, nil, func(text string) { data.DestRoot = text }).
		AddInputField("Source root", data.SourceRoot, 40, nil, func(text string) { data.SourceRoot = text }).
		AddInputField("Backup roots (comma-separated)", data.BackupRoots, 40, nil, func(text string) { data.BackupRoots = text }).
		AddInputField("Sanity marker file", data.SanityMarker, 40, nil, func(text string) { data.SanityMarker = text }).
		AddCheckbox("Webhook notifications", data.WebhookEnabled, func(checked bool) { data.WebhookEnabled = checked }).
		AddInputField("Webhook URL", data.WebhookURL, 40, nil, func(text string) { data.WebhookURL = text }).
		AddCheckbox("Prometheus textfile metrics", data.MetricsEnabled, func(checked bool) { data.MetricsEnabled = checked }).
		AddInputField("Metrics textfile directory", data.MetricsDir, 40, nil, func(text string) { data.MetricsDir = text })

	var saved bool
	form.AddButton("Save", func() {
		if msg := data.Validate(); msg != "" {
			status.SetText("[yellow]" + msg)
			return
		}
		saved = true
		app.Stop()
	})
	form.AddButton("Cancel", func() {
		app.Stop()
	})

	form.SetBorder(true).
		SetTitle(" worksafe setup ").
		SetTitleAlign(tview.AlignCenter)

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)

	app.SetRoot(layout, true)
	err := app.Run()
	done <- err
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !saved {
		return nil, ErrInstallCancelled
	}
	return data, nil
}

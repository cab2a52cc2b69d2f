package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kestrelops/worksafe/internal/input"
	"github.com/kestrelops/worksafe/internal/tui/wizard"
	"github.com/kestrelops/worksafe/pkg/utils"
)

// promptInstallData is the plain-stdin fallback of the setup wizard, used
// with --cli or when no terminal is attached.
func promptInstallData(ctx context.Context, existing *wizard.InstallData) (*wizard.InstallData, error) {
	data := &wizard.InstallData{}
	if existing != nil {
		*data = *existing
	}

	reader := bufio.NewReader(os.Stdin)
	ask := func(label, current string) (string, error) {
		if current != "" {
			fmt.Printf("%s [%s]: ", label, current)
		} else {
			fmt.Printf("%s: ", label)
		}
		line, err := input.ReadLine(ctx, reader)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return current, nil
		}
		return line, nil
	}
	askBool := func(label string, current bool) (bool, error) {
		answer, err := ask(label+" (yes/no)", boolWord(current))
		if err != nil {
			return false, err
		}
		return utils.ParseBool(answer), nil
	}

	var err error
	if data.Remote, err = ask("Rclone remote name", data.Remote); err != nil {
		return nil, err
	}
	if data.MountPoint, err = ask("Mount point", data.MountPoint); err != nil {
		return nil, err
	}
	if data.DestRoot, err = ask("Destination root", data.DestRoot); err != nil {
		return nil, err
	}
	if data.SourceRoot, err = ask("Source root", data.SourceRoot); err != nil {
		return nil, err
	}
	if data.BackupRoots, err = ask("Backup roots (comma-separated)", data.BackupRoots); err != nil {
		return nil, err
	}
	if data.SanityMarker, err = ask("Sanity marker file", data.SanityMarker); err != nil {
		return nil, err
	}
	if data.WebhookEnabled, err = askBool("Enable webhook notifications", data.WebhookEnabled); err != nil {
		return nil, err
	}
	if data.WebhookEnabled {
		if data.WebhookURL, err = ask("Webhook URL", data.WebhookURL); err != nil {
			return nil, err
		}
	}
	if data.MetricsEnabled, err = askBool("Enable Prometheus textfile metrics", data.MetricsEnabled); err != nil {
		return nil, err
	}
	if data.MetricsEnabled {
		if data.MetricsDir, err = ask("Metrics textfile directory", data.MetricsDir); err != nil {
			return nil, err
		}
	}

	if msg := data.Validate(); msg != "" {
		return nil, fmt.Errorf("invalid setup: %s", msg)
	}
	return data, nil
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

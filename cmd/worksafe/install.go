package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	worksafe "github.com/kestrelops/worksafe"
	"github.com/kestrelops/worksafe/internal/cli"
	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/input"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/tui/wizard"
	"github.com/kestrelops/worksafe/internal/types"
)

// runInstall collects settings through the TUI wizard (or plain prompts
// when --cli is given or stdin is not a terminal) and writes the
// configuration file.
func runInstall(ctx context.Context, args *cli.Args, bootstrap *logging.BootstrapLogger) int {
	existing := loadExisting(args.ConfigPath)

	var (
		data *wizard.InstallData
		err  error
	)
	if args.ForceCLI || !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err = promptInstallData(ctx, existing)
	} else {
		data, err = wizard.RunInstallWizard(ctx, existing)
	}
	if err != nil {
		if errors.Is(err, wizard.ErrInstallCancelled) || input.IsAborted(err) {
			bootstrap.Warning("Setup cancelled, nothing written")
			return types.ExitGenericError.Int()
		}
		bootstrap.Error("Setup failed: %v", err)
		return types.ExitGenericError.Int()
	}

	rendered := data.Render(worksafe.ConfigTemplate)
	if err := os.MkdirAll(filepath.Dir(args.ConfigPath), 0o755); err != nil {
		bootstrap.Error("Cannot create config directory: %v", err)
		return types.ExitConfigError.Int()
	}
	if err := os.WriteFile(args.ConfigPath, []byte(rendered), 0o600); err != nil {
		bootstrap.Error("Cannot write config file: %v", err)
		return types.ExitConfigError.Int()
	}

	fmt.Printf("Configuration written to %s\n", args.ConfigPath)
	return types.ExitSuccess.Int()
}

// loadExisting pre-fills the wizard with the current configuration when the
// file already exists, so setup can be re-run to edit settings.
func loadExisting(path string) *wizard.InstallData {
	cfg, err := config.Load(path)
	if err != nil {
		return nil
	}
	roots := ""
	for i, r := range cfg.BackupRoots {
		if i > 0 {
			roots += ","
		}
		roots += r
	}
	return &wizard.InstallData{
		Remote:         cfg.RcloneRemote,
		MountPoint:     cfg.MountPoint,
		DestRoot:       cfg.DestRoot,
		SourceRoot:     cfg.SourceRoot,
		BackupRoots:    roots,
		SanityMarker:   cfg.SanityMarker,
		WebhookEnabled: cfg.WebhookEnabled,
		WebhookURL:     cfg.WebhookURL,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsDir:     cfg.MetricsTextfileDir,
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/kestrelops/worksafe/internal/backup"
	"github.com/kestrelops/worksafe/internal/checks"
	"github.com/kestrelops/worksafe/internal/cli"
	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/executor"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/metrics"
	"github.com/kestrelops/worksafe/internal/notify"
	"github.com/kestrelops/worksafe/internal/orchestrator"
	"github.com/kestrelops/worksafe/internal/storage"
	"github.com/kestrelops/worksafe/internal/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	bootstrap := logging.NewBootstrapLogger()

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(types.ExitPanicError.Int())
		}
	}()

	// SIGINT/SIGTERM cancel the context; in-flight external commands are
	// killed and the pipeline reports a failure instead of leaving a
	// half-finished cycle behind silently.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		bootstrap.Warning("Received signal %v, shutting down", sig)
		cancel()
	}()

	args, err := cli.Parse()
	if err != nil {
		return types.ExitConfigError.Int()
	}

	if args.ShowVersion {
		cli.ShowVersion()
		return types.ExitSuccess.Int()
	}
	if args.ShowHelp {
		cli.ShowHelp()
		return types.ExitSuccess.Int()
	}

	if args.Install {
		return runInstall(ctx, args, bootstrap)
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		bootstrap.Error("Configuration error: %v", err)
		bootstrap.Info("Run 'worksafe --install' to generate a configuration file.")
		return types.ExitConfigError.Int()
	}
	if args.LogLevelSet {
		cfg.DebugLevel = args.LogLevel
	}

	logger := logging.New(cfg.DebugLevel, cfg.UseColor)
	if cfg.LogPath != "" {
		if err := logger.OpenLogFile(cfg.LogPath); err != nil {
			bootstrap.Warning("Cannot open log file: %v", err)
		} else {
			defer logger.CloseLogFile()
		}
	}
	bootstrap.FlushTo(logger)

	runner := executor.NewShellRunner()
	mount := storage.NewMountProvider(cfg, logger, runner, nil)

	if args.Verify {
		return runVerify(ctx, cfg, logger, runner, mount)
	}
	return runSync(ctx, cfg, logger, runner, mount)
}

func runSync(ctx context.Context, cfg *config.Config, logger *logging.Logger, runner executor.Runner, mount *storage.MountProvider) int {
	deps := orchestrator.Deps{
		Logger: logger,
		Config: cfg,
		Runner: runner,
		Mount:  mount,
	}

	notifier, err := notify.NewWebhookNotifier(cfg, logger)
	if err != nil {
		logger.Warning("Webhook notifications disabled: %v", err)
	} else if notifier != nil {
		deps.Notify = notifier
	}
	if cfg.MetricsEnabled {
		deps.Metrics = metrics.NewTextfileExporter(cfg.MetricsTextfileDir, logger)
	}

	result, code := orchestrator.New(deps).Sync(ctx)

	if !result.Success {
		fmt.Fprintf(os.Stderr, "sync failed: %s\n", result.Error)
		if result.Details != "" {
			fmt.Fprintln(os.Stderr, result.Details)
		}
		return code.Int()
	}

	fmt.Printf("sync ok: %s\n", result.LastSync)
	return code.Int()
}

func runVerify(ctx context.Context, cfg *config.Config, logger *logging.Logger, runner executor.Runner, mount *storage.MountProvider) int {
	checker := checks.NewChecker(logger, cfg, runner)
	verifier := backup.NewVerifier(logger, cfg, checker, mount)

	result := verifier.Verify(ctx)
	if result.Valid {
		fmt.Println("verify ok: backup matches manifest")
		return types.ExitSuccess.Int()
	}

	fmt.Fprintf(os.Stderr, "verify failed: %d problem(s)\n", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", e)
	}
	return types.ExitVerificationError.Int()
}

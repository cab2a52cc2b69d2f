// Package orchestrator drives the backup cycle as a linear pipeline of
// typed steps with short-circuit semantics:
//
//	ConfigCheck -> MountCheck -> SourceSanityCheck -> Rotate -> Transfer ->
//	ManifestGeneration -> ManifestPersist -> TimestampVerify
//
// Each step requires the previous to have succeeded; the first hard failure
// stops the run with a structured, typed reason. No step is retried
// automatically - retrying the whole pipeline is the caller's
// responsibility.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kestrelops/worksafe/internal/backup"
	"github.com/kestrelops/worksafe/internal/checks"
	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/executor"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/storage"
	"github.com/kestrelops/worksafe/internal/types"
	"github.com/kestrelops/worksafe/pkg/utils"
)

// datePrefixRe is the well-formedness requirement on the timestamp token:
// four digits, dash, two digits, dash, two digits.
var datePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Orchestrator runs the sync pipeline. It holds no state across runs; the
// destination filesystem is the only thing that persists between cycles.
type Orchestrator struct {
	logger  *logging.Logger
	cfg     *config.Config
	runner  executor.Runner
	mount   storage.Mounter
	clock   Clock
	notify  Notifier
	metrics MetricsExporter

	checker *checks.Checker
	rotator *backup.Rotator
	builder *backup.Builder
}

// New creates an orchestrator, filling in default collaborators for any
// left nil in deps.
func New(deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = realClock{}
	}
	if deps.Mount == nil {
		deps.Mount = storage.NewMountProvider(deps.Config, deps.Logger, deps.Runner, nil)
	}
	return &Orchestrator{
		logger:  deps.Logger,
		cfg:     deps.Config,
		runner:  deps.Runner,
		mount:   deps.Mount,
		clock:   deps.Clock,
		notify:  deps.Notify,
		metrics: deps.Metrics,
		checker: checks.NewChecker(deps.Logger, deps.Config, deps.Runner),
		rotator: backup.NewRotator(deps.Logger, deps.Runner, time.Duration(deps.Config.RotateTimeout)*time.Second),
		builder: backup.NewBuilder(deps.Logger),
	}
}

// cycleState is the mutable state threaded through the pipeline steps of a
// single run.
type cycleState struct {
	started        time.Time
	transferOutput string
	transferFailed bool
	manifest       *backup.Manifest
	token          string
	lastSync       string
	warnings       []string
}

type step struct {
	name string
	run  func(ctx context.Context, state *cycleState) *Failure
}

// guardedFrom is the index of the first step whose unexpected errors are
// caught and reported as Failed(unexpected) instead of propagating. The
// config and mount checks come before it.
const guardedFrom = 2

// Sync runs one full backup cycle and returns its structured result along
// with the process exit code for the run. It never panics across this
// boundary.
func (o *Orchestrator) Sync(ctx context.Context) (types.SyncResult, types.ExitCode) {
	state := &cycleState{started: o.clock.Now()}

	steps := []step{
		{"config check", o.stepConfigCheck},
		{"mount check", o.stepMountCheck},
		{"source sanity check", o.stepSourceSanity},
		{"rotate", o.stepRotate},
		{"transfer", o.stepTransfer},
		{"manifest generation", o.stepManifestGeneration},
		{"manifest persist", o.stepManifestPersist},
		{"timestamp verify", o.stepTimestampVerify},
	}

	var failure *Failure
	for i, s := range steps {
		o.logger.Step("%s", s.name)
		failure = o.runStep(ctx, i, s, state)
		if failure != nil {
			o.logger.Error("Step %q failed: %s", s.name, failure.Reason)
			break
		}
	}

	result := o.buildResult(state, failure)
	o.report(ctx, state, result)
	return result, exitCodeFor(failure)
}

func exitCodeFor(failure *Failure) types.ExitCode {
	if failure == nil {
		return types.ExitSuccess
	}
	switch failure.Kind {
	case FailureNotConfigured:
		return types.ExitConfigError
	case FailureMount:
		return types.ExitMountError
	case FailurePrecondition:
		return types.ExitPreconditionError
	case FailurePersistence, FailureSync:
		return types.ExitSyncError
	default:
		return types.ExitGenericError
	}
}

// runStep executes one step, converting panics and stray errors in the
// guarded region into a typed unexpected failure.
func (o *Orchestrator) runStep(ctx context.Context, index int, s step, state *cycleState) (failure *Failure) {
	if index >= guardedFrom {
		defer func() {
			if r := recover(); r != nil {
				failure = &Failure{Kind: FailureUnexpected, Reason: fmt.Sprintf("unexpected error in %s: %v", s.name, r)}
			}
		}()
	}
	return s.run(ctx, state)
}

func (o *Orchestrator) stepConfigCheck(_ context.Context, _ *cycleState) *Failure {
	if result := o.checker.CheckConfig(); !result.Passed {
		return &Failure{Kind: FailureNotConfigured, Reason: result.Message}
	}
	return nil
}

func (o *Orchestrator) stepMountCheck(ctx context.Context, _ *cycleState) *Failure {
	if !o.mount.EnsureMounted(ctx) {
		return &Failure{Kind: FailureMount, Reason: "remote storage mount failed"}
	}
	return nil
}

func (o *Orchestrator) stepSourceSanity(ctx context.Context, _ *cycleState) *Failure {
	if result := o.checker.CheckSourceMarker(ctx); !result.Passed {
		return &Failure{Kind: FailurePrecondition, Reason: result.Message}
	}
	return nil
}

// stepRotate is best-effort: it protects the previous cycle's output, not
// the one being performed now, so its failures become warnings instead of
// aborting the run.
func (o *Orchestrator) stepRotate(ctx context.Context, state *cycleState) *Failure {
	for _, name := range o.cfg.BackupRoots {
		if err := o.rotator.Rotate(ctx, o.cfg.DestRoot, name); err != nil {
			o.logger.Warning("Rotation warning: %v", err)
			state.warnings = append(state.warnings, err.Error())
		}
	}
	return nil
}

// stepTransfer mirrors every backup root into its current generation. A
// failed mirror is recorded but does not abort here: manifest generation
// and persistence still run so diagnostics are captured, and the final
// verdict is left to stepTimestampVerify.
func (o *Orchestrator) stepTransfer(ctx context.Context, state *cycleState) *Failure {
	timeout := time.Duration(o.cfg.TransferTimeout) * time.Second
	var output strings.Builder

	for _, name := range o.cfg.BackupRoots {
		src := filepath.Join(o.cfg.SourceRoot, name)
		dst := filepath.Join(o.cfg.DestRoot, name)
		cmd := storage.MirrorCommand(src, dst, o.cfg.ExcludePatterns)

		o.logger.Debug("Mirroring %s -> %s", src, dst)
		res, err := o.runner.Execute(ctx, cmd, timeout)
		if out := strings.TrimSpace(res.CombinedOutput()); out != "" {
			fmt.Fprintf(&output, "[%s] %s\n", name, out)
		}
		if err != nil {
			state.transferFailed = true
			fmt.Fprintf(&output, "[%s] %v\n", name, err)
			o.logger.Error("Mirror of %s failed: %v", name, err)
			continue
		}
		if res.ExitCode != 0 {
			state.transferFailed = true
			o.logger.Error("Mirror of %s exited with %d", name, res.ExitCode)
		}
	}

	state.transferOutput = strings.TrimSpace(output.String())
	return nil
}

func (o *Orchestrator) stepManifestGeneration(ctx context.Context, state *cycleState) *Failure {
	manifest, warnings := o.builder.Build(ctx, o.cfg.DestRoot, o.cfg.BackupRoots, o.clock.Now())
	state.manifest = manifest
	state.warnings = append(state.warnings, warnings...)
	o.logger.Info("Manifest: %d entries (%s)", len(manifest.Entries), utils.FormatBytes(manifestBytes(manifest)))
	return nil
}

// stepManifestPersist writes the manifest, then - only when the transfer
// succeeded - the timestamp token. The token is the durability fence; it is
// never written over a failed transfer, which leaves the previous token (or
// none) in place for stepTimestampVerify to reject.
func (o *Orchestrator) stepManifestPersist(_ context.Context, state *cycleState) *Failure {
	if err := backup.WriteManifest(state.manifest, o.cfg.DestRoot); err != nil {
		return &Failure{Kind: FailurePersistence, Reason: err.Error()}
	}

	if state.transferFailed {
		o.logger.Warning("Transfer failed; withholding timestamp token")
		return nil
	}

	state.token = o.clock.Now().UTC().Format(time.RFC3339)
	if err := backup.WriteTimestamp(o.cfg.DestRoot, state.token); err != nil {
		return &Failure{Kind: FailurePersistence, Reason: err.Error()}
	}
	return nil
}

// stepTimestampVerify reads the token back and decides the cycle's verdict:
// the token must exist, carry a well-formed date prefix, and be exactly the
// one written this cycle.
func (o *Orchestrator) stepTimestampVerify(_ context.Context, state *cycleState) *Failure {
	raw, err := backup.ReadTimestamp(o.cfg.DestRoot)
	if state.transferFailed || err != nil || state.token == "" || raw != state.token || !datePrefixRe.MatchString(raw) {
		return &Failure{Kind: FailureSync, Reason: "Sync failed", Details: state.transferOutput}
	}
	state.lastSync = raw
	return nil
}

func (o *Orchestrator) buildResult(state *cycleState, failure *Failure) types.SyncResult {
	result := types.SyncResult{Warnings: state.warnings}
	if failure == nil {
		result.Success = true
		result.LastSync = state.lastSync
		o.logger.Info("Sync completed: %s", result.LastSync)
		return result
	}
	result.Error = failure.Reason
	result.Details = failure.Details
	o.logger.Error("Sync failed (%s): %s", failure.Kind.Title(), failure.Reason)
	return result
}

// report delivers the outcome to the optional notification and metrics
// sinks. Both are best-effort.
func (o *Orchestrator) report(ctx context.Context, state *cycleState, result types.SyncResult) {
	duration := o.clock.Now().Sub(state.started)

	if o.notify != nil {
		if err := o.notify.SendSyncResult(ctx, result, duration); err != nil {
			o.logger.Warning("Notification delivery failed: %v", err)
		}
	}
	if o.metrics != nil {
		files := 0
		var size int64
		if state.manifest != nil {
			files = len(state.manifest.Entries)
			size = manifestBytes(state.manifest)
		}
		if err := o.metrics.ExportSync(result, files, size, duration); err != nil {
			o.logger.Warning("Metrics export failed: %v", err)
		}
	}
}

func manifestBytes(m *backup.Manifest) int64 {
	if m == nil {
		return 0
	}
	var total int64
	for _, e := range m.Entries {
		total += e.Size
	}
	return total
}

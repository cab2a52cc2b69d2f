package orchestrator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kestrelops/worksafe/internal/backup"
	"github.com/kestrelops/worksafe/internal/checks"
	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/executor"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/types"
)

type fakeMounter struct {
	ok    bool
	calls int
}

func (f *fakeMounter) EnsureMounted(context.Context) bool {
	f.calls++
	return f.ok
}

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type recordingNotifier struct {
	results []types.SyncResult
}

func (r *recordingNotifier) SendSyncResult(_ context.Context, result types.SyncResult, _ time.Duration) error {
	r.results = append(r.results, result)
	return nil
}

var cycleTime = time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

func quietLogger() *logging.Logger {
	logger := logging.New(types.LogLevelDebug, false)
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

// testConfig returns a fully configured setup whose destination root is a
// real temp dir, so the manifest and token steps hit the filesystem.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.RcloneRemote = "gdrive"
	cfg.MountPoint = "/mnt/backup"
	cfg.DestRoot = t.TempDir()
	cfg.SourceRoot = "/home/user/work"
	cfg.SanityMarker = ".workspace"
	cfg.BackupRoots = []string{"app"}
	return cfg
}

func newTestOrchestrator(cfg *config.Config, runner executor.Runner, mount *fakeMounter) *Orchestrator {
	return New(Deps{
		Logger: quietLogger(),
		Config: cfg,
		Runner: runner,
		Mount:  mount,
		Clock:  fakeClock{t: cycleTime},
	})
}

// populateDest simulates a completed mirror: the destination already holds
// the current generation the fake transfer would have produced.
func populateDest(t *testing.T, destRoot string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(destRoot, "app", rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSyncUnconfiguredHasNoSideEffects(t *testing.T) {
	fake := &executor.FakeRunner{}
	mount := &fakeMounter{ok: true}
	orch := newTestOrchestrator(config.Default(), fake, mount)

	result, code := orch.Sync(context.Background())

	if result.Success {
		t.Error("unconfigured sync must fail")
	}
	if !strings.Contains(result.Error, "not configured") {
		t.Errorf("Error = %q", result.Error)
	}
	if code != types.ExitConfigError {
		t.Errorf("exit code = %v", code)
	}
	if fake.CallCount() != 0 {
		t.Errorf("no command may run: %v", fake.Commands())
	}
	if mount.calls != 0 {
		t.Error("no mount attempt may happen")
	}
}

func TestSyncMountFailureStopsPipeline(t *testing.T) {
	fake := &executor.FakeRunner{}
	orch := newTestOrchestrator(testConfig(t), fake, &fakeMounter{ok: false})

	result, code := orch.Sync(context.Background())

	if result.Success || result.Error != "remote storage mount failed" {
		t.Errorf("unexpected result: %+v", result)
	}
	if code != types.ExitMountError {
		t.Errorf("exit code = %v", code)
	}
	if fake.CallCount() != 0 {
		t.Errorf("no command may run after a mount failure: %v", fake.Commands())
	}
}

func TestSyncMissingMarkerWithholdsDestructiveSteps(t *testing.T) {
	cfg := testConfig(t)
	populateDest(t, cfg.DestRoot, map[string]string{"app.json": "{}"})

	fake := &executor.FakeRunner{
		Responses: []executor.FakeResponse{
			{Match: "test -f", Result: executor.Result{ExitCode: 1}},
		},
	}
	orch := newTestOrchestrator(cfg, fake, &fakeMounter{ok: true})

	result, code := orch.Sync(context.Background())

	if result.Success {
		t.Error("sync must fail when the marker is missing")
	}
	if !strings.Contains(result.Error, "missing critical file .workspace") {
		t.Errorf("Error = %q", result.Error)
	}
	if code != types.ExitPreconditionError {
		t.Errorf("exit code = %v", code)
	}
	for _, cmd := range fake.Commands() {
		if strings.Contains(cmd, "rsync") || strings.Contains(cmd, "cp -R") {
			t.Errorf("destructive command ran after failed sanity check: %s", cmd)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.DestRoot, backup.TimestampFileName)); err == nil {
		t.Error("no token may be written after a failed sanity check")
	}
}

func TestSyncTransferFailureReportedAtVerify(t *testing.T) {
	cfg := testConfig(t)
	populateDest(t, cfg.DestRoot, map[string]string{"app.json": "{}"})

	fake := &executor.FakeRunner{
		Responses: []executor.FakeResponse{
			{Match: "rsync", Result: executor.Result{ExitCode: 23, Stderr: "rsync: connection unexpectedly closed"}},
		},
	}
	orch := newTestOrchestrator(cfg, fake, &fakeMounter{ok: true})

	result, code := orch.Sync(context.Background())

	if result.Success {
		t.Fatal("failed transfer must fail the cycle")
	}
	if result.Error != "Sync failed" {
		t.Errorf("Error = %q", result.Error)
	}
	if !strings.Contains(result.Details, "[app]") || !strings.Contains(result.Details, "connection unexpectedly closed") {
		t.Errorf("Details must carry the transfer output: %q", result.Details)
	}
	if code != types.ExitSyncError {
		t.Errorf("exit code = %v", code)
	}

	// The manifest is still persisted for diagnostics; the token is not.
	if _, err := backup.LoadManifest(cfg.DestRoot); err != nil {
		t.Errorf("manifest should be persisted even on a failed transfer: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.DestRoot, backup.TimestampFileName)); err == nil {
		t.Error("token must be withheld on a failed transfer")
	}
}

func TestSyncStaleTokenDoesNotCountAsSuccess(t *testing.T) {
	cfg := testConfig(t)
	populateDest(t, cfg.DestRoot, map[string]string{"app.json": "{}"})
	if err := backup.WriteTimestamp(cfg.DestRoot, "2026-08-20T08:00:00Z"); err != nil {
		t.Fatal(err)
	}

	fake := &executor.FakeRunner{
		Responses: []executor.FakeResponse{
			{Match: "rsync", Result: executor.Result{ExitCode: 30}},
		},
	}
	orch := newTestOrchestrator(cfg, fake, &fakeMounter{ok: true})

	result, _ := orch.Sync(context.Background())
	if result.Success {
		t.Fatal("a stale token from an earlier cycle must not satisfy the fence")
	}

	token, err := backup.ReadTimestamp(cfg.DestRoot)
	if err != nil || token != "2026-08-20T08:00:00Z" {
		t.Errorf("previous token must be left in place, got %q (%v)", token, err)
	}
}

func TestSyncSuccess(t *testing.T) {
	cfg := testConfig(t)
	populateDest(t, cfg.DestRoot, map[string]string{
		"app.json":     `{"state":1}`,
		"sub/data.bin": "payload",
	})

	fake := &executor.FakeRunner{}
	orch := newTestOrchestrator(cfg, fake, &fakeMounter{ok: true})

	result, code := orch.Sync(context.Background())

	if !result.Success {
		t.Fatalf("sync failed: %q %q", result.Error, result.Details)
	}
	if code != types.ExitSuccess {
		t.Errorf("exit code = %v", code)
	}

	wantToken := cycleTime.UTC().Format(time.RFC3339)
	if result.LastSync != wantToken {
		t.Errorf("LastSync = %q, want %q", result.LastSync, wantToken)
	}
	if !datePrefixRe.MatchString(result.LastSync) {
		t.Errorf("LastSync must carry a date prefix: %q", result.LastSync)
	}

	token, err := backup.ReadTimestamp(cfg.DestRoot)
	if err != nil || token != wantToken {
		t.Errorf("persisted token = %q (%v)", token, err)
	}

	manifest, err := backup.LoadManifest(cfg.DestRoot)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(manifest.Entries) != 2 {
		t.Errorf("manifest entries = %+v", manifest.Entries)
	}

	// The transfer ran once per backup root.
	mirrors := 0
	for _, cmd := range fake.Commands() {
		if strings.Contains(cmd, "rsync") {
			mirrors++
			if !strings.Contains(cmd, "--delete") || !strings.Contains(cmd, "--size-only") {
				t.Errorf("unexpected mirror command: %s", cmd)
			}
		}
	}
	if mirrors != 1 {
		t.Errorf("expected 1 mirror command, got %d: %v", mirrors, fake.Commands())
	}
}

func TestSyncRotationFailureIsWarningOnly(t *testing.T) {
	cfg := testConfig(t)
	populateDest(t, cfg.DestRoot, map[string]string{"app.json": "{}"})

	fake := &executor.FakeRunner{
		Responses: []executor.FakeResponse{
			{Match: "cp -R", Result: executor.Result{ExitCode: 1, Stderr: "no space left on device"}},
		},
	}
	orch := newTestOrchestrator(cfg, fake, &fakeMounter{ok: true})

	result, code := orch.Sync(context.Background())

	if !result.Success {
		t.Fatalf("rotation failure must not fail the cycle: %q", result.Error)
	}
	if code != types.ExitSuccess {
		t.Errorf("exit code = %v", code)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "rotation") {
		t.Errorf("rotation failure must surface as a warning: %v", result.Warnings)
	}
}

// panicRunner panics on mirror commands to exercise the guarded region.
type panicRunner struct {
	executor.FakeRunner
}

func (p *panicRunner) Execute(ctx context.Context, command string, timeout time.Duration) (executor.Result, error) {
	if strings.Contains(command, "rsync") {
		panic("mirror blew up")
	}
	return p.FakeRunner.Execute(ctx, command, timeout)
}

func TestSyncRecoversFromPanicInGuardedSteps(t *testing.T) {
	cfg := testConfig(t)
	orch := newTestOrchestrator(cfg, &panicRunner{}, &fakeMounter{ok: true})

	result, code := orch.Sync(context.Background())

	if result.Success {
		t.Fatal("a panicking step must fail the cycle")
	}
	if !strings.Contains(result.Error, "unexpected error in transfer") ||
		!strings.Contains(result.Error, "mirror blew up") {
		t.Errorf("Error = %q", result.Error)
	}
	if code != types.ExitGenericError {
		t.Errorf("exit code = %v", code)
	}
}

func TestSyncNotifiesOutcome(t *testing.T) {
	cfg := testConfig(t)
	populateDest(t, cfg.DestRoot, map[string]string{"app.json": "{}"})

	notifier := &recordingNotifier{}
	orch := New(Deps{
		Logger: quietLogger(),
		Config: cfg,
		Runner: &executor.FakeRunner{},
		Mount:  &fakeMounter{ok: true},
		Clock:  fakeClock{t: cycleTime},
		Notify: notifier,
	})

	result, _ := orch.Sync(context.Background())
	if len(notifier.results) != 1 {
		t.Fatalf("notifier called %d times", len(notifier.results))
	}
	if notifier.results[0].Success != result.Success || notifier.results[0].LastSync != result.LastSync {
		t.Errorf("notified result differs: %+v vs %+v", notifier.results[0], result)
	}
}

// TestSyncThenDetectCorruption covers the full life of one generation: a
// successful cycle, an intact verification, then a single flipped byte that
// the next verification pinpoints.
func TestSyncThenDetectCorruption(t *testing.T) {
	cfg := testConfig(t)
	populateDest(t, cfg.DestRoot, map[string]string{
		"app.json":  `{"state":1}`,
		"notes.txt": "remember the milk",
	})

	logger := quietLogger()
	mount := &fakeMounter{ok: true}
	orch := newTestOrchestrator(cfg, &executor.FakeRunner{}, mount)
	if result, _ := orch.Sync(context.Background()); !result.Success {
		t.Fatalf("sync failed: %q", result.Error)
	}

	verifier := backup.NewVerifier(logger, cfg, checks.NewChecker(logger, cfg, nil), mount)
	if v := verifier.Verify(context.Background()); !v.Valid {
		t.Fatalf("fresh backup should verify: %v", v.Errors)
	}

	// Flip one byte without changing the size.
	target := filepath.Join(cfg.DestRoot, "app", "notes.txt")
	if err := os.WriteFile(target, []byte("remember the mild"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := verifier.Verify(context.Background())
	if v.Valid {
		t.Fatal("corrupted backup must not verify")
	}
	if len(v.Errors) != 1 || !strings.Contains(v.Errors[0], "app/notes.txt: checksum mismatch") {
		t.Errorf("Errors = %v", v.Errors)
	}
}

// Package backup builds, persists and verifies the content-checksum
// manifest describing the current backup generation, and rotates
// generations ahead of destructive transfers.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/kestrelops/worksafe/internal/logging"
)

const (
	// ManifestVersion is the current manifest format version.
	ManifestVersion = 1

	// ManifestFileName is the manifest document location under the
	// destination root.
	ManifestFileName = ".manifest.json"

	// TimestampFileName holds the single-line timestamp token that acts as
	// the cycle's durability fence.
	TimestampFileName = ".last-sync"
)

// ErrNoManifest signals that no manifest document exists at the destination
// (a legacy or never-synced backup, not a crash condition).
var ErrNoManifest = errors.New("no manifest found")

// ManifestEntry records one file of the current generation.
type ManifestEntry struct {
	// Path is relative to the destination root, slash-separated, with the
	// backup root name as its first element (e.g. "app/app.json").
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

// Manifest describes the current generation's contents at persistence time.
// It is only written after a transfer attempt and may be stale relative to
// later corruption; the verifier exists to detect exactly that.
type Manifest struct {
	Version   int             `json:"version"`
	Timestamp string          `json:"timestamp"`
	Entries   []ManifestEntry `json:"entries"`
}

// Builder enumerates destination files and computes per-file checksum/size
// records.
type Builder struct {
	logger *logging.Logger
}

// NewBuilder creates a manifest builder.
func NewBuilder(logger *logging.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build walks the current generation of every backup root under destRoot and
// returns one entry per regular file, in traversal order. Files that cannot
// be read or hashed are skipped and reported as warnings; a partial manifest
// is preferable to none.
func (b *Builder) Build(ctx context.Context, destRoot string, roots []string, now time.Time) (*Manifest, []string) {
	manifest := &Manifest{
		Version:   ManifestVersion,
		Timestamp: now.UTC().Format(time.RFC3339),
		Entries:   []ManifestEntry{},
	}
	var warnings []string

	for _, name := range roots {
		rootDir := filepath.Join(destRoot, name)
		err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				warnings = append(warnings, fmt.Sprintf("manifest: cannot access %s: %v", p, walkErr))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			checksum, size, err := HashFile(ctx, p)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				warnings = append(warnings, fmt.Sprintf("manifest: skipping %s: %v", p, err))
				return nil
			}

			rel, err := filepath.Rel(rootDir, p)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("manifest: skipping %s: %v", p, err))
				return nil
			}
			manifest.Entries = append(manifest.Entries, ManifestEntry{
				Path:     name + "/" + filepath.ToSlash(rel),
				Checksum: checksum,
				Size:     size,
			})
			return nil
		})
		if err != nil && ctx.Err() == nil {
			warnings = append(warnings, fmt.Sprintf("manifest: walk of %s aborted: %v", rootDir, err))
		}
	}

	b.logger.Debug("Manifest built: %d entries, %d skipped", len(manifest.Entries), len(warnings))
	return manifest, warnings
}

// WriteManifest persists the manifest document atomically to its fixed
// location under destRoot.
func WriteManifest(m *Manifest, destRoot string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')

	target := filepath.Join(destRoot, ManifestFileName)
	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", target, err)
	}
	return nil
}

// LoadManifest reads the persisted manifest from destRoot. A missing file
// returns ErrNoManifest.
func LoadManifest(destRoot string) (*Manifest, error) {
	target := filepath.Join(destRoot, ManifestFileName)
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", target, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", target, err)
	}
	return &m, nil
}

// WriteTimestamp writes the timestamp token. The token write is the
// durability fence: it must happen strictly after a successful manifest
// write, which is the caller's responsibility.
func WriteTimestamp(destRoot, token string) error {
	target := filepath.Join(destRoot, TimestampFileName)
	if err := atomic.WriteFile(target, strings.NewReader(token+"\n")); err != nil {
		return fmt.Errorf("failed to write timestamp token %s: %w", target, err)
	}
	return nil
}

// ReadTimestamp reads back the timestamp token, trimmed to its single line.
func ReadTimestamp(destRoot string) (string, error) {
	target := filepath.Join(destRoot, TimestampFileName)
	data, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

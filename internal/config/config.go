// Package config loads the env-file configuration of the backup pipeline.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kestrelops/worksafe/internal/types"
	"github.com/kestrelops/worksafe/pkg/utils"
)

// Keys that may appear multiple times; repeated occurrences append.
var multiValueKeys = map[string]bool{
	"BACKUP_ROOTS":     true,
	"EXCLUDE_PATTERNS": true,
}

// Config holds the whole configuration of the backup system.
type Config struct {
	// General settings
	DebugLevel types.LogLevel
	UseColor   bool
	LogPath    string

	// Remote storage settings
	RcloneRemote string // rclone remote name (e.g. "s3backup")
	MountPoint   string // where the remote is mounted
	DestRoot     string // directory under the mount holding the generations

	// Source settings
	SourceRoot   string   // local tree being backed up
	BackupRoots  []string // named subdirectories of SourceRoot to mirror
	SanityMarker string   // file (relative to SourceRoot) that must exist before any destructive step

	// Timeouts in seconds. Every external command is bounded; a timeout is a
	// terminal failure of that step, never retried automatically.
	MountTimeout    int
	SanityTimeout   int
	RotateTimeout   int
	TransferTimeout int

	// Patterns excluded from the mirror transfer (transient/lock/temp files).
	ExcludePatterns []string

	// Webhook notification settings
	WebhookEnabled bool
	WebhookURL     string
	WebhookTimeout int

	// Prometheus textfile metrics
	MetricsEnabled     bool
	MetricsTextfileDir string

	// Path the configuration was loaded from
	ConfigPath string
}

// Default returns a configuration populated with defaults; Load applies the
// file on top of it.
func Default() *Config {
	return &Config{
		DebugLevel:      types.LogLevelInfo,
		UseColor:        true,
		MountTimeout:    30,
		SanityTimeout:   5,
		RotateTimeout:   30,
		TransferTimeout: 60,
		ExcludePatterns: []string{"*.lock", "*.log", "*.tmp", "*.swp", ".#*"},
		WebhookTimeout:  10,
	}
}

// Load reads the env-file at path and returns the resulting configuration.
// Unknown keys are ignored so newer config files keep working with older
// binaries.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file %s: %w", path, err)
	}
	defer file.Close()

	cfg := Default()
	cfg.ConfigPath = path
	excludesFromFile := false

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := utils.SplitKeyValue(line)
		if !ok {
			return nil, fmt.Errorf("malformed line %d in %s: %q", lineNo, path, line)
		}

		switch key {
		case "LOG_LEVEL":
			if level, ok := types.ParseLogLevel(value); ok {
				cfg.DebugLevel = level
			}
		case "USE_COLOR":
			cfg.UseColor = utils.ParseBool(value)
		case "LOG_PATH":
			cfg.LogPath = value
		case "RCLONE_REMOTE":
			cfg.RcloneRemote = value
		case "MOUNT_POINT":
			cfg.MountPoint = value
		case "DEST_ROOT":
			cfg.DestRoot = value
		case "SOURCE_ROOT":
			cfg.SourceRoot = value
		case "BACKUP_ROOTS":
			cfg.BackupRoots = appendMulti(cfg.BackupRoots, value)
		case "SANITY_MARKER":
			cfg.SanityMarker = value
		case "MOUNT_TIMEOUT":
			cfg.MountTimeout = parseSeconds(value, cfg.MountTimeout)
		case "SANITY_TIMEOUT":
			cfg.SanityTimeout = parseSeconds(value, cfg.SanityTimeout)
		case "ROTATE_TIMEOUT":
			cfg.RotateTimeout = parseSeconds(value, cfg.RotateTimeout)
		case "TRANSFER_TIMEOUT":
			cfg.TransferTimeout = parseSeconds(value, cfg.TransferTimeout)
		case "EXCLUDE_PATTERNS":
			if !excludesFromFile {
				cfg.ExcludePatterns = nil
				excludesFromFile = true
			}
			cfg.ExcludePatterns = appendMulti(cfg.ExcludePatterns, value)
		case "WEBHOOK_ENABLED":
			cfg.WebhookEnabled = utils.ParseBool(value)
		case "WEBHOOK_URL":
			cfg.WebhookURL = value
		case "WEBHOOK_TIMEOUT":
			cfg.WebhookTimeout = parseSeconds(value, cfg.WebhookTimeout)
		case "METRICS_ENABLED":
			cfg.MetricsEnabled = utils.ParseBool(value)
		case "METRICS_TEXTFILE_DIR":
			cfg.MetricsTextfileDir = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// appendMulti appends comma-separated values, honoring the repeated-key
// convention used by multiValueKeys.
func appendMulti(dst []string, value string) []string {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			dst = append(dst, part)
		}
	}
	return dst
}

func parseSeconds(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Validate reports structural configuration problems. Presence of the
// remote-storage settings is intentionally NOT validated here; that is the
// pipeline's ConfigCheck, which must fail softly instead of erroring at load.
func (c *Config) Validate() error {
	for _, name := range c.BackupRoots {
		if strings.ContainsAny(name, "/\\") {
			return fmt.Errorf("backup root %q must be a plain directory name", name)
		}
	}
	if c.WebhookEnabled && strings.TrimSpace(c.WebhookURL) == "" {
		return fmt.Errorf("WEBHOOK_ENABLED is set but WEBHOOK_URL is empty")
	}
	if c.MetricsEnabled && strings.TrimSpace(c.MetricsTextfileDir) == "" {
		return fmt.Errorf("METRICS_ENABLED is set but METRICS_TEXTFILE_DIR is empty")
	}
	return nil
}

// IsRemoteConfigured reports whether the settings required for any remote
// operation are present. Missing settings short-circuit the pipeline with a
// not-configured failure before any side effect.
func (c *Config) IsRemoteConfigured() bool {
	return strings.TrimSpace(c.RcloneRemote) != "" &&
		strings.TrimSpace(c.MountPoint) != "" &&
		strings.TrimSpace(c.DestRoot) != "" &&
		strings.TrimSpace(c.SourceRoot) != "" &&
		strings.TrimSpace(c.SanityMarker) != "" &&
		len(c.BackupRoots) > 0
}

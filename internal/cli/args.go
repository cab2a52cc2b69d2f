// Package cli parses command-line arguments.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kestrelops/worksafe/internal/types"
	"github.com/kestrelops/worksafe/internal/version"
)

const defaultConfigPath = "./configs/worksafe.env"

// Args holds the parsed command-line arguments.
type Args struct {
	ConfigPath  string
	LogLevel    types.LogLevel
	LogLevelSet bool
	Verify      bool
	Install     bool
	ForceCLI    bool
	ShowVersion bool
	ShowHelp    bool
}

// Parse parses os.Args.
func Parse() (*Args, error) {
	return parseArgs(os.Args[1:], os.Stderr)
}

func parseArgs(argv []string, errOut io.Writer) (*Args, error) {
	args := &Args{ConfigPath: defaultConfigPath}

	fs := flag.NewFlagSet("worksafe", flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.StringVar(&args.ConfigPath, "config", defaultConfigPath, "Path to configuration file")
	fs.StringVar(&args.ConfigPath, "c", defaultConfigPath, "Path to configuration file (shorthand)")

	var logLevelStr string
	fs.StringVar(&logLevelStr, "log-level", "",
		"Log level (debug|info|warning|error|critical)")
	fs.StringVar(&logLevelStr, "l", "",
		"Log level (shorthand)")

	fs.BoolVar(&args.Verify, "verify", false,
		"Verify the persisted manifest against the backup instead of syncing")
	fs.BoolVar(&args.Install, "install", false,
		"Run the interactive setup wizard (generates the configuration file)")
	fs.BoolVar(&args.ForceCLI, "cli", false,
		"Use plain prompts instead of the TUI for --install")

	fs.BoolVar(&args.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&args.ShowVersion, "v", false, "Show version information (shorthand)")

	fs.BoolVar(&args.ShowHelp, "help", false, "Show help message")
	fs.BoolVar(&args.ShowHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		printHelp(errOut, "worksafe")
	}

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	if logLevelStr != "" {
		level, ok := types.ParseLogLevel(logLevelStr)
		if !ok {
			return nil, fmt.Errorf("unknown log level %q", logLevelStr)
		}
		args.LogLevel = level
		args.LogLevelSet = true
	}

	return args, nil
}

// ShowVersion prints version information to stdout.
func ShowVersion() {
	fmt.Printf("worksafe %s\n", version.String())
	if version.Commit != "" {
		fmt.Printf("  commit: %s\n", version.Commit)
	}
	if version.Date != "" {
		fmt.Printf("  built:  %s\n", version.Date)
	}
}

// ShowHelp prints the usage message to stdout.
func ShowHelp() {
	printHelp(os.Stdout, "worksafe")
}

func printHelp(w io.Writer, prog string) {
	fmt.Fprintf(w, `%s - workspace backup with checksum verification

Usage:
  %s [flags]             run one backup cycle (default)
  %s --verify [flags]    verify the persisted manifest
  %s --install [flags]   interactive setup wizard

Flags:
  -c, --config PATH      configuration file (default %s)
  -l, --log-level LEVEL  debug|info|warning|error|critical
      --verify           verify instead of sync
      --install          run the setup wizard
      --cli              plain prompts instead of the TUI wizard
  -v, --version          show version
  -h, --help             show this help
`, prog, prog, prog, prog, defaultConfigPath)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/version"
)

// exitBuildFailed matches the status cargo itself exits with on a failed build.
const exitBuildFailed = 101

var rootCmd = &cobra.Command{
	Use:           "testcdylib",
	Short:         "Build cdylib artifacts with cargo and report where they landed",
	Long:          `testcdylib drives cargo to build exactly one cdylib, either from a package directory, the current library or an example, and prints the produced shared library path.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupApp(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardownApp(nil)
	},
}

// main registers subcommands and persistent flags, runs the root command and
// maps the returned error to an exit status.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(permuteCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .testcdylib.yaml in . or $HOME)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "print how long each step took")
	pf.String("cargo", "", "cargo executable (default $CARGO or cargo on PATH)")
	pf.String("trace", "", "trace output file (- for stderr, .ndjson for JSON lines)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept in the trace ring buffer")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		teardownApp(err)
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cargo.ErrBuildFailed):
		return exitBuildFailed
	default:
		return 1
	}
}

func applyColor(mode string) error {
	switch mode {
	case "", "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/features"
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Build one cdylib and print the artifact path",
	Long: `Build one cdylib and print the produced shared library path.

Without --lib or --example, dir (default .) is built as an external package
with its own target directory. --lib builds the library of the package in the
working directory; --example NAME builds that example.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Bool("lib", false, "build the library of the current package")
	buildCmd.Flags().String("example", "", "build the named example of the current package")
	buildCmd.Flags().String("features", "", "comma-separated features; disables default features")
	buildCmd.Flags().Bool("default-features", false, "build with the package defaults, ignoring CARGO_FEATURE_* variables")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().StringSlice("rustflag", nil, "extra compiler flag, repeatable (default --cfg test_cdylib)")
	buildCmd.MarkFlagsMutuallyExclusive("lib", "example")
	buildCmd.MarkFlagsMutuallyExclusive("features", "default-features")
}

func runBuild(cmd *cobra.Command, args []string) error {
	selected, err := selectFeatures(cmd, os.Environ())
	if err != nil {
		return err
	}
	intent, err := buildIntent(cmd, args, selected)
	if err != nil {
		return err
	}
	mode, err := readUIMode(app.cfg.UI)
	if err != nil {
		return err
	}
	useTUI := shouldUseTUI(mode)
	builder := newBuilder(app.cfg.Quiet || useTUI)
	timer := newTimer(cmd)

	var artifact string
	if useTUI {
		phase := timer.Begin("cargo metadata")
		total := packageCount(cmd, builder.Toolchain, intent)
		timer.End(phase, fmt.Sprintf("%d packages", total))
		phase = timer.Begin("cargo build")
		artifact, err = runBuildWithUI(cmd.Context(), intent.String(), total, builder, intent)
		timer.End(phase, artifact)
	} else {
		phase := timer.Begin("cargo build")
		artifact, err = builder.Build(cmd.Context(), intent)
		timer.End(phase, artifact)
	}
	printTimings(timer)
	if err != nil {
		return err
	}
	if !app.cfg.Quiet {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("built"), intent)
	}
	fmt.Fprintln(cmd.OutOrStdout(), artifact)
	return nil
}

// selectFeatures resolves --features, --default-features and, failing both,
// the CARGO_FEATURE_* variables of the enclosing build.
func selectFeatures(cmd *cobra.Command, environ []string) (cargo.Features, error) {
	if f := cmd.Flags().Lookup("features"); f != nil && f.Changed {
		return features.Parse(f.Value.String()), nil
	}
	useDefault, err := cmd.Flags().GetBool("default-features")
	if err != nil {
		return cargo.Features{}, err
	}
	if useDefault {
		return cargo.DefaultFeatures(), nil
	}
	return features.Find(environ), nil
}

func buildIntent(cmd *cobra.Command, args []string, f cargo.Features) (cargo.Intent, error) {
	lib, err := cmd.Flags().GetBool("lib")
	if err != nil {
		return cargo.Intent{}, err
	}
	example, err := cmd.Flags().GetString("example")
	if err != nil {
		return cargo.Intent{}, err
	}
	if (lib || example != "") && len(args) > 0 {
		return cargo.Intent{}, errors.New("a directory argument cannot be combined with --lib or --example")
	}
	switch {
	case lib:
		return cargo.SelfLibrary(f), nil
	case example != "":
		return cargo.Example(example, f), nil
	}
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return cargo.Intent{}, fmt.Errorf("failed to resolve %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return cargo.Intent{}, err
	}
	if !info.IsDir() {
		return cargo.Intent{}, fmt.Errorf("%s is not a directory", abs)
	}
	return cargo.ExternalPackage(abs, f), nil
}

// packageCount sizes the progress bar. Failures leave the bar indeterminate.
func packageCount(cmd *cobra.Command, tc *cargo.Toolchain, intent cargo.Intent) int {
	md, err := tc.Metadata(cmd.Context(), intent.Dir())
	if err != nil {
		return 0
	}
	return len(md.Packages)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/config"
	"github.com/airblast-dev/test-cdylib/internal/rustflags"
)

// appState is populated once per invocation by setupApp.
type appState struct {
	cfg     config.Config
	cleanup func(failed bool)
}

var app appState

// flagKeys binds persistent flags onto config keys.
var flagKeys = map[string]string{
	"cargo":           "cargo_path",
	"quiet":           "quiet",
	"trace":           "trace.output",
	"trace-level":     "trace.level",
	"trace-mode":      "trace.mode",
	"trace-format":    "trace.format",
	"trace-ring-size": "trace.ring_size",
	"trace-heartbeat": "trace.heartbeat",
}

func setupApp(cmd *cobra.Command) error {
	root := cmd.Root()
	colorMode, err := root.PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColor(colorMode); err != nil {
		return err
	}
	cfgFile, err := root.PersistentFlags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, root.PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	if f := cmd.Flags().Lookup("ui"); f != nil {
		if err := v.BindPFlag("ui", f); err != nil {
			return fmt.Errorf("failed to bind --ui: %w", err)
		}
	}
	if f := cmd.Flags().Lookup("rustflag"); f != nil {
		if err := v.BindPFlag("rustflags", f); err != nil {
			return fmt.Errorf("failed to bind --rustflag: %w", err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	app.cfg = cfg

	cleanup, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	app.cleanup = cleanup
	return nil
}

func teardownApp(err error) {
	if app.cleanup == nil {
		return
	}
	cleanup := app.cleanup
	app.cleanup = nil
	cleanup(err != nil)
}

// newBuilder assembles a Builder from the loaded configuration.
func newBuilder(quiet bool) *cargo.Builder {
	return &cargo.Builder{
		Toolchain:   &cargo.Toolchain{Path: app.cfg.CargoPath},
		Env:         rustflags.Mutator{Flags: configuredFlags()},
		Stderr:      os.Stderr,
		Diagnostics: os.Stderr,
		Quiet:       quiet,
	}
}

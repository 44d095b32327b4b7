package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/manifest"
	"github.com/airblast-dev/test-cdylib/internal/project"
	"github.com/airblast-dev/test-cdylib/internal/rustflags"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [dir]",
	Short: "Print the synthetic Cargo.toml and cargo config without building",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		libPath, err := cmd.Flags().GetString("lib-path")
		if err != nil {
			return err
		}
		suffix, err := cmd.Flags().GetString("suffix")
		if err != nil {
			return err
		}
		selected := cargo.DefaultFeatures()
		if f := cmd.Flags().Lookup("features"); f != nil && f.Changed {
			selected = parseFeatureSet(f.Value.String())
		}
		src, err := loadSource(args)
		if err != nil {
			return err
		}
		if suffix == "" {
			suffix = project.PermutationSuffix(selected)
		}
		m, err := project.Synthesize(src, project.Options{Suffix: suffix, LibPath: libPath, Features: selected})
		if err != nil {
			return err
		}
		return renderManifest(cmd.OutOrStdout(), m, rustflags.Mutator{Flags: configuredFlags()}.Config())
	},
}

func init() {
	manifestCmd.Flags().String("lib-path", "", "root the cdylib at this file and depend on the package instead")
	manifestCmd.Flags().String("suffix", "", "package name suffix (default derived from --features)")
	manifestCmd.Flags().String("features", "", "features of the package dependency when --lib-path is set")
	manifestCmd.Flags().StringSlice("rustflag", nil, "extra compiler flag, repeatable")
}

func renderManifest(out io.Writer, m *manifest.Manifest, cfg manifest.Config) error {
	desc, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	conf, err := manifest.MarshalConfig(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# %s\n%s\n# .cargo/config.toml\n%s", project.ManifestName, desc, conf)
	return nil
}

// loadSource reads the package containing args[0] (default .).
func loadSource(args []string) (*project.Source, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path, ok, err := project.FindManifest(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no %s found in %s or its parents", project.ManifestName, dir)
	}
	return project.LoadSource(path, "")
}

func configuredFlags() []string {
	if app.cfg.Rustflags == nil {
		return rustflags.Default
	}
	return app.cfg.Rustflags
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/features"
	"github.com/airblast-dev/test-cdylib/internal/observ"
	"github.com/airblast-dev/test-cdylib/internal/project"
	"github.com/airblast-dev/test-cdylib/internal/rustflags"
	"github.com/airblast-dev/test-cdylib/internal/trace"
)

var permuteCmd = &cobra.Command{
	Use:   "permute [dir]",
	Short: "Build the package once per feature set in isolated synthetic packages",
	Long: `Build the package once per --set in isolated synthetic packages.

Each set is a comma-separated feature list; "default" keeps the package
defaults and "none" (or an empty value) disables every feature. With
--lib-path the cdylib is rooted at that file and links the package as a
dependency with the selected features.

Prints one "set<TAB>artifact" line per set, in the order given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPermute,
}

func init() {
	permuteCmd.Flags().StringArray("set", []string{"default"}, "feature set to build, repeatable")
	permuteCmd.Flags().String("lib-path", "", "root the cdylib at this file and depend on the package instead")
	permuteCmd.Flags().Int("jobs", 1, "feature sets built concurrently")
	permuteCmd.Flags().StringSlice("rustflag", nil, "extra compiler flag, repeatable")
}

// permutation is one feature set and what it produced.
type permutation struct {
	label    string
	features cargo.Features
	artifact string
}

func runPermute(cmd *cobra.Command, args []string) error {
	sets, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return err
	}
	libPath, err := cmd.Flags().GetString("lib-path")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	src, err := loadSource(args)
	if err != nil {
		return err
	}

	perms := make([]*permutation, 0, len(sets))
	for _, set := range sets {
		f := parseFeatureSet(set)
		perms = append(perms, &permutation{label: f.String(), features: f})
	}

	timer := newTimer(cmd)
	builder := newBuilder(app.cfg.Quiet)
	mutator := rustflags.Mutator{Flags: configuredFlags()}
	err = buildPermutations(cmd.Context(), builder, src, libPath, app.cfg.TargetRoot, mutator, perms, jobs, timer)
	printTimings(timer)
	if err != nil {
		return err
	}
	return renderPermutations(cmd.OutOrStdout(), perms)
}

// buildPermutations fills in each artifact. The first failure cancels the
// builds still running.
func buildPermutations(ctx context.Context, b *cargo.Builder, src *project.Source, libPath, root string, mutator rustflags.Mutator, perms []*permutation, jobs int, timer *observ.Timer) error {
	if jobs < 1 {
		jobs = 1
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "permute", trace.ParentFromContext(ctx))
	span.WithExtra("sets", fmt.Sprint(len(perms))).WithExtra("jobs", fmt.Sprint(jobs))
	ctx = trace.WithParent(ctx, span)

	// Distinct permutations may still synthesize the same directory.
	var dirLocks sync.Map

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, perm := range perms {
		perm := perm
		g.Go(func() error {
			phase := timer.Begin("prepare " + perm.label)
			m, err := project.Synthesize(src, project.Options{
				Suffix:   project.PermutationSuffix(perm.features),
				LibPath:  libPath,
				Features: perm.features,
			})
			if err != nil {
				timer.End(phase, err.Error())
				return fmt.Errorf("set %s: %w", perm.label, err)
			}
			p, err := project.Prepare(root, m, mutator.Config())
			if err != nil {
				timer.End(phase, err.Error())
				return fmt.Errorf("set %s: %w", perm.label, err)
			}
			timer.End(phase, p.Dir)
			mu, _ := dirLocks.LoadOrStore(p.Dir, &sync.Mutex{})
			mu.(*sync.Mutex).Lock()
			defer mu.(*sync.Mutex).Unlock()

			invoke := perm.features
			if libPath != "" {
				invoke = cargo.DefaultFeatures()
			}
			phase = timer.Begin("build " + perm.label)
			artifact, err := project.Build(gctx, b, p, invoke)
			timer.End(phase, artifact)
			if err != nil {
				return fmt.Errorf("set %s: %w", perm.label, err)
			}
			perm.artifact = artifact
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		span.End(err.Error())
		return err
	}
	span.End("ok")
	return nil
}

func renderPermutations(out io.Writer, perms []*permutation) error {
	for _, p := range perms {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", p.label, p.artifact); err != nil {
			return err
		}
	}
	return nil
}

// parseFeatureSet reads one --set value.
func parseFeatureSet(value string) cargo.Features {
	switch strings.TrimSpace(value) {
	case "default":
		return cargo.DefaultFeatures()
	case "", "none":
		return cargo.Only()
	default:
		return features.Parse(value)
	}
}

// Package cargo drives cargo builds of cdylib targets and resolves the
// produced shared library from cargo's JSON message stream.
package cargo

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/airblast-dev/test-cdylib/internal/trace"
)

// EnvMutator adjusts the child environment before cargo starts, typically to
// inject extra compiler flags.
type EnvMutator interface {
	Apply(env []string) []string
}

// Builder runs one cargo build per call to Build.
type Builder struct {
	Toolchain *Toolchain
	// Env mutates the child environment; nil passes it through unchanged.
	Env EnvMutator
	// Stderr receives cargo's own stderr. Nil inherits os.Stderr.
	Stderr io.Writer
	// Diagnostics receives rendered compiler messages as they arrive. Nil means os.Stderr.
	Diagnostics io.Writer
	// Progress observes decoded messages; optional.
	Progress ProgressSink
	// Quiet passes --quiet so cargo's status lines do not interleave with a TUI.
	Quiet bool
}

// buildArgs renders the cargo argument list for intent.
func buildArgs(intent Intent, offline, quiet bool) []string {
	args := make([]string, 0, 8)
	if offline {
		args = append(args, "--offline")
	}
	args = append(args, "build", "--message-format=json")
	if quiet {
		args = append(args, "--quiet")
	}
	args = append(args, intent.Features().Args()...)
	args = append(args, intent.targetArgs()...)
	return args
}

// buildEnv derives the child environment from base.
func buildEnv(base []string, intent Intent, mutate EnvMutator) []string {
	env := make([]string, 0, len(base)+1)
	env = append(env, base...)
	if dir := intent.targetDir(); dir != "" {
		env = append(env, TargetDirEnv+"="+dir)
	}
	if mutate != nil {
		env = mutate.Apply(env)
	}
	return env
}

// Command prepares, but does not start, the cargo invocation for intent.
func (b *Builder) Command(ctx context.Context, intent Intent) *exec.Cmd {
	tc := b.Toolchain
	if tc == nil {
		tc = &Toolchain{}
	}
	offline := tc.SupportsOffline(ctx)

	cmd := tc.command(ctx, buildArgs(intent, offline, b.Quiet)...)
	cmd.Env = buildEnv(cmd.Env, intent, b.Env)
	if intent.Kind() == IntentExternalPackage {
		cmd.Dir = intent.Dir()
	}
	cmd.Stderr = b.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd
}

// Build runs cargo for intent and returns the path of the produced library.
//
// Errors match ErrSpawn, ErrStreamDecode or ErrBuildFailed (ErrNoArtifact
// when cargo succeeded without reporting an artifact).
func (b *Builder) Build(ctx context.Context, intent Intent) (string, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeToolchain, "cargo build", trace.ParentFromContext(ctx))
	span.WithExtra("intent", intent.String()).WithExtra("features", intent.Features().String())

	cmd := b.Command(ctx, intent)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		span.End("spawn failed")
		return "", &SpawnError{Path: cmd.Path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		span.End("spawn failed")
		return "", &SpawnError{Path: cmd.Path, Err: err}
	}

	diagnostics := b.Diagnostics
	if diagnostics == nil {
		diagnostics = os.Stderr
	}
	r := &resolver{
		diagnostics: diagnostics,
		progress:    b.Progress,
		tracer:      tracer,
		parent:      span.ID(),
	}
	path, err := r.run(stdout, cmdProcess{cmd: cmd})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("cargo build interrupted: %w", ctxErr)
		}
		span.End(err.Error())
		return "", err
	}
	span.WithExtra("artifact", path).End("ok")
	return path, nil
}

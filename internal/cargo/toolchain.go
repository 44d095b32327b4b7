package cargo

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/airblast-dev/test-cdylib/internal/trace"
)

// Executable overrides the cargo binary at link time:
//
//	go build -ldflags "-X github.com/airblast-dev/test-cdylib/internal/cargo.Executable=/opt/rust/bin/cargo"
var Executable = ""

const defaultExecutable = "cargo"

// Toolchain locates and runs the cargo executable.
type Toolchain struct {
	// Path is an explicit executable; empty falls back to Executable, $CARGO and then "cargo" on PATH.
	Path string
	// Env is the base environment of every invocation. Nil means os.Environ().
	Env []string
}

// Resolve returns the executable that invocations will run.
func (t *Toolchain) Resolve() string {
	if t != nil && strings.TrimSpace(t.Path) != "" {
		return t.Path
	}
	if Executable != "" {
		return Executable
	}
	if v, ok := lookupEnv(t.environ(), "CARGO"); ok && v != "" {
		return v
	}
	return defaultExecutable
}

func (t *Toolchain) environ() []string {
	if t == nil || t.Env == nil {
		return os.Environ()
	}
	return append([]string{}, t.Env...)
}

func (t *Toolchain) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, t.Resolve(), args...)
	cmd.Env = t.environ()
	return cmd
}

var (
	offlineProbes singleflight.Group
	offlineMu     sync.Mutex
	offlineCache  = make(map[string]bool)
)

// SupportsOffline reports whether cargo accepts --offline.
//
// The answer is cached per executable for the lifetime of the process;
// concurrent callers share a single probe. Any probe failure reads as
// "unsupported".
func (t *Toolchain) SupportsOffline(ctx context.Context) bool {
	path := t.Resolve()

	offlineMu.Lock()
	supported, ok := offlineCache[path]
	offlineMu.Unlock()
	if ok {
		return supported
	}

	v, _, _ := offlineProbes.Do(path, func() (any, error) {
		supported := t.probeOffline(ctx)
		if ctx.Err() == nil {
			offlineMu.Lock()
			offlineCache[path] = supported
			offlineMu.Unlock()
		}
		return supported, nil
	})
	supported, _ = v.(bool)
	return supported
}

func (t *Toolchain) probeOffline(ctx context.Context) bool {
	cmd := t.command(ctx, "--version", "--offline")
	err := cmd.Run()

	detail := "supported"
	if err != nil {
		detail = "unsupported: " + err.Error()
	}
	trace.Point(trace.FromContext(ctx), trace.ScopeToolchain, trace.ParentFromContext(ctx), "offline-probe", detail, map[string]string{"cargo": cmd.Path})
	return err == nil
}

func lookupEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}

// Package rustflags injects extra compiler flags into a cargo environment.
package rustflags

import (
	"strings"

	"github.com/airblast-dev/test-cdylib/internal/manifest"
)

const (
	// Env is the space-separated flags variable cargo reads.
	Env = "RUSTFLAGS"
	// EncodedEnv takes precedence over Env when set; flags are 0x1f-separated.
	EncodedEnv = "CARGO_ENCODED_RUSTFLAGS"

	encodedSep = "\x1f"
)

// Default marks builds driven by this tool so crates can detect them with
// #[cfg(test_cdylib)].
var Default = []string{"--cfg", "test_cdylib"}

// Mutator appends Flags to whichever rustflags variable cargo will honor.
type Mutator struct {
	Flags []string
}

// Apply returns env with the flags appended; existing flags are kept first.
func (m Mutator) Apply(env []string) []string {
	if len(m.Flags) == 0 {
		return env
	}
	out := make([]string, 0, len(env)+1)
	if idx := lastIndex(env, EncodedEnv); idx >= 0 {
		current := strings.TrimPrefix(env[idx], EncodedEnv+"=")
		out = append(out, without(env, EncodedEnv)...)
		return append(out, EncodedEnv+"="+join(current, m.Flags, encodedSep))
	}
	current := ""
	if idx := lastIndex(env, Env); idx >= 0 {
		current = strings.TrimPrefix(env[idx], Env+"=")
	}
	out = append(out, without(env, Env)...)
	return append(out, Env+"="+join(current, m.Flags, " "))
}

// Config returns the companion .cargo/config.toml carrying the same flags.
func (m Mutator) Config() manifest.Config {
	return manifest.Config{Build: manifest.Build{Rustflags: append([]string{}, m.Flags...)}}
}

func join(current string, flags []string, sep string) string {
	added := strings.Join(flags, sep)
	if strings.TrimSpace(current) == "" {
		return added
	}
	return current + sep + added
}

func lastIndex(env []string, key string) int {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return i
		}
	}
	return -1
}

func without(env []string, key string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return out
}

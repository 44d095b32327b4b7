// Package features discovers which cargo features the current build enables.
package features

import (
	"sort"
	"strings"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
)

// envPrefix is how cargo exports enabled features to build scripts and
// test binaries: CARGO_FEATURE_<NAME>, uppercased with '-' turned into '_'.
const envPrefix = "CARGO_FEATURE_"

// Find recovers the enabled feature set from environ. Without any
// CARGO_FEATURE_ variable the package defaults are kept.
//
// The encoding is lossy: "foo-bar" and "foo_bar" both export
// CARGO_FEATURE_FOO_BAR and come back as "foo-bar".
func Find(environ []string) cargo.Features {
	seen := make(map[string]struct{})
	for _, kv := range environ {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, envPrefix)
		if name == "" {
			continue
		}
		seen[strings.ReplaceAll(strings.ToLower(name), "_", "-")] = struct{}{}
	}
	if len(seen) == 0 {
		return cargo.DefaultFeatures()
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return cargo.Only(names...)
}

// Parse reads a --features value. Names may be separated by commas or
// whitespace; order is kept and duplicates dropped.
func Parse(value string) cargo.Features {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	names := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		names = append(names, f)
	}
	return cargo.Only(names...)
}

package manifest

import (
	"errors"
	"path/filepath"
)

// Dependency is one entry of the [dependencies] table.
type Dependency struct {
	Version  string `toml:"version,omitempty"`
	Path     string `toml:"path,omitempty"`
	Git      string `toml:"git,omitempty"`
	Branch   string `toml:"branch,omitempty"`
	Tag      string `toml:"tag,omitempty"`
	Rev      string `toml:"rev,omitempty"`
	Registry string `toml:"registry,omitempty"`
	// Package renames the dependency.
	Package string `toml:"package,omitempty"`
	// DefaultFeatures is nil when cargo's default applies; false is a real override.
	DefaultFeatures *bool    `toml:"default-features"`
	Features        []string `toml:"features,omitempty"`
	Optional        bool     `toml:"optional,omitempty"`
	// Workspace marks `{ workspace = true }` entries that inherit from the
	// enclosing workspace; they must be resolved before a synthetic build.
	Workspace bool `toml:"workspace,omitempty"`
}

// Patch overrides a dependency source in [patch.<registry>] or [replace].
type Patch struct {
	Version string `toml:"version,omitempty"`
	Path    string `toml:"path,omitempty"`
	Git     string `toml:"git,omitempty"`
	Branch  string `toml:"branch,omitempty"`
	Tag     string `toml:"tag,omitempty"`
	Rev     string `toml:"rev,omitempty"`
	Package string `toml:"package,omitempty"`
}

// RegistryPatch maps crate names to their patch within one registry.
type RegistryPatch map[string]Patch

// Bool returns a pointer to v, for Dependency.DefaultFeatures.
func Bool(v bool) *bool { return &v }

func (d Dependency) validate() error {
	if d.Workspace {
		return errors.New("inherits from a workspace and was not resolved")
	}
	if d.Version == "" && d.Path == "" && d.Git == "" {
		return errors.New("needs a version, path or git source")
	}
	refs := 0
	for _, r := range []string{d.Branch, d.Tag, d.Rev} {
		if r != "" {
			refs++
		}
	}
	if refs > 1 {
		return errors.New("only one of branch, tag or rev may be set")
	}
	if refs > 0 && d.Git == "" {
		return errors.New("branch, tag and rev require git")
	}
	return nil
}

// Rebase makes a relative Path absolute against base.
func (d Dependency) Rebase(base string) Dependency {
	if d.Path != "" && !filepath.IsAbs(d.Path) {
		d.Path = filepath.Join(base, d.Path)
	}
	d.Features = append([]string(nil), d.Features...)
	return d
}

// Rebase makes a relative Path absolute against base.
func (p Patch) Rebase(base string) Patch {
	if p.Path != "" && !filepath.IsAbs(p.Path) {
		p.Path = filepath.Join(base, p.Path)
	}
	return p
}

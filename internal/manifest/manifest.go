// Package manifest models the synthetic Cargo.toml and .cargo/config.toml
// written for throwaway cdylib packages.
package manifest

import "fmt"

// Edition is a Rust language edition.
type Edition string

const (
	Edition2015 Edition = "2015"
	Edition2018 Edition = "2018"
	Edition2021 Edition = "2021"
	Edition2024 Edition = "2024"
)

// ParseEdition validates an edition string. Empty means 2015, as cargo assumes.
func ParseEdition(s string) (Edition, error) {
	switch Edition(s) {
	case "":
		return Edition2015, nil
	case Edition2015, Edition2018, Edition2021, Edition2024:
		return Edition(s), nil
	default:
		return "", fmt.Errorf("unknown edition %q", s)
	}
}

// CrateTypeCDylib is the only crate type a synthetic library declares.
const CrateTypeCDylib = "cdylib"

// Manifest is a synthetic package descriptor.
//
// Features, Patch and Replace are omitted from the encoding when empty and
// Workspace when nil: cargo reads their presence as an override. Workspace
// must not be tagged omitempty, the encoder dereferences it and would drop
// the empty marker.
type Manifest struct {
	Package      Package                  `toml:"package"`
	Features     map[string][]string      `toml:"features,omitempty"`
	Dependencies map[string]Dependency    `toml:"dependencies"`
	Lib          Lib                      `toml:"lib"`
	Workspace    *Workspace               `toml:"workspace"`
	Patch        map[string]RegistryPatch `toml:"patch,omitempty"`
	Replace      map[string]Patch         `toml:"replace,omitempty"`
}

// Package is the [package] table.
type Package struct {
	Name    string  `toml:"name"`
	Version string  `toml:"version"`
	Edition Edition `toml:"edition"`
	Publish bool    `toml:"publish"`
}

// Lib is the [lib] table. Build it with NewLib so the crate type stays cdylib.
type Lib struct {
	Path      string   `toml:"path"`
	CrateType []string `toml:"crate-type"`
}

// NewLib declares a cdylib target rooted at path.
func NewLib(path string) Lib {
	return Lib{Path: path, CrateType: []string{CrateTypeCDylib}}
}

// Workspace is the empty [workspace] marker that detaches a synthetic
// package from any enclosing workspace.
type Workspace struct{}

// Config is the companion .cargo/config.toml.
type Config struct {
	Build Build `toml:"build"`
}

// Build is the [build] table of Config.
type Build struct {
	Rustflags []string `toml:"rustflags"`
}

// Validate reports manifests cargo would reject before a build is attempted.
func (m *Manifest) Validate() error {
	if m.Package.Name == "" {
		return fmt.Errorf("manifest: missing [package].name")
	}
	if m.Package.Version == "" {
		return fmt.Errorf("manifest: missing [package].version")
	}
	if _, err := ParseEdition(string(m.Package.Edition)); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if m.Lib.Path == "" {
		return fmt.Errorf("manifest: missing [lib].path")
	}
	if len(m.Lib.CrateType) != 1 || m.Lib.CrateType[0] != CrateTypeCDylib {
		return fmt.Errorf("manifest: [lib].crate-type must be [%q]", CrateTypeCDylib)
	}
	for name, dep := range m.Dependencies {
		if err := dep.validate(); err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", name, err)
		}
	}
	return nil
}

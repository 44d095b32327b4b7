package project

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/manifest"
)

// SyntheticVersion is the version every synthetic package declares.
const SyntheticVersion = "0.0.0"

// Options selects what a synthetic package builds.
type Options struct {
	// Suffix is appended to the source package name.
	Suffix string
	// LibPath, when set, roots the cdylib at another file (an example or a
	// test fixture) that links the source package as a dependency. When
	// empty the source library itself is rebuilt.
	LibPath string
	// Features selects the source package features when LibPath is set.
	Features cargo.Features
}

// Synthesize derives a detached cdylib package from src.
func Synthesize(src *Source, opts Options) (*manifest.Manifest, error) {
	if src == nil {
		return nil, errors.New("synthesize: nil source")
	}
	name := src.Name
	if opts.Suffix != "" {
		name = src.Name + "-" + opts.Suffix
	}
	name = SanitizeName(name)

	m := &manifest.Manifest{
		Package: manifest.Package{
			Name:    name,
			Version: SyntheticVersion,
			Edition: src.Edition,
			Publish: false,
		},
		Dependencies: make(map[string]manifest.Dependency, len(src.Dependencies)+len(src.DevDependencies)+1),
		Workspace:    &manifest.Workspace{},
		Patch:        copyPatch(src.Patch),
		Replace:      copyReplace(src.Replace),
	}
	for n, d := range src.Dependencies {
		m.Dependencies[n] = d.Rebase(src.Dir)
	}

	if opts.LibPath == "" {
		m.Lib = manifest.NewLib(src.LibPath)
		if len(src.Features) > 0 {
			m.Features = make(map[string][]string, len(src.Features))
			for k, v := range src.Features {
				m.Features[k] = append(make([]string, 0, len(v)), v...)
			}
		}
	} else {
		libPath := opts.LibPath
		if !filepath.IsAbs(libPath) {
			libPath = filepath.Join(src.Dir, libPath)
		}
		m.Lib = manifest.NewLib(libPath)
		for n, d := range src.DevDependencies {
			m.Dependencies[n] = d.Rebase(src.Dir)
		}
		self := manifest.Dependency{Path: src.Dir}
		if opts.Features.IsSet() {
			self.DefaultFeatures = manifest.Bool(false)
			self.Features = opts.Features.Names()
		}
		m.Dependencies[src.Name] = self
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// PermutationSuffix names a feature selection for use in a package name.
func PermutationSuffix(f cargo.Features) string {
	if !f.IsSet() {
		return "default"
	}
	if len(f.Names()) == 0 {
		return "none"
	}
	return strings.Join(f.Names(), "-")
}

func copyPatch(in map[string]manifest.RegistryPatch) map[string]manifest.RegistryPatch {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]manifest.RegistryPatch, len(in))
	for registry, patches := range in {
		p := make(manifest.RegistryPatch, len(patches))
		for k, v := range patches {
			p[k] = v
		}
		out[registry] = p
	}
	return out
}

func copyReplace(in map[string]manifest.Patch) map[string]manifest.Patch {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]manifest.Patch, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

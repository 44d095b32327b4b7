package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/airblast-dev/test-cdylib/internal/manifest"
)

// ErrNoWorkspace is returned when a package inherits from a workspace that
// cannot be found.
var ErrNoWorkspace = errors.New("no enclosing workspace")

// Source is the subset of a caller's Cargo.toml a synthetic package is
// derived from. Every path in it is absolute.
type Source struct {
	ManifestPath    string
	Dir             string
	Name            string
	Version         string
	Edition         manifest.Edition
	LibPath         string
	Features        map[string][]string
	Dependencies    map[string]manifest.Dependency
	DevDependencies map[string]manifest.Dependency
	Patch           map[string]manifest.RegistryPatch
	Replace         map[string]manifest.Patch
}

type rawPackage struct {
	Name    string `toml:"name"`
	Version any    `toml:"version"`
	Edition any    `toml:"edition"`
}

type rawWorkspace struct {
	Package struct {
		Version string `toml:"version"`
		Edition string `toml:"edition"`
	} `toml:"package"`
	Dependencies map[string]manifest.Dependency `toml:"dependencies"`
}

type rawManifest struct {
	Package *rawPackage `toml:"package"`
	Lib     *struct {
		Path string `toml:"path"`
	} `toml:"lib"`
	Features        map[string][]string               `toml:"features"`
	Dependencies    map[string]manifest.Dependency    `toml:"dependencies"`
	DevDependencies map[string]manifest.Dependency    `toml:"dev-dependencies"`
	Patch           map[string]manifest.RegistryPatch `toml:"patch"`
	Replace         map[string]manifest.Patch         `toml:"replace"`
	Workspace       *rawWorkspace                     `toml:"workspace"`
}

func readRaw(path string) (*rawManifest, error) {
	var raw rawManifest
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &raw, nil
}

// LoadSource reads the package at manifestPath. workspaceRoot names the
// directory of the enclosing workspace manifest; when empty the parents of
// the package are searched if anything is inherited.
func LoadSource(manifestPath, workspaceRoot string) (*Source, error) {
	manifestPath, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	raw, err := readRaw(manifestPath)
	if err != nil {
		return nil, err
	}
	if raw.Package == nil {
		return nil, fmt.Errorf("%s: missing [package] table", manifestPath)
	}
	dir := filepath.Dir(manifestPath)

	ws := workspaceLoader{pkgDir: dir, root: workspaceRoot}
	if raw.Workspace != nil {
		ws.loaded, ws.dir = raw.Workspace, dir
	}

	src := &Source{
		ManifestPath: manifestPath,
		Dir:          dir,
		Name:         raw.Package.Name,
		Features:     raw.Features,
		Patch:        map[string]manifest.RegistryPatch{},
		Replace:      map[string]manifest.Patch{},
	}
	if src.Name == "" {
		return nil, fmt.Errorf("%s: missing [package].name", manifestPath)
	}
	if src.Version, err = inheritString(raw.Package.Version, "version", "0.0.0", &ws, func(w *rawWorkspace) string { return w.Package.Version }); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	edition, err := inheritString(raw.Package.Edition, "edition", "", &ws, func(w *rawWorkspace) string { return w.Package.Edition })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	if src.Edition, err = manifest.ParseEdition(edition); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	src.LibPath = filepath.Join(dir, "src", "lib.rs")
	if raw.Lib != nil && raw.Lib.Path != "" {
		src.LibPath = raw.Lib.Path
		if !filepath.IsAbs(src.LibPath) {
			src.LibPath = filepath.Join(dir, src.LibPath)
		}
	}

	if src.Dependencies, err = resolveDeps(raw.Dependencies, dir, &ws); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	if src.DevDependencies, err = resolveDeps(raw.DevDependencies, dir, &ws); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	for registry, patches := range raw.Patch {
		out := make(manifest.RegistryPatch, len(patches))
		for name, p := range patches {
			out[name] = p.Rebase(dir)
		}
		src.Patch[registry] = out
	}
	for name, p := range raw.Replace {
		src.Replace[name] = p.Rebase(dir)
	}
	return src, nil
}

// workspaceLoader finds and caches the enclosing workspace on first use.
type workspaceLoader struct {
	pkgDir string
	root   string
	dir    string
	loaded *rawWorkspace
}

func (w *workspaceLoader) get() (*rawWorkspace, string, error) {
	if w.loaded != nil {
		return w.loaded, w.dir, nil
	}
	if w.root != "" {
		path := filepath.Join(w.root, ManifestName)
		raw, err := readRaw(path)
		if err != nil {
			return nil, "", err
		}
		if raw.Workspace == nil {
			return nil, "", fmt.Errorf("%w: %s has no [workspace] table", ErrNoWorkspace, path)
		}
		w.loaded, w.dir = raw.Workspace, w.root
		return w.loaded, w.dir, nil
	}
	err := walkManifests(filepath.Dir(w.pkgDir), func(path string) error {
		raw, err := readRaw(path)
		if err != nil {
			return err
		}
		if raw.Workspace == nil {
			return nil
		}
		w.loaded, w.dir = raw.Workspace, filepath.Dir(path)
		return errStopWalk
	})
	if err != nil {
		return nil, "", err
	}
	if w.loaded == nil {
		return nil, "", fmt.Errorf("%w above %s", ErrNoWorkspace, w.pkgDir)
	}
	return w.loaded, w.dir, nil
}

// inheritString reads a [package] field that is either a string or
// `{ workspace = true }`.
func inheritString(v any, key, fallback string, ws *workspaceLoader, pick func(*rawWorkspace) string) (string, error) {
	switch val := v.(type) {
	case nil:
		return fallback, nil
	case string:
		return val, nil
	case map[string]any:
		if inherit, _ := val["workspace"].(bool); !inherit {
			return "", fmt.Errorf("[package].%s: table form requires workspace = true", key)
		}
		w, _, err := ws.get()
		if err != nil {
			return "", fmt.Errorf("[package].%s: %w", key, err)
		}
		s := pick(w)
		if s == "" {
			return "", fmt.Errorf("[package].%s: not set in [workspace.package]", key)
		}
		return s, nil
	default:
		return "", fmt.Errorf("[package].%s: expected string, got %T", key, v)
	}
}

func resolveDeps(deps map[string]manifest.Dependency, dir string, ws *workspaceLoader) (map[string]manifest.Dependency, error) {
	out := make(map[string]manifest.Dependency, len(deps))
	for name, dep := range deps {
		if !dep.Workspace {
			out[name] = dep.Rebase(dir)
			continue
		}
		w, wsDir, err := ws.get()
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
		base, ok := w.Dependencies[name]
		if !ok {
			return nil, fmt.Errorf("dependency %q: not found in [workspace.dependencies]", name)
		}
		merged := base.Rebase(wsDir)
		merged.Features = append(merged.Features, dep.Features...)
		merged.Optional = dep.Optional
		out[name] = merged
	}
	return out, nil
}

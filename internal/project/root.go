package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file cargo reads a package descriptor from.
const ManifestName = "Cargo.toml"

// errStopWalk ends walkManifests early without reporting an error.
var errStopWalk = errors.New("stop walk")

// walkManifests calls visit for every Cargo.toml in dir and its ancestors,
// nearest first. Returning errStopWalk from visit ends the walk.
func walkManifests(dir string, visit func(path string) error) error {
	for {
		candidate := filepath.Join(dir, ManifestName)
		_, err := os.Stat(candidate)
		switch {
		case err == nil:
			if err := visit(candidate); err != nil {
				if errors.Is(err, errStopWalk) {
					return nil
				}
				return err
			}
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// FindManifest returns the Cargo.toml nearest to startDir, searching upwards.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	err = walkManifests(dir, func(candidate string) error {
		path, ok = candidate, true
		return errStopWalk
	})
	return path, ok, err
}

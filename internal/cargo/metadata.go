package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/airblast-dev/test-cdylib/internal/trace"
)

// Metadata is the subset of `cargo metadata --format-version=1` this tool uses.
type Metadata struct {
	WorkspaceRoot   string        `json:"workspace_root"`
	TargetDirectory string        `json:"target_directory"`
	Packages        []PackageInfo `json:"packages"`
}

// PackageInfo describes one package of the resolved dependency graph.
type PackageInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	ManifestPath string `json:"manifest_path"`
}

// Metadata queries the workspace containing dir (the current directory when empty).
// A single attempt is made.
func (t *Toolchain) Metadata(ctx context.Context, dir string) (*Metadata, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeToolchain, "cargo metadata", trace.ParentFromContext(ctx))

	cmd := t.command(ctx, "metadata", "--format-version=1")
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			span.End("spawn failed")
			return nil, &SpawnError{Path: cmd.Path, Err: runErr}
		}
	}

	md, err := decodeMetadata(stdout.Bytes())
	if err != nil {
		if runErr != nil {
			err = fmt.Errorf("%w (%v): %s", err, runErr, strings.TrimSpace(stderr.String()))
		}
		span.End(err.Error())
		return nil, err
	}
	span.WithExtra("workspace_root", md.WorkspaceRoot).End("ok")
	return md, nil
}

// decodeMetadata requires workspace_root and target_directory to be present
// and absolute.
func decodeMetadata(data []byte) (*Metadata, error) {
	var raw struct {
		WorkspaceRoot   *string       `json:"workspace_root"`
		TargetDirectory *string       `json:"target_directory"`
		Packages        []PackageInfo `json:"packages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataDecode, err)
	}
	if raw.WorkspaceRoot == nil {
		return nil, fmt.Errorf("%w: missing workspace_root", ErrMetadataDecode)
	}
	if raw.TargetDirectory == nil {
		return nil, fmt.Errorf("%w: missing target_directory", ErrMetadataDecode)
	}
	if !filepath.IsAbs(*raw.WorkspaceRoot) {
		return nil, fmt.Errorf("%w: workspace_root %q is not absolute", ErrMetadataDecode, *raw.WorkspaceRoot)
	}
	if !filepath.IsAbs(*raw.TargetDirectory) {
		return nil, fmt.Errorf("%w: target_directory %q is not absolute", ErrMetadataDecode, *raw.TargetDirectory)
	}
	return &Metadata{
		WorkspaceRoot:   *raw.WorkspaceRoot,
		TargetDirectory: *raw.TargetDirectory,
		Packages:        raw.Packages,
	}, nil
}

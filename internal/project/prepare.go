package project

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/manifest"
	"github.com/airblast-dev/test-cdylib/internal/trace"
)

// Project is a synthetic package written to disk.
type Project struct {
	Dir    string
	Name   string
	Digest Digest
}

// ManifestPath returns the path of the written Cargo.toml.
func (p *Project) ManifestPath() string {
	return filepath.Join(p.Dir, ManifestName)
}

// Prepare writes m and cfg under root in a directory named after the
// package and a digest of both files. Equal inputs reuse the same
// directory, so cargo's target cache survives between runs.
func Prepare(root string, m *manifest.Manifest, cfg manifest.Config) (*Project, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	desc, err := manifest.Marshal(m)
	if err != nil {
		return nil, err
	}
	conf, err := manifest.MarshalConfig(cfg)
	if err != nil {
		return nil, err
	}
	digest := Combine(desc, []byte{0}, conf)
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", root, err)
	}
	p := &Project{
		Dir:    filepath.Join(root, m.Package.Name+"-"+digest.Short()),
		Name:   m.Package.Name,
		Digest: digest,
	}
	if err := manifest.WriteFile(p.ManifestPath(), m); err != nil {
		return nil, err
	}
	if err := manifest.WriteConfig(filepath.Join(p.Dir, ".cargo", "config.toml"), cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Build compiles p as an external package and returns the artifact path.
func Build(ctx context.Context, b *cargo.Builder, p *Project, f cargo.Features) (string, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "build "+p.Name, trace.ParentFromContext(ctx))
	span.WithExtra("digest", p.Digest.Short())
	artifact, err := b.Build(trace.WithParent(ctx, span), cargo.ExternalPackage(p.Dir, f))
	if err != nil {
		span.End(err.Error())
		return "", err
	}
	span.End(artifact)
	return artifact, nil
}

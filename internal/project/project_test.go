package project

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
	"github.com/airblast-dev/test-cdylib/internal/manifest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"x\"\n")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(root, "Cargo.toml") {
		t.Fatalf("path = %q", path)
	}
}

func TestLoadSourceRebasesPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), `
[package]
name = "cratey"
version = "1.2.3"
edition = "2021"

[lib]
path = "lib/entry.rs"

[features]
default = ["fast"]
fast = []

[dependencies]
log = "0.4"
helper = { path = "../helper", features = ["x"] }

[dev-dependencies]
tempfile = { version = "3", default-features = false }

[patch.crates-io]
log = { path = "vendor/log" }
`)
	src, err := LoadSource(filepath.Join(dir, "Cargo.toml"), "")
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if src.Name != "cratey" || src.Version != "1.2.3" || src.Edition != manifest.Edition2021 {
		t.Fatalf("package = %q %q %q", src.Name, src.Version, src.Edition)
	}
	if want := filepath.Join(dir, "lib", "entry.rs"); src.LibPath != want {
		t.Fatalf("LibPath = %q, want %q", src.LibPath, want)
	}
	wantDeps := map[string]manifest.Dependency{
		"log":    {Version: "0.4"},
		"helper": {Path: filepath.Join(filepath.Dir(dir), "helper"), Features: []string{"x"}},
	}
	if diff := cmp.Diff(wantDeps, src.Dependencies); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if d := src.DevDependencies["tempfile"]; d.DefaultFeatures == nil || *d.DefaultFeatures {
		t.Fatalf("tempfile default-features = %v", d.DefaultFeatures)
	}
	if got := src.Patch["crates-io"]["log"].Path; got != filepath.Join(dir, "vendor", "log") {
		t.Fatalf("patch path = %q", got)
	}
}

func TestLoadSourceDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"bare\"\n")
	src, err := LoadSource(filepath.Join(dir, "Cargo.toml"), "")
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if src.Edition != manifest.Edition2015 {
		t.Fatalf("edition = %q", src.Edition)
	}
	if src.LibPath != filepath.Join(dir, "src", "lib.rs") {
		t.Fatalf("LibPath = %q", src.LibPath)
	}
}

func TestLoadSourceWorkspaceInheritance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), `
[workspace]
members = ["member"]

[workspace.package]
version = "0.9.0"
edition = "2021"

[workspace.dependencies]
shared = { path = "shared", features = ["a"] }
`)
	member := filepath.Join(root, "member")
	writeFile(t, filepath.Join(member, "Cargo.toml"), `
[package]
name = "member"
version.workspace = true
edition = { workspace = true }

[dependencies]
shared = { workspace = true, features = ["b"], optional = true }
`)

	for _, wsRoot := range []string{"", root} {
		src, err := LoadSource(filepath.Join(member, "Cargo.toml"), wsRoot)
		if err != nil {
			t.Fatalf("LoadSource(%q): %v", wsRoot, err)
		}
		if src.Version != "0.9.0" || src.Edition != manifest.Edition2021 {
			t.Fatalf("inherited = %q %q", src.Version, src.Edition)
		}
		want := manifest.Dependency{
			Path:     filepath.Join(root, "shared"),
			Features: []string{"a", "b"},
			Optional: true,
		}
		if diff := cmp.Diff(want, src.Dependencies["shared"]); diff != "" {
			t.Fatalf("shared mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestLoadSourceMissingWorkspace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pkg", "Cargo.toml"), "[package]\nname = \"p\"\nversion.workspace = true\n")
	if _, err := LoadSource(filepath.Join(dir, "pkg", "Cargo.toml"), dir+"/nowhere"); err == nil {
		t.Fatal("expected error")
	}
}

func testSource() *Source {
	return &Source{
		Dir:          "/work/cratey",
		Name:         "cratey",
		Version:      "1.2.3",
		Edition:      manifest.Edition2021,
		LibPath:      "/work/cratey/src/lib.rs",
		Features:     map[string][]string{"fast": {}},
		Dependencies: map[string]manifest.Dependency{"log": {Version: "0.4"}},
		DevDependencies: map[string]manifest.Dependency{
			"tempfile": {Version: "3"},
		},
		Replace: map[string]manifest.Patch{"foo:1.0.0": {Path: "/vendor/foo"}},
	}
}

func TestSynthesizeLibrary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix paths")
	}
	m, err := Synthesize(testSource(), Options{Suffix: "fast"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if m.Package.Name != "cratey-fast" || m.Package.Version != SyntheticVersion || m.Package.Publish {
		t.Fatalf("package = %+v", m.Package)
	}
	if m.Lib.Path != "/work/cratey/src/lib.rs" {
		t.Fatalf("lib path = %q", m.Lib.Path)
	}
	if m.Workspace == nil {
		t.Fatal("workspace marker missing")
	}
	if _, ok := m.Dependencies["tempfile"]; ok {
		t.Fatal("dev-dependency leaked into library package")
	}
	if _, ok := m.Features["fast"]; !ok {
		t.Fatal("features not copied")
	}
	if m.Replace["foo:1.0.0"].Path != "/vendor/foo" {
		t.Fatalf("replace = %+v", m.Replace)
	}
}

func TestSynthesizeExample(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix paths")
	}
	m, err := Synthesize(testSource(), Options{
		Suffix:   "example",
		LibPath:  "examples/ffi.rs",
		Features: cargo.Only("fast"),
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if m.Lib.Path != "/work/cratey/examples/ffi.rs" {
		t.Fatalf("lib path = %q", m.Lib.Path)
	}
	self := m.Dependencies["cratey"]
	want := manifest.Dependency{Path: "/work/cratey", DefaultFeatures: manifest.Bool(false), Features: []string{"fast"}}
	if diff := cmp.Diff(want, self); diff != "" {
		t.Fatalf("self dependency mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.Dependencies["tempfile"]; !ok {
		t.Fatal("dev-dependency missing")
	}
	if len(m.Features) != 0 {
		t.Fatalf("features = %v", m.Features)
	}
}

func TestPermutationSuffix(t *testing.T) {
	tests := []struct {
		f    cargo.Features
		want string
	}{
		{cargo.DefaultFeatures(), "default"},
		{cargo.Only(), "none"},
		{cargo.Only("a", "b"), "a-b"},
	}
	for _, tt := range tests {
		if got := PermutationSuffix(tt.f); got != tt.want {
			t.Errorf("PermutationSuffix(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"cratey-a-b":  "cratey-a-b",
		"Crate.Y":     "crate-y",
		"1st":         "_1st",
		"***":         "synthetic",
		"with_under":  "with_under",
		"ünïcode-pkg": "n-code-pkg",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
		if !IsValidPackageName(SanitizeName(in)) {
			t.Errorf("SanitizeName(%q) produced invalid name", in)
		}
	}
}

func TestPrepareIsDeterministic(t *testing.T) {
	root := t.TempDir()
	m, err := Synthesize(testSource(), Options{Suffix: "fast"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := manifest.Config{Build: manifest.Build{Rustflags: []string{"--cfg", "x"}}}

	p1, err := Prepare(root, m, cfg)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	p2, err := Prepare(root, m, cfg)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if p1.Dir != p2.Dir || p1.Digest != p2.Digest {
		t.Fatalf("dirs differ: %q vs %q", p1.Dir, p2.Dir)
	}
	if !strings.HasPrefix(filepath.Base(p1.Dir), "cratey-fast-") {
		t.Fatalf("dir = %q", p1.Dir)
	}

	data, err := os.ReadFile(p1.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}
	want, _ := manifest.Marshal(m)
	if string(data) != string(want) {
		t.Fatalf("written manifest differs:\n%s", data)
	}
	if !strings.Contains(string(data), "fast = []") {
		t.Fatalf("empty feature dropped:\n%s", data)
	}
	conf, err := os.ReadFile(filepath.Join(p1.Dir, ".cargo", "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(conf), "rustflags") {
		t.Fatalf("config = %s", conf)
	}

	cfg.Build.Rustflags = []string{"--cfg", "y"}
	p3, err := Prepare(root, m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p3.Dir == p1.Dir {
		t.Fatal("different config reused directory")
	}
}

func TestCombine(t *testing.T) {
	a := Combine([]byte("ab"), []byte("c"))
	b := Combine([]byte("abc"))
	if a != b {
		t.Fatal("Combine should hash the concatenation")
	}
	if len(a.Short()) != 16 || len(a.String()) != 64 {
		t.Fatalf("lengths = %d %d", len(a.Short()), len(a.String()))
	}
}

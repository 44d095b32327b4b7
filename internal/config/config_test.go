package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"CargoPath", cfg.CargoPath, ""},
		{"UI", cfg.UI, "auto"},
		{"Quiet", cfg.Quiet, false},
		{"Trace.Level", cfg.Trace.Level, "off"},
		{"Trace.Mode", cfg.Trace.Mode, "stream"},
		{"Trace.RingSize", cfg.Trace.RingSize, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
	if diff := cmp.Diff([]string{"--cfg", "test_cdylib"}, cfg.Rustflags); diff != "" {
		t.Errorf("Rustflags mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TESTCDYLIB_CARGO_PATH", "/opt/cargo")
	t.Setenv("TESTCDYLIB_UI", "off")
	t.Setenv("TESTCDYLIB_TRACE_LEVEL", "debug")

	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CargoPath != "/opt/cargo" {
		t.Errorf("CargoPath = %q", cfg.CargoPath)
	}
	if cfg.UI != "off" {
		t.Errorf("UI = %q", cfg.UI)
	}
	if cfg.Trace.Level != "debug" {
		t.Errorf("Trace.Level = %q", cfg.Trace.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	data := "quiet: true\ntarget_root: /var/tmp/cdylibs\nrustflags: [\"-C\", \"opt-level=1\"]\ntrace:\n  output: trace.ndjson\n"
	if err := os.WriteFile(filepath.Join(dir, ".testcdylib.yaml"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Quiet || cfg.TargetRoot != "/var/tmp/cdylibs" || cfg.Trace.Output != "trace.ndjson" {
		t.Errorf("cfg = %+v", cfg)
	}
	if diff := cmp.Diff([]string{"-C", "opt-level=1"}, cfg.Rustflags); diff != "" {
		t.Errorf("Rustflags mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_MissingExplicitFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidUI(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TESTCDYLIB_UI", "sometimes")
	v, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := Load(v); err == nil {
		t.Fatal("expected error")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

package cargo

import (
	"context"
	"errors"
	"testing"
)

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"ok", `{"workspace_root":"/w","target_directory":"/w/target","packages":[{"id":"a","name":"a","version":"0.1.0","manifest_path":"/w/Cargo.toml"}]}`, false},
		{"missing root", `{"target_directory":"/w/target"}`, true},
		{"missing target", `{"workspace_root":"/w"}`, true},
		{"relative root", `{"workspace_root":"w","target_directory":"/w/target"}`, true},
		{"not json", `nope`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := decodeMetadata([]byte(tt.data))
			if tt.wantErr {
				if !errors.Is(err, ErrMetadataDecode) {
					t.Fatalf("err = %v, want ErrMetadataDecode", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if md.WorkspaceRoot != "/w" || md.TargetDirectory != "/w/target" || len(md.Packages) != 1 {
				t.Fatalf("md = %+v", md)
			}
		})
	}
}

func TestToolchainMetadata(t *testing.T) {
	f := newFakeCargo(t, 0, `{"workspace_root":"/w","target_directory":"/w/target","packages":[]}`, 0)
	md, err := f.toolchain().Metadata(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if md.TargetDirectory != "/w/target" {
		t.Fatalf("md = %+v", md)
	}
	if got := f.invocation(t)["args"]; got != "metadata --format-version=1" {
		t.Fatalf("args = %q", got)
	}
}

func TestToolchainMetadataFailure(t *testing.T) {
	f := newFakeCargo(t, 0, "", 101)
	_, err := f.toolchain().Metadata(context.Background(), "")
	if !errors.Is(err, ErrMetadataDecode) {
		t.Fatalf("err = %v", err)
	}
}

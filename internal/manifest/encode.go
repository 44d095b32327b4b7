package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Encode writes m as TOML. Tables appear in declaration order and map keys
// sorted, so equal manifests encode to identical bytes.
func (m *Manifest) Encode(w io.Writer) error {
	out := *m
	if out.Dependencies == nil {
		out.Dependencies = map[string]Dependency{}
	}
	if len(out.Features) > 0 {
		// The encoder skips nil values; a feature enabling nothing must stay.
		out.Features = make(map[string][]string, len(m.Features))
		for name, enables := range m.Features {
			if enables == nil {
				enables = []string{}
			}
			out.Features[name] = enables
		}
	}
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}

// Marshal encodes m to bytes.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a manifest previously produced by Marshal.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// MarshalConfig encodes the companion .cargo/config.toml.
func MarshalConfig(c Config) ([]byte, error) {
	if c.Build.Rustflags == nil {
		c.Build.Rustflags = []string{}
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode cargo config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile validates and writes m to path.
func WriteFile(path string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// WriteConfig writes c to path.
func WriteConfig(path string, c Config) error {
	data, err := MarshalConfig(c)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// writeAtomic replaces path via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %q: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %q: %w", dir, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}

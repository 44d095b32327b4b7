package cargo

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeCargo writes a shell script standing in for cargo. The offline probe
// exits with probeExit; any other invocation records its arguments, working
// directory and selected environment to a file, prints stream and exits
// with exitCode.
type fakeCargo struct {
	path    string
	logPath string
}

func newFakeCargo(t *testing.T, probeExit int, stream string, exitCode int) *fakeCargo {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cargo is a shell script")
	}
	dir := t.TempDir()
	f := &fakeCargo{
		path:    filepath.Join(dir, "cargo"),
		logPath: filepath.Join(dir, "invocation.log"),
	}
	streamPath := filepath.Join(dir, "stream.json")
	if err := os.WriteFile(streamPath, []byte(stream), 0o644); err != nil {
		t.Fatal(err)
	}
	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--version" ]; then
  echo probe >> %[1]q.probes
  exit %[2]d
fi
printf 'args=%%s\n' "$*" > %[1]q
printf 'cwd=%%s\n' "$(pwd)" >> %[1]q
env | grep -E '^(CARGO_TARGET_DIR|RUSTFLAGS|CARGO_ENCODED_RUSTFLAGS)=' >> %[1]q
cat %[3]q
exit %[4]d
`, f.logPath, probeExit, streamPath, exitCode)
	if err := os.WriteFile(f.path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fakeCargo) toolchain(extraEnv ...string) *Toolchain {
	env := append([]string{"PATH=" + os.Getenv("PATH")}, extraEnv...)
	return &Toolchain{Path: f.path, Env: env}
}

// invocation returns the recorded key=value lines of the build call.
func (f *fakeCargo) invocation(t *testing.T) map[string]string {
	t.Helper()
	data, err := os.ReadFile(f.logPath)
	if err != nil {
		t.Fatalf("cargo was not invoked: %v", err)
	}
	out := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		k, v, _ := strings.Cut(line, "=")
		out[k] = v
	}
	return out
}

func (f *fakeCargo) probes(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile(f.logPath + ".probes")
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "probe")
}

func artifactLine(pkg, file string) string {
	return fmt.Sprintf(`{"reason":"compiler-artifact","package_id":%q,"target":{"name":"x","kind":["cdylib"],"crate_types":["cdylib"],"src_path":"/x/src/lib.rs"},"filenames":[%q],"fresh":false}`, pkg, file)
}

const finishedOK = `{"reason":"build-finished","success":true}`

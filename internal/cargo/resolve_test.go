package cargo

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type exitStatus int

func (e exitStatus) Error() string { return "exit status" }
func (e exitStatus) ExitCode() int { return int(e) }

type fakeProcess struct {
	waitErr error
	waited  int
	killed  int
}

func (p *fakeProcess) Wait() error {
	p.waited++
	return p.waitErr
}

func (p *fakeProcess) Kill() error {
	p.killed++
	return nil
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) { s.events = append(s.events, ev) }

func lines(ls ...string) *strings.Reader {
	return strings.NewReader(strings.Join(ls, "\n") + "\n")
}

func TestResolverLastArtifactWins(t *testing.T) {
	proc := &fakeProcess{}
	r := &resolver{}
	got, err := r.run(lines(
		artifactLine("dep 1.0.0 (registry+https://github.com/rust-lang/crates.io-index)", "/t/libdep.rlib"),
		artifactLine("x 0.1.0 (path+file:///x)", "/t/libx.so"),
		finishedOK,
	), proc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "/t/libx.so" {
		t.Fatalf("artifact = %q", got)
	}
	if proc.waited != 1 || proc.killed != 0 {
		t.Fatalf("waited=%d killed=%d", proc.waited, proc.killed)
	}
}

func TestResolverNonZeroExitAlwaysFails(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		stream := make([]string, 0, n)
		for i := 0; i < n; i++ {
			stream = append(stream, artifactLine("x 0.1.0 (path+file:///x)", "/t/libx.so"))
		}
		r := &resolver{}
		_, err := r.run(lines(stream...), &fakeProcess{waitErr: exitStatus(101)})
		var failed *BuildFailedError
		if !errors.As(err, &failed) || failed.ExitCode != 101 {
			t.Fatalf("%d artifacts: err = %v", n, err)
		}
		if errors.Is(err, ErrNoArtifact) {
			t.Fatalf("%d artifacts: exit failure must not read as ErrNoArtifact", n)
		}
	}
}

func TestResolverNoArtifact(t *testing.T) {
	r := &resolver{}
	_, err := r.run(lines(finishedOK), &fakeProcess{})
	if !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolverArtifactWithoutFiles(t *testing.T) {
	r := &resolver{}
	_, err := r.run(lines(`{"reason":"compiler-artifact","package_id":"x 0.1.0 (path+file:///x)","filenames":[]}`), &fakeProcess{})
	if !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolverDecodeErrorKillsThenWaits(t *testing.T) {
	proc := &fakeProcess{}
	r := &resolver{}
	_, err := r.run(lines(finishedOK, "{broken"), proc)
	if !errors.Is(err, ErrStreamDecode) {
		t.Fatalf("err = %v", err)
	}
	if proc.killed != 1 || proc.waited != 1 {
		t.Fatalf("killed=%d waited=%d", proc.killed, proc.waited)
	}
}

func TestResolverWaitErrorWithoutExitCode(t *testing.T) {
	r := &resolver{}
	_, err := r.run(lines(), &fakeProcess{waitErr: errors.New("pipe closed")})
	if err == nil || errors.Is(err, ErrBuildFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolverRelaysDiagnosticsAndProgress(t *testing.T) {
	var diag bytes.Buffer
	sink := &recordingSink{}
	r := &resolver{diagnostics: &diag, progress: sink}
	_, err := r.run(lines(
		`{"reason":"compiler-message","package_id":"x 0.1.0 (path+file:///x)","message":{"message":"unused","level":"warning","rendered":"warning: unused"}}`,
		`{"reason":"compiler-message","package_id":"x 0.1.0 (path+file:///x)","message":{"message":"plain","level":"note"}}`,
		`{"reason":"build-script-executed","package_id":"x 0.1.0 (path+file:///x)"}`,
		artifactLine("x 0.1.0 (path+file:///x)", "/t/libx.so"),
		`{"reason":"compiler-something-new"}`,
		finishedOK,
	), &fakeProcess{})
	if err != nil {
		t.Fatal(err)
	}
	if diag.String() != "warning: unused\nplain\n" {
		t.Fatalf("diagnostics = %q", diag.String())
	}
	wantKinds := []EventKind{EventDiagnostic, EventDiagnostic, EventBuildScript, EventUnit, EventFinished}
	gotKinds := make([]EventKind, 0, len(sink.events))
	for _, ev := range sink.events {
		gotKinds = append(gotKinds, ev.Kind)
	}
	if diff := cmp.Diff(wantKinds, gotKinds); diff != "" {
		t.Fatalf("event kinds mismatch (-want +got):\n%s", diff)
	}
	if sink.events[0].Rendered != "warning: unused" || sink.events[1].Rendered != "plain" {
		t.Fatalf("rendered = %q, %q", sink.events[0].Rendered, sink.events[1].Rendered)
	}
	if sink.events[3].Package != "x v0.1.0" || !sink.events[4].Success {
		t.Fatalf("events = %+v", sink.events)
	}
}

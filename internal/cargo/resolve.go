package cargo

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/airblast-dev/test-cdylib/internal/trace"
)

// process is the part of a running cargo subprocess the resolver needs.
type process interface {
	Wait() error
	Kill() error
}

type cmdProcess struct {
	cmd *exec.Cmd
}

func (p cmdProcess) Wait() error { return p.cmd.Wait() }

func (p cmdProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// exitCoder matches *exec.ExitError without depending on it.
type exitCoder interface {
	ExitCode() int
}

// resolver drains a message stream and resolves the produced artifact.
type resolver struct {
	diagnostics io.Writer
	progress    ProgressSink
	tracer      trace.Tracer
	parent      uint64
}

// run consumes stream to completion and only then waits on proc.
func (r *resolver) run(stream io.Reader, proc process) (string, error) {
	var last *Artifact
	dec := NewDecoder(stream)
	for {
		msg, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Abort, but never leave the child unreaped.
			_ = proc.Kill()
			_ = proc.Wait()
			trace.Point(r.tracer, trace.ScopeToolchain, r.parent, "stream-error", err.Error(), nil)
			return "", err
		}

		switch msg.Kind() {
		case KindDiagnostic:
			r.relay(msg)
		case KindArtifact:
			last = msg.Artifact()
			r.traceArtifact(last)
		}
		trace.Point(r.tracer, trace.ScopeMessage, r.parent, msg.Reason, msg.PackageID, nil)
		if r.progress != nil {
			if ev, ok := eventFor(msg); ok {
				r.progress.OnEvent(ev)
			}
		}
	}

	if err := proc.Wait(); err != nil {
		var exit exitCoder
		if errors.As(err, &exit) {
			return "", &BuildFailedError{ExitCode: exit.ExitCode()}
		}
		return "", fmt.Errorf("waiting for cargo: %w", err)
	}
	if last == nil || len(last.Filenames) == 0 {
		return "", ErrNoArtifact
	}
	return last.Filenames[0], nil
}

func (r *resolver) relay(msg *Message) {
	if r.diagnostics == nil {
		return
	}
	text := msg.Rendered()
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, _ = io.WriteString(r.diagnostics, text)
}

func (r *resolver) traceArtifact(a *Artifact) {
	if r.tracer == nil || !r.tracer.Enabled() {
		return
	}
	extra := map[string]string{"fresh": fmt.Sprint(a.Fresh)}
	if len(a.Filenames) > 0 {
		extra["file"] = a.Filenames[0]
	}
	trace.Point(r.tracer, trace.ScopeUnit, r.parent, "artifact", packageName(a.PackageID), extra)
}

package cargo

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecoderSkipsBlankLines(t *testing.T) {
	dec := NewDecoder(strings.NewReader("\n" + finishedOK + "\n\n  \n" + `{"reason":"compiler-artifact"}`))
	var reasons []string
	for {
		msg, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		reasons = append(reasons, msg.Reason)
	}
	if strings.Join(reasons, ",") != "build-finished,compiler-artifact" {
		t.Fatalf("reasons = %v", reasons)
	}
}

func TestDecoderReportsLine(t *testing.T) {
	dec := NewDecoder(strings.NewReader(finishedOK + "\n\n[1,2]\n"))
	if _, err := dec.Next(); err != nil {
		t.Fatal(err)
	}
	_, err := dec.Next()
	var decodeErr *StreamDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v", err)
	}
	if decodeErr.Line != 3 {
		t.Fatalf("line = %d, want 3", decodeErr.Line)
	}
}

func TestDecoderRejectsUnstructuredLines(t *testing.T) {
	for _, line := range []string{"null", "{}", `{"reason":""}`} {
		dec := NewDecoder(strings.NewReader(line + "\n"))
		_, err := dec.Next()
		var decodeErr *StreamDecodeError
		if !errors.As(err, &decodeErr) || !errors.Is(err, ErrStreamDecode) {
			t.Fatalf("%s: err = %v, want stream decode error", line, err)
		}
		if decodeErr.Line != 1 {
			t.Fatalf("%s: line = %d", line, decodeErr.Line)
		}
	}
}

func TestDecoderLongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	dec := NewDecoder(strings.NewReader(`{"reason":"compiler-message","message":{"message":"` + long + `","level":"warning"}}` + "\n"))
	msg, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(msg.Rendered()) != len(long) {
		t.Fatalf("message truncated to %d bytes", len(msg.Rendered()))
	}
}

func TestMessageKind(t *testing.T) {
	tests := map[string]MessageKind{
		ReasonCompilerMessage:     KindDiagnostic,
		ReasonCompilerArtifact:    KindArtifact,
		ReasonBuildScriptExecuted: KindOther,
		ReasonBuildFinished:       KindOther,
		"anything-else":           KindOther,
	}
	for reason, want := range tests {
		m := &Message{Reason: reason}
		if got := m.Kind(); got != want {
			t.Errorf("Kind(%q) = %v, want %v", reason, got, want)
		}
	}
	if (&Message{Reason: ReasonBuildFinished}).Artifact() != nil {
		t.Error("non-artifact message returned an artifact")
	}
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", ""},
		{"x 0.1.0 (path+file:///x)", "x v0.1.0"},
		{"registry+https://github.com/rust-lang/crates.io-index#serde@1.0.200", "serde v1.0.200"},
		{"path+file:///work/foo#0.1.0", "foo v0.1.0"},
		{"opaque", "opaque"},
	}
	for _, tt := range tests {
		if got := packageName(tt.id); got != tt.want {
			t.Errorf("packageName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

package cargo

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Message reasons emitted with --message-format=json.
const (
	ReasonCompilerMessage     = "compiler-message"
	ReasonCompilerArtifact    = "compiler-artifact"
	ReasonBuildScriptExecuted = "build-script-executed"
	ReasonBuildFinished       = "build-finished"
)

// MessageKind is the coarse classification the resolver acts on.
type MessageKind uint8

const (
	KindOther MessageKind = iota
	KindDiagnostic
	KindArtifact
)

// Message is one line of cargo's JSON message stream. Only the fields this
// package reads are decoded.
type Message struct {
	Reason    string      `json:"reason"`
	PackageID string      `json:"package_id,omitempty"`
	Target    *Target     `json:"target,omitempty"`
	Message   *Diagnostic `json:"message,omitempty"`
	Filenames []string    `json:"filenames,omitempty"`
	Fresh     bool        `json:"fresh,omitempty"`
	Success   *bool       `json:"success,omitempty"`
}

// Target names the cargo target a message belongs to.
type Target struct {
	Name       string   `json:"name"`
	Kind       []string `json:"kind,omitempty"`
	CrateTypes []string `json:"crate_types,omitempty"`
	SrcPath    string   `json:"src_path,omitempty"`
}

// Diagnostic is the compiler message payload of a compiler-message line.
type Diagnostic struct {
	Message  string `json:"message"`
	Level    string `json:"level"`
	Rendered string `json:"rendered,omitempty"`
}

// Artifact is the payload of a compiler-artifact message.
type Artifact struct {
	PackageID string
	Target    Target
	Filenames []string
	Fresh     bool
}

// Kind classifies the message.
func (m *Message) Kind() MessageKind {
	switch m.Reason {
	case ReasonCompilerMessage:
		return KindDiagnostic
	case ReasonCompilerArtifact:
		return KindArtifact
	default:
		return KindOther
	}
}

// Artifact returns the artifact payload, or nil for other message kinds.
func (m *Message) Artifact() *Artifact {
	if m.Kind() != KindArtifact {
		return nil
	}
	a := &Artifact{
		PackageID: m.PackageID,
		Filenames: append([]string{}, m.Filenames...),
		Fresh:     m.Fresh,
	}
	if m.Target != nil {
		a.Target = *m.Target
	}
	return a
}

// Rendered returns the human-readable form of a compiler message.
func (m *Message) Rendered() string {
	if m.Message == nil {
		return ""
	}
	if m.Message.Rendered != "" {
		return m.Message.Rendered
	}
	return m.Message.Message
}

var errMissingReason = errors.New("message has no reason")

// Decoder reads newline-delimited messages. Lines are unbounded in length.
type Decoder struct {
	r    *bufio.Reader
	line int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next message. It returns io.EOF once the stream is
// exhausted and a *StreamDecodeError for a line that is not a JSON object.
// Blank lines are skipped.
func (d *Decoder) Next() (*Message, error) {
	for {
		raw, err := d.r.ReadBytes('\n')
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading cargo output: %w", err)
		}
		d.line++
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("reading cargo output: %w", err)
			}
			continue
		}
		var msg Message
		if decodeErr := json.Unmarshal(raw, &msg); decodeErr != nil {
			return nil, &StreamDecodeError{Line: d.line, Err: decodeErr}
		}
		if msg.Reason == "" {
			return nil, &StreamDecodeError{Line: d.line, Err: errMissingReason}
		}
		return &msg, nil
	}
}

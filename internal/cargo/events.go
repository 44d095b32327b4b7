package cargo

import "strings"

// EventKind classifies progress events derived from cargo's message stream.
type EventKind string

const (
	// EventUnit reports a finished compilation unit (a compiler-artifact message).
	EventUnit EventKind = "unit"
	// EventDiagnostic reports a compiler message.
	EventDiagnostic EventKind = "diagnostic"
	// EventBuildScript reports an executed build script.
	EventBuildScript EventKind = "build-script"
	// EventFinished reports cargo's build-finished message.
	EventFinished EventKind = "finished"
)

// Event reports build progress to a ProgressSink.
type Event struct {
	Kind     EventKind
	Package  string // "name vX.Y.Z" when known
	Target   string
	Fresh    bool
	Level    string
	Text     string
	Rendered string // full diagnostic text, as written to Builder.Diagnostics
	Success  bool
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// eventFor converts a decoded message; ok is false for messages with no progress meaning.
func eventFor(msg *Message) (Event, bool) {
	switch msg.Reason {
	case ReasonCompilerArtifact:
		ev := Event{Kind: EventUnit, Package: packageName(msg.PackageID), Fresh: msg.Fresh}
		if msg.Target != nil {
			ev.Target = msg.Target.Name
		}
		return ev, true
	case ReasonCompilerMessage:
		ev := Event{Kind: EventDiagnostic, Package: packageName(msg.PackageID)}
		if msg.Message != nil {
			ev.Level = msg.Message.Level
			ev.Text = msg.Message.Message
			ev.Rendered = msg.Rendered()
		}
		return ev, true
	case ReasonBuildScriptExecuted:
		return Event{Kind: EventBuildScript, Package: packageName(msg.PackageID)}, true
	case ReasonBuildFinished:
		return Event{Kind: EventFinished, Success: msg.Success != nil && *msg.Success}, true
	default:
		return Event{}, false
	}
}

// packageName renders a cargo package id as "name vVERSION".
//
// Both the legacy form "name 0.1.0 (source)" and the pkgid form
// "source#name@0.1.0" / "path+file:///dir/name#0.1.0" are understood.
func packageName(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if fields := strings.Fields(id); len(fields) >= 2 {
		return fields[0] + " v" + fields[1]
	}
	hash := strings.LastIndexByte(id, '#')
	if hash < 0 {
		return id
	}
	source, fragment := id[:hash], id[hash+1:]
	if name, version, ok := strings.Cut(fragment, "@"); ok {
		return name + " v" + version
	}
	source = strings.TrimRight(source, "/")
	if slash := strings.LastIndexByte(source, '/'); slash >= 0 {
		source = source[slash+1:]
	}
	return source + " v" + fragment
}

package trace

import (
	"fmt"
	"time"
)

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{"unknown", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// MarshalText renders the kind by name in NDJSON output.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	ScopeDriver    Scope = iota + 1 // CLI command
	ScopeToolchain                  // one cargo subprocess
	ScopeUnit                       // one compilation unit
	ScopeMessage                    // one raw cargo message
)

var scopeNames = [...]string{"unknown", "driver", "toolchain", "unit", "message"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return scopeNames[0]
}

// MarshalText renders the scope by name in NDJSON output.
func (s Scope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Event is a single trace record.
type Event struct {
	Time     time.Time         `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     Kind              `json:"kind"`
	Scope    Scope             `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Elapsed  time.Duration     `json:"elapsed_ns,omitempty"` // SpanEnd only
	Extra    map[string]string `json:"extra,omitempty"`
}

func (ev *Event) String() string {
	return fmt.Sprintf("%s %s %s", ev.Kind, ev.Scope, ev.Name)
}

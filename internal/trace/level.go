package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // kept in the ring, dumped on failure
	LevelPhase               // driver and cargo invocations
	LevelDetail              // compilation units
	LevelDebug               // every cargo message
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

// maxScope is the finest scope each level records.
var maxScope = [...]Scope{
	LevelOff:    0,
	LevelError:  ScopeUnit,
	LevelPhase:  ScopeToolchain,
	LevelDetail: ScopeUnit,
	LevelDebug:  ScopeMessage,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel reads a --trace-level value; empty means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are recorded at l.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(maxScope) {
		return false
	}
	return scope != 0 && scope <= maxScope[l]
}

package trace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format selects how events are rendered.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // one aligned line per event
	FormatNDJSON               // one JSON object per line
)

// ParseFormat reads a --trace-format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json", "jsonl":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// FormatEvent renders ev as one newline-terminated line.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		data, err := json.Marshal(ev)
		if err != nil {
			data = fmt.Appendf(nil, `{"seq":%d,"name":%q,"error":%q}`, ev.Seq, ev.Name, err.Error())
		}
		return append(data, '\n')
	}
	return appendText(nil, ev)
}

var kindMarks = map[Kind]string{
	KindSpanBegin: ">",
	KindSpanEnd:   "<",
	KindPoint:     "*",
	KindHeartbeat: "~",
}

// appendText renders
//
//	15:04:05.000 toolchain   <  cargo build: ok [1.2s] artifact=/t/libx.so
//
// with nested scopes indented under the driver.
func appendText(dst []byte, ev *Event) []byte {
	dst = ev.Time.AppendFormat(dst, "15:04:05.000")
	dst = fmt.Appendf(dst, " %-9s ", ev.Scope)
	if ev.Scope > ScopeDriver {
		dst = append(dst, strings.Repeat("  ", int(ev.Scope-ScopeDriver))...)
	}
	mark, ok := kindMarks[ev.Kind]
	if !ok {
		mark = "?"
	}
	dst = append(dst, mark...)
	dst = append(dst, ' ')
	dst = append(dst, ev.Name...)
	if ev.Detail != "" {
		dst = append(dst, ": "...)
		dst = append(dst, ev.Detail...)
	}
	if ev.Kind == KindSpanEnd {
		dst = fmt.Appendf(dst, " [%s]", ev.Elapsed.Round(time.Microsecond))
	}
	keys := make([]string, 0, len(ev.Extra))
	for k := range ev.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dst = fmt.Appendf(dst, " %s=%s", k, ev.Extra[k])
	}
	return append(dst, '\n')
}

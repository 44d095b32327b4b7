package trace

import (
	"bufio"
	"io"
	"sync"
)

type nopTracer struct{}

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Enabled() bool { return false }

// Nop discards everything.
var Nop Tracer = nopTracer{}

// accepts reports whether a tracer at level records ev. Heartbeats always pass.
func accepts(level Level, ev *Event) bool {
	return ev.Kind == KindHeartbeat || level.ShouldEmit(ev.Scope)
}

// StreamTracer writes each event through a buffer to w. Write errors are
// dropped; tracing never fails a build.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	buf    *bufio.Writer
	level  Level
	format Format
	// unbuffered writers (a terminal) are flushed after every event.
	eager bool
}

// NewStreamTracer returns a StreamTracer writing to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	_, eager := w.(stderrWriter)
	return &StreamTracer{w: w, buf: bufio.NewWriter(w), level: level, format: format, eager: eager}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !accepts(t.level, ev) {
		return
	}
	line := FormatEvent(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.buf.Write(line)
	if t.eager {
		_ = t.buf.Flush()
	}
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Flush()
}

// Close flushes and closes w when it is an io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }

// RingTracer keeps the most recent events in memory.
type RingTracer struct {
	mu    sync.Mutex
	slots []Event
	total uint64 // events ever stored
	level Level
}

// NewRingTracer returns a ring holding up to capacity events (4096 when
// capacity is not positive).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{slots: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !accepts(t.level, ev) {
		return
	}
	t.mu.Lock()
	t.slots[t.total%uint64(len(t.slots))] = *ev
	t.total++
	t.mu.Unlock()
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.slots))
	start := uint64(0)
	if t.total > size {
		start = t.total - size
	}
	out := make([]Event, 0, t.total-start)
	for i := start; i < t.total; i++ {
		out = append(out, t.slots[i%size])
	}
	return out
}

// Dropped returns how many events were overwritten.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := uint64(len(t.slots)); t.total > n {
		return t.total - n
	}
	return 0
}

// Dump writes the snapshot to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }

// teeTracer streams events and keeps them in a ring at the same time.
type teeTracer struct {
	stream *StreamTracer
	ring   *RingTracer
	level  Level
}

func (t *teeTracer) Emit(ev *Event) {
	cp := *ev
	t.stream.Emit(ev)
	t.ring.Emit(&cp)
}

func (t *teeTracer) Flush() error  { return t.stream.Flush() }
func (t *teeTracer) Close() error  { return t.stream.Close() }
func (t *teeTracer) Level() Level  { return t.level }
func (t *teeTracer) Enabled() bool { return t.level > LevelOff }

package trace

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64

	// open holds spans that began but have not ended, for heartbeats.
	open sync.Map // uint64 -> *Span
)

// NextSeq returns the next global sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a fresh span ID; zero is never returned.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// Span brackets one operation between Begin and End.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	mu      sync.Mutex
	extra   map[string]string
	ended   atomic.Bool
}

// Begin emits a SpanBegin event under parent (0 for a root) and returns the
// span. When t would drop the scope the span is inert.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      NextSpanID(),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	open.Store(s.id, s)
	t.Emit(&Event{
		Time:     s.started,
		Seq:      NextSeq(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Name:     name,
	})
	return s
}

// WithExtra attaches a key to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	s.mu.Lock()
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	s.mu.Unlock()
	return s
}

// End emits the SpanEnd event once and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || s.ended.Swap(true) {
		return 0
	}
	open.Delete(s.id)
	elapsed := time.Since(s.started)
	s.mu.Lock()
	extra := s.extra
	s.mu.Unlock()
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Elapsed:  elapsed,
		Extra:    extra,
	})
	return elapsed
}

// ID returns the span ID, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, parent uint64, name, detail string, extra map[string]string) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
		Extra:    extra,
	})
}

// oldestOpen returns the longest-running unfinished span of t and how many
// spans of t are open.
func oldestOpen(t Tracer) (oldest *Span, n int) {
	open.Range(func(_, v any) bool {
		s := v.(*Span)
		if s.tracer != t {
			return true
		}
		n++
		if oldest == nil || s.started.Before(oldest.started) {
			oldest = s
		}
		return true
	})
	return oldest, n
}

package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a liveness event every interval naming the oldest open
// span, so a trace of a hung cargo shows which invocation is stuck.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	done     chan struct{}
	stopped  sync.WaitGroup
	stop     sync.Once
}

// StartHeartbeat starts beating; it returns nil when t is disabled or
// interval is not positive. Stop on a nil Heartbeat is a no-op.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: t, interval: interval, done: make(chan struct{})}
	h.stopped.Add(1)
	go h.loop()
	return h
}

func (h *Heartbeat) loop() {
	defer h.stopped.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for beat := 1; ; beat++ {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			h.tracer.Emit(h.event(now, beat))
		}
	}
}

func (h *Heartbeat) event(now time.Time, beat int) *Event {
	ev := &Event{
		Time:   now,
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		Name:   "heartbeat",
		Detail: "#" + strconv.Itoa(beat),
	}
	if oldest, n := oldestOpen(h.tracer); oldest != nil {
		ev.ParentID = oldest.id
		ev.Extra = map[string]string{
			"open":    strconv.Itoa(n),
			"waiting": oldest.name,
			"for":     now.Sub(oldest.started).Round(time.Millisecond).String(),
		}
	}
	return ev
}

// Stop ends the heartbeat and waits for its goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stop.Do(func() { close(h.done) })
	h.stopped.Wait()
}

package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	a := timer.Begin("prepare default")
	time.Sleep(2 * time.Millisecond)
	timer.End(a, "")
	b := timer.Begin("build default")
	timer.End(b, "/t/libx.so")
	timer.End(99, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d", len(report.Phases))
	}
	if report.Phases[0].Name != "prepare default" || report.Phases[1].Note != "/t/libx.so" {
		t.Fatalf("report = %+v", report)
	}
	if report.Phases[0].DurationMS < 1 || report.WallMS < report.Phases[0].DurationMS {
		t.Fatalf("durations = %+v", report)
	}
	summary := timer.Summary()
	if !strings.Contains(summary, "build default") || !strings.Contains(summary, "wall") {
		t.Fatalf("summary:\n%s", summary)
	}
}

func TestTimerConcurrent(t *testing.T) {
	timer := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer.End(timer.Begin("set"), "")
		}()
	}
	wg.Wait()
	if n := len(timer.Report().Phases); n != 8 {
		t.Fatalf("phases = %d", n)
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	timer.End(timer.Begin("x"), "")
	if len(timer.Report().Phases) != 0 {
		t.Fatal("nil timer recorded phases")
	}
}

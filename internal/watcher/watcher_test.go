package watcher

import (
	"testing"
	"time"

	"github.com/dmaitland/alarm-controller/internal/clock"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/model"
)

var testZone = model.Zone{
	ID:           "bedroom",
	Label:        "bedroom",
	SensorPin:    model.GPIOPin{Number: 28, ActiveHigh: true},
	IndicatorPin: model.GPIOPin{Number: 15, ActiveHigh: true},
}

// runScenario drives the watcher loop with a manual clock. levels[i] is the
// sensor level the watcher sees after poll i; the loop stops once the
// script is exhausted.
func runScenario(t *testing.T, levels []bool) []model.SensorEvent {
	t.Helper()
	defer gpio.ResetGPIO()

	// Pin state only ever changes inside OnSleep, which runs on the
	// watcher goroutine, so no locking is needed here.
	level := false
	gpio.MockGPIO(
		func(pin int, l bool) {},
		func(pin int) bool { return level },
	)

	stop := make(chan struct{})
	clk := clock.NewManual(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	clk.OnSleep = func(n int) {
		if n > len(levels) {
			return
		}
		level = levels[n-1]
		if n == len(levels) {
			close(stop)
		}
	}

	events := make(chan model.SensorEvent, 16)
	done := make(chan struct{})
	go func() {
		loop(testZone, 10*time.Millisecond, clk, events, stop)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher loop did not stop")
	}

	close(events)
	var got []model.SensorEvent
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func TestRisingEdgeEmitsOneEvent(t *testing.T) {
	events := runScenario(t, []bool{false, true, true, true, false})

	if len(events) != 1 {
		t.Fatalf("expected 1 event for a single rising edge, got %d", len(events))
	}
	if events[0].ZoneID != "bedroom" {
		t.Errorf("expected bedroom event, got %q", events[0].ZoneID)
	}
}

func TestHeldHighDoesNotReEmit(t *testing.T) {
	events := runScenario(t, []bool{true, true, true, true, true, true})

	if len(events) != 1 {
		t.Fatalf("expected 1 event while level held high, got %d", len(events))
	}
}

func TestReEmitsAfterDrop(t *testing.T) {
	events := runScenario(t, []bool{true, false, true, false, true, false})

	if len(events) != 3 {
		t.Fatalf("expected 3 events for 3 separate edges, got %d", len(events))
	}
}

func TestNoEventsWhileLow(t *testing.T) {
	events := runScenario(t, []bool{false, false, false, false})

	if len(events) != 0 {
		t.Fatalf("expected no events for a quiet sensor, got %d", len(events))
	}
}

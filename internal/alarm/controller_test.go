package alarm

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	alarmdb "github.com/dmaitland/alarm-controller/db"
	"github.com/dmaitland/alarm-controller/internal/clock"
	"github.com/dmaitland/alarm-controller/internal/config"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/model"
)

var (
	bedroom = model.Zone{
		ID:           "bedroom",
		Label:        "bedroom",
		SensorPin:    model.GPIOPin{Number: 28, ActiveHigh: true},
		IndicatorPin: model.GPIOPin{Number: 15, ActiveHigh: true},
	}
	livingRoom = model.Zone{
		ID:           "living_room",
		Label:        "living room",
		SensorPin:    model.GPIOPin{Number: 18, ActiveHigh: true},
		IndicatorPin: model.GPIOPin{Number: 11, ActiveHigh: true},
	}
	buzzer = model.GPIOPin{Number: 14, ActiveHigh: true}
)

func testTiming() config.Timing {
	return config.Timing{
		WatcherPollMS:       10,
		DebounceMS:          100,
		PulseCount:          10,
		PulseIntervalMS:     100,
		HeartbeatIntervalMS: 1000,
	}
}

type fakePins struct {
	levels map[int]bool
	writes map[int]int
}

func mockPins(t *testing.T) *fakePins {
	t.Helper()
	f := &fakePins{levels: map[int]bool{}, writes: map[int]int{}}
	gpio.MockGPIO(
		func(pin int, level bool) {
			f.levels[pin] = level
			f.writes[pin]++
		},
		func(pin int) bool { return f.levels[pin] },
	)
	t.Cleanup(gpio.ResetGPIO)
	return f
}

func newTestController(t *testing.T) (*Controller, *clock.Manual, *fakePins) {
	t.Helper()
	conn, err := alarmdb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	pins := mockPins(t)
	clk := clock.NewManual(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	c := New([]model.Zone{bedroom, livingRoom}, buzzer, testTiming(), clk, conn)
	return c, clk, pins
}

func TestConfirmedTriggerPulsesAndRecords(t *testing.T) {
	c, clk, pins := newTestController(t)

	pins.levels[bedroom.SensorPin.Number] = true // still high after debounce
	c.handle(model.SensorEvent{ZoneID: "bedroom", DetectedAt: clk.Now()})

	require.Equal(t, 10, pins.writes[bedroom.IndicatorPin.Number], "bedroom indicator should toggle 10 times")
	require.Equal(t, 10, pins.writes[buzzer.Number], "buzzer should toggle 10 times")
	require.Zero(t, pins.writes[livingRoom.IndicatorPin.Number], "living room indicator must stay untouched")

	sleeps := clk.Sleeps()
	require.Len(t, sleeps, 11, "one debounce wait plus ten pulse gaps")
	require.Equal(t, 100*time.Millisecond, sleeps[0])
	for _, d := range sleeps[1:] {
		require.Equal(t, 100*time.Millisecond, d)
	}

	events, err := alarmdb.RecentEvents(c.db, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "bedroom", events[0].ZoneID)
}

func TestDebounceRejectionHasNoSideEffects(t *testing.T) {
	c, clk, pins := newTestController(t)

	pins.levels[bedroom.SensorPin.Number] = false // dropped back low
	c.handle(model.SensorEvent{ZoneID: "bedroom", DetectedAt: clk.Now()})

	require.Zero(t, pins.writes[bedroom.IndicatorPin.Number])
	require.Zero(t, pins.writes[buzzer.Number])

	sleeps := clk.Sleeps()
	require.Len(t, sleeps, 1, "only the debounce wait should have elapsed")

	events, err := alarmdb.RecentEvents(c.db, 10)
	require.NoError(t, err)
	require.Empty(t, events, "rejected trigger must not be recorded")
}

func TestTransientRejectedMidDebounce(t *testing.T) {
	c, clk, pins := newTestController(t)

	// Sensor is high when the event fires but drops during the settle
	// window — the 50 ms glitch scenario.
	pins.levels[livingRoom.SensorPin.Number] = true
	clk.OnSleep = func(n int) {
		if n == 1 {
			pins.levels[livingRoom.SensorPin.Number] = false
		}
	}

	c.handle(model.SensorEvent{ZoneID: "living_room", DetectedAt: clk.Now()})

	require.Zero(t, pins.writes[livingRoom.IndicatorPin.Number])
	require.Zero(t, pins.writes[buzzer.Number])
}

func TestAlertMessageNamesZone(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.WarnLevel)
	defer func() { log.Logger = orig }()

	c, clk, pins := newTestController(t)

	pins.levels[livingRoom.SensorPin.Number] = true
	c.handle(model.SensorEvent{ZoneID: "living_room", DetectedAt: clk.Now()})

	require.Contains(t, buf.String(), "ALARM! Motion detected in living room!")
	require.Equal(t, 10, pins.writes[livingRoom.IndicatorPin.Number])
	require.Zero(t, pins.writes[bedroom.IndicatorPin.Number])
}

func TestIndicatorAndBuzzerStayInPhase(t *testing.T) {
	c, clk, pins := newTestController(t)

	pins.levels[bedroom.SensorPin.Number] = true
	c.handle(model.SensorEvent{ZoneID: "bedroom", DetectedAt: clk.Now()})

	// Both start low and receive the same number of toggles, so they must
	// end at the same level.
	require.Equal(t, pins.levels[bedroom.IndicatorPin.Number], pins.levels[buzzer.Number])
}

func TestUnknownZoneIgnored(t *testing.T) {
	c, clk, pins := newTestController(t)

	c.handle(model.SensorEvent{ZoneID: "garage", DetectedAt: clk.Now()})

	require.Empty(t, clk.Sleeps())
	require.Empty(t, pins.writes)
}

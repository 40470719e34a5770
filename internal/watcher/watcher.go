package watcher

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dmaitland/alarm-controller/internal/clock"
	"github.com/dmaitland/alarm-controller/internal/datadog"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/model"
)

// Run starts a goroutine that polls one zone's sensor pin and emits a
// SensorEvent for every low-to-high transition. A level held high emits
// once; the sensor must drop back low before another edge is reported.
func Run(zone model.Zone, poll time.Duration, clk clock.Clock, events chan<- model.SensorEvent, stop <-chan struct{}) {
	go func() {
		log.Info().
			Str("zone", zone.ID).
			Int("pin", zone.SensorPin.Number).
			Msg("Starting sensor watcher")
		loop(zone, poll, clk, events, stop)
	}()
}

func loop(zone model.Zone, poll time.Duration, clk clock.Clock, events chan<- model.SensorEvent, stop <-chan struct{}) {
	prev := gpio.Read(zone.SensorPin)
	for {
		select {
		case <-stop:
			return
		default:
		}

		clk.Sleep(poll)

		cur := gpio.Read(zone.SensorPin)
		if cur && !prev {
			ev := model.SensorEvent{ZoneID: zone.ID, DetectedAt: clk.Now()}
			select {
			case events <- ev:
				log.Debug().Str("zone", zone.ID).Msg("Sensor edge detected")
			default:
				// Pathological sensor chatter while the alarm controller
				// is mid-sequence. Dropping is safe: the zone is already
				// alarming.
				log.Warn().Str("zone", zone.ID).Msg("Event queue full, dropping sensor edge")
				datadog.Count("watcher.dropped_edges", 1, "zone:"+zone.ID)
			}
		}
		prev = cur
	}
}

package heartbeat

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dmaitland/alarm-controller/internal/clock"
	"github.com/dmaitland/alarm-controller/internal/datadog"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/model"
)

// Run starts the liveness loop: every interval, both zone indicators are
// toggled regardless of alarm activity. No locking against the alarm
// controller's pulse sequence — both writers only ever flip the level, so
// an interleaved toggle just shifts the blink phase.
func Run(zones []model.Zone, interval time.Duration, clk clock.Clock, stop <-chan struct{}) {
	go func() {
		log.Info().
			Dur("interval", interval).
			Int("zones", len(zones)).
			Msg("Starting heartbeat loop")
		loop(zones, interval, clk, stop)
	}()
}

func loop(zones []model.Zone, interval time.Duration, clk clock.Clock, stop <-chan struct{}) {
	ticks := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		clk.Sleep(interval)

		for _, z := range zones {
			gpio.Toggle(z.IndicatorPin)
		}

		ticks++
		datadog.Gauge("heartbeat.ticks", float64(ticks))
	}
}

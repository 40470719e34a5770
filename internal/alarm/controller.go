package alarm

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	alarmdb "github.com/dmaitland/alarm-controller/db"
	"github.com/dmaitland/alarm-controller/internal/clock"
	"github.com/dmaitland/alarm-controller/internal/config"
	"github.com/dmaitland/alarm-controller/internal/datadog"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/model"
	"github.com/dmaitland/alarm-controller/internal/notifications"
)

// Controller consumes sensor events one at a time: debounce, confirm,
// alert, pulse. Sequential consumption is what gives the "runs to
// completion, no reentrancy" behavior — edges that arrive mid-sequence
// wait in the channel buffer.
type Controller struct {
	zones  map[string]model.Zone
	buzzer model.GPIOPin
	timing config.Timing
	clk    clock.Clock
	db     *sql.DB
}

func New(zones []model.Zone, buzzer model.GPIOPin, timing config.Timing, clk clock.Clock, database *sql.DB) *Controller {
	byID := make(map[string]model.Zone, len(zones))
	for _, z := range zones {
		byID[z.ID] = z
	}
	return &Controller{
		zones:  byID,
		buzzer: buzzer,
		timing: timing,
		clk:    clk,
		db:     database,
	}
}

// Run starts the consumer goroutine.
func (c *Controller) Run(events <-chan model.SensorEvent, stop <-chan struct{}) {
	go func() {
		log.Info().Int("zones", len(c.zones)).Msg("Starting alarm controller")
		for {
			select {
			case <-stop:
				return
			case ev := <-events:
				c.handle(ev)
			}
		}
	}()
}

func (c *Controller) handle(ev model.SensorEvent) {
	zone, ok := c.zones[ev.ZoneID]
	if !ok {
		log.Error().Str("zone", ev.ZoneID).Msg("Sensor event for unknown zone")
		return
	}

	// Debounce: a real intrusion holds the PIR output high well past the
	// settle window; an electrical glitch does not.
	c.clk.Sleep(c.timing.Debounce())
	if !gpio.Read(zone.SensorPin) {
		log.Debug().Str("zone", zone.ID).Msg("Debounce rejected transient sensor pulse")
		datadog.Count("alarm.debounce_rejected", 1, "zone:"+zone.ID)
		return
	}

	msg := fmt.Sprintf("ALARM! Motion detected in %s!", zone.Label)
	log.Warn().Str("zone", zone.ID).Msg(msg)
	datadog.Count("alarm.triggered", 1, "zone:"+zone.ID)

	c.record(zone, ev)

	// Push must not delay the pulse sequence.
	go func() {
		if err := notifications.Send("Alarm", msg, notifications.PriorityUrgent); err != nil {
			log.Debug().Err(err).Str("zone", zone.ID).Msg("Alarm notification not sent")
		}
	}()

	c.pulse(zone)
}

// pulse toggles the zone indicator and the shared buzzer together, keeping
// them in phase for a synchronized flash/sound pattern.
func (c *Controller) pulse(zone model.Zone) {
	for i := 0; i < c.timing.PulseCount; i++ {
		gpio.Toggle(zone.IndicatorPin)
		gpio.Toggle(c.buzzer)
		c.clk.Sleep(c.timing.PulseInterval())
	}
}

func (c *Controller) record(zone model.Zone, ev model.SensorEvent) {
	if c.db == nil {
		return
	}
	_, err := alarmdb.InsertAlarmEvent(c.db, model.AlarmEvent{
		ZoneID:     zone.ID,
		Label:      zone.Label,
		DetectedAt: ev.DetectedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("zone", zone.ID).Msg("Failed to record alarm event")
	}
}

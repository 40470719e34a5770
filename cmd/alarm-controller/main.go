package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	alarmdb "github.com/dmaitland/alarm-controller/db"
	"github.com/dmaitland/alarm-controller/internal/alarm"
	"github.com/dmaitland/alarm-controller/internal/api"
	"github.com/dmaitland/alarm-controller/internal/clock"
	"github.com/dmaitland/alarm-controller/internal/config"
	"github.com/dmaitland/alarm-controller/internal/datadog"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/heartbeat"
	"github.com/dmaitland/alarm-controller/internal/logging"
	"github.com/dmaitland/alarm-controller/internal/model"
	"github.com/dmaitland/alarm-controller/internal/notifications"
	"github.com/dmaitland/alarm-controller/internal/watcher"
	"github.com/dmaitland/alarm-controller/system/shutdown"
	"github.com/dmaitland/alarm-controller/system/startup"
)

// eventQueueSize bounds how many sensor edges can wait while an alarm
// sequence runs. Two zones re-triggering during a ~1s pulse sequence fit
// with plenty of headroom.
const eventQueueSize = 16

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("db_file", cfg.DBFile).
		Int("zones", len(cfg.Zones)).
		Msg("Starting alarm controller")

	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED — GPIO writes are disabled system-wide")
	}

	if err := gpio.UseBackend(cfg.GPIOBackend); err != nil {
		log.Fatal().Err(err).Msg("Failed to select GPIO backend")
	}

	zones := cfg.ZoneModels()
	buzzer := cfg.Buzzer()

	shutdown.Register(func() {
		for _, z := range zones {
			gpio.Deactivate(z.IndicatorPin)
		}
		gpio.Deactivate(buzzer)
	})

	if !cfg.SafeMode {
		if err := gpio.ValidateStartupPins(zones, buzzer); err != nil {
			log.Fatal().Err(err).Msg("Refusing to start with output pins already active")
		}
	}
	if err := gpio.Setup(zones, buzzer); err != nil {
		log.Fatal().Err(err).Msg("Failed to put alarm pins in their idle state")
	}

	if cfg.BootScriptFilePath != "" {
		if err := startup.WriteStartupScript(cfg, zones, buzzer); err != nil {
			log.Warn().Err(err).Msg("Failed to write boot pin script")
		}
	}

	database, err := alarmdb.Open(cfg.DBFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open event history database")
	}
	defer database.Close()

	datadog.InitMetrics(cfg)
	notifications.Init(cfg.NtfyTopic)

	clk := clock.Real{}
	stop := make(chan struct{})
	events := make(chan model.SensorEvent, eventQueueSize)

	for _, z := range zones {
		watcher.Run(z, cfg.Timing.WatcherPoll(), clk, events, stop)
	}
	alarm.New(zones, buzzer, cfg.Timing, clk, database).Run(events, stop)
	heartbeat.Run(zones, cfg.Timing.HeartbeatInterval(), clk, stop)

	go func() {
		if err := api.NewServer(database, cfg, zones).Start(cfg.APIPort); err != nil {
			log.Error().Err(err).Msg("Status API server exited")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig

	log.Info().Str("signal", s.String()).Msg("Shutting down")
	close(stop)
	shutdown.Shutdown(0)
}

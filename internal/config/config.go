package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmaitland/alarm-controller/internal/model"
)

type ZoneConfig struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	SensorPin    *int   `json:"sensor_pin"`
	IndicatorPin *int   `json:"indicator_pin"`
}

// Timing holds every delay the controller uses, in milliseconds. Zero
// values fall back to the defaults from the reference hardware build.
type Timing struct {
	WatcherPollMS       int `json:"watcher_poll_ms"`
	DebounceMS          int `json:"debounce_ms"`
	PulseCount          int `json:"pulse_count"`
	PulseIntervalMS     int `json:"pulse_interval_ms"`
	HeartbeatIntervalMS int `json:"heartbeat_interval_ms"`
}

type Config struct {
	ConfigFile string
	DBFile     string
	LogLevel   zerolog.Level

	LogFile           string `json:"log_file"`
	SafeMode          bool   `json:"safe_mode"`
	GPIOBackend       string `json:"gpio_backend"`
	OutputsActiveHigh *bool  `json:"outputs_active_high"`

	APIPort int `json:"api_port"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	NtfyTopic string `json:"ntfy_topic"`

	BootScriptFilePath string `json:"boot_script_file_path"`
	OSServicePath      string `json:"os_service_path"`
	MainServicePath    string `json:"main_service_path"`

	Timing    Timing       `json:"timing"`
	Zones     []ZoneConfig `json:"zones"`
	BuzzerPin *int         `json:"buzzer_pin"`
}

func Load() *Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file")
	flag.StringVar(&cfg.DBFile, "db-file", "data/alarm.db", "Path to the event history database")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
	return &cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.GPIOBackend == "" {
		cfg.GPIOBackend = "pinctrl"
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 8080
	}
	if cfg.Timing.WatcherPollMS == 0 {
		cfg.Timing.WatcherPollMS = 10
	}
	if cfg.Timing.DebounceMS == 0 {
		cfg.Timing.DebounceMS = 100
	}
	if cfg.Timing.PulseCount == 0 {
		cfg.Timing.PulseCount = 10
	}
	if cfg.Timing.PulseIntervalMS == 0 {
		cfg.Timing.PulseIntervalMS = 100
	}
	if cfg.Timing.HeartbeatIntervalMS == 0 {
		cfg.Timing.HeartbeatIntervalMS = 1000
	}
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	claim := func(name string, pin *int) {
		if pin == nil {
			missingFields = append(missingFields, name)
			return
		}
		if other, exists := usedPins[*pin]; exists {
			conflicts = append(conflicts, fmt.Sprintf("%s and %s both use pin %d", name, other, *pin))
		} else {
			usedPins[*pin] = name
		}
	}

	if len(cfg.Zones) == 0 {
		panic("No zones configured")
	}

	seenZones := map[string]bool{}
	for _, z := range cfg.Zones {
		if z.ID == "" {
			panic("Zone with empty id in config")
		}
		if seenZones[z.ID] {
			panic("Duplicate zone id in config: " + z.ID)
		}
		seenZones[z.ID] = true

		claim("zones."+z.ID+".sensor_pin", z.SensorPin)
		claim("zones."+z.ID+".indicator_pin", z.IndicatorPin)
	}
	claim("buzzer_pin", cfg.BuzzerPin)

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
}

func (cfg *Config) outputsActiveHigh() bool {
	if cfg.OutputsActiveHigh == nil {
		return true
	}
	return *cfg.OutputsActiveHigh
}

// ZoneModels hydrates the configured zones into runtime handles.
func (cfg *Config) ZoneModels() []model.Zone {
	zones := make([]model.Zone, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		label := z.Label
		if label == "" {
			label = z.ID
		}
		zones = append(zones, model.Zone{
			ID:           z.ID,
			Label:        label,
			SensorPin:    model.GPIOPin{Number: *z.SensorPin, ActiveHigh: true},
			IndicatorPin: model.GPIOPin{Number: *z.IndicatorPin, ActiveHigh: cfg.outputsActiveHigh()},
		})
	}
	return zones
}

// Buzzer returns the shared alerting-device handle.
func (cfg *Config) Buzzer() model.GPIOPin {
	return model.GPIOPin{Number: *cfg.BuzzerPin, ActiveHigh: cfg.outputsActiveHigh()}
}

func (t Timing) WatcherPoll() time.Duration       { return time.Duration(t.WatcherPollMS) * time.Millisecond }
func (t Timing) Debounce() time.Duration          { return time.Duration(t.DebounceMS) * time.Millisecond }
func (t Timing) PulseInterval() time.Duration     { return time.Duration(t.PulseIntervalMS) * time.Millisecond }
func (t Timing) HeartbeatInterval() time.Duration { return time.Duration(t.HeartbeatIntervalMS) * time.Millisecond }

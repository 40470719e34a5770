package model

import "time"

// GPIOPin identifies a physical line by BCM number and polarity.
// ActiveHigh false means the line is active when driven low (relay
// boards that sink current).
type GPIOPin struct {
	Number     int  `json:"number"`
	ActiveHigh bool `json:"active_high"`
}

// Zone is one monitored area: a PIR sensor input and an indicator output.
type Zone struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	SensorPin    GPIOPin `json:"sensor_pin"`
	IndicatorPin GPIOPin `json:"indicator_pin"`
}

// SensorEvent is a rising edge on a zone's sensor, emitted by the watcher
// and consumed by the alarm controller.
type SensorEvent struct {
	ZoneID     string
	DetectedAt time.Time
}

// AlarmEvent is a debounce-confirmed alarm as persisted in the events table.
type AlarmEvent struct {
	ID         int64     `json:"id"`
	ZoneID     string    `json:"zone_id"`
	Label      string    `json:"label"`
	DetectedAt time.Time `json:"detected_at"`
}

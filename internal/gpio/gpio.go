package gpio

import (
	"fmt"

	"github.com/dmaitland/alarm-controller/internal/model"
	"github.com/dmaitland/alarm-controller/internal/pinctrl"
	"github.com/dmaitland/alarm-controller/system/shutdown"
)

// Backend drives physical pins. Two implementations exist: the default
// shells out to the Raspberry Pi pinctrl tool, the other uses periph.io
// memory-mapped GPIO.
type Backend interface {
	Name() string
	ConfigureInput(pin int) error // input, pull-down
	Write(pin int, level bool) error
	ReadLevel(pin int) (bool, error)
}

type pinctrlBackend struct{}

func (pinctrlBackend) Name() string { return "pinctrl" }

func (pinctrlBackend) ConfigureInput(pin int) error {
	return pinctrl.SetPin(pin, "ip", "pd")
}

func (pinctrlBackend) Write(pin int, level bool) error {
	if level {
		return pinctrl.SetPin(pin, "op", "pn", "dh")
	}
	return pinctrl.SetPin(pin, "op", "pn", "dl")
}

func (pinctrlBackend) ReadLevel(pin int) (bool, error) {
	return pinctrl.ReadLevel(pin)
}

var safeMode bool
var backend Backend = pinctrlBackend{}

func defaultSetPin(pin int, level bool) {
	if err := backend.Write(pin, level); err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to write pin %d", pin))
	}
}

func defaultGetPin(pin int) bool {
	level, err := backend.ReadLevel(pin)
	if err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to read pin level for pin %d", pin))
	}
	return level
}

// setPin and getPin are the seams the tests replace via MockGPIO.
var setPin = defaultSetPin
var getPin = defaultGetPin

func SetSafeMode(enabled bool) {
	safeMode = enabled
}

// UseBackend selects the hardware backend by name ("pinctrl" or "periph").
func UseBackend(name string) error {
	switch name {
	case "pinctrl":
		backend = pinctrlBackend{}
	case "periph":
		b, err := newPeriphBackend()
		if err != nil {
			return err
		}
		backend = b
	default:
		return fmt.Errorf("unknown gpio backend %q", name)
	}
	return nil
}

// MockGPIO replaces the pin write/read seams for tests.
func MockGPIO(set func(pin int, level bool), read func(pin int) bool) {
	setPin = set
	getPin = read
}

// ResetGPIO restores the hardware-backed pin seams.
func ResetGPIO() {
	setPin = defaultSetPin
	getPin = defaultGetPin
}

// Read returns the raw logic level of a pin.
func Read(pin model.GPIOPin) bool {
	return getPin(pin.Number)
}

// CurrentlyActive reports whether the pin is at its active level.
func CurrentlyActive(pin model.GPIOPin) bool {
	return pin.ActiveHigh == Read(pin)
}

func Activate(pin model.GPIOPin) {
	if safeMode {
		return
	}
	setPin(pin.Number, pin.ActiveHigh)
}

func Deactivate(pin model.GPIOPin) {
	if safeMode {
		return
	}
	setPin(pin.Number, !pin.ActiveHigh)
}

// Toggle flips the pin to the opposite of its current level.
func Toggle(pin model.GPIOPin) {
	if safeMode {
		return
	}
	setPin(pin.Number, !getPin(pin.Number))
}

// Setup puts every alarm pin into its idle state: sensor inputs with
// pull-down, indicator and buzzer outputs driven inactive.
func Setup(zones []model.Zone, buzzer model.GPIOPin) error {
	if safeMode {
		return nil
	}
	for _, z := range zones {
		if err := backend.ConfigureInput(z.SensorPin.Number); err != nil {
			return fmt.Errorf("failed to configure sensor pin %d for zone %s: %w", z.SensorPin.Number, z.ID, err)
		}
	}
	for _, z := range zones {
		if err := backend.Write(z.IndicatorPin.Number, !z.IndicatorPin.ActiveHigh); err != nil {
			return fmt.Errorf("failed to idle indicator pin %d for zone %s: %w", z.IndicatorPin.Number, z.ID, err)
		}
	}
	if err := backend.Write(buzzer.Number, !buzzer.ActiveHigh); err != nil {
		return fmt.Errorf("failed to idle buzzer pin %d: %w", buzzer.Number, err)
	}
	return nil
}

// ValidateStartupPins refuses startup if any output pin is already active.
// A buzzer screaming before the controller has even started means the
// wiring or a previous run left the board in a bad state.
func ValidateStartupPins(zones []model.Zone, buzzer model.GPIOPin) error {
	type pinWithMeta struct {
		Name string
		Pin  model.GPIOPin
	}

	var checks []pinWithMeta
	for _, z := range zones {
		checks = append(checks, pinWithMeta{Name: z.ID + ".indicator", Pin: z.IndicatorPin})
	}
	checks = append(checks, pinWithMeta{Name: "buzzer", Pin: buzzer})

	for _, check := range checks {
		if CurrentlyActive(check.Pin) {
			return fmt.Errorf("pin %d (%s) is active at startup (expected inactive)", check.Pin.Number, check.Name)
		}
	}
	return nil
}

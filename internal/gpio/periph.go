package gpio

import (
	"fmt"

	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphBackend drives pins through periph.io's memory-mapped GPIO instead
// of shelling out to pinctrl. Pins are addressed by their BCM numbers.
type periphBackend struct{}

func newPeriphBackend() (Backend, error) {
	// host.Init is safe to call more than once.
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return periphBackend{}, nil
}

func (periphBackend) Name() string { return "periph" }

func (periphBackend) lookup(pin int) (periphgpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return nil, fmt.Errorf("GPIO%d not present in periph registry", pin)
	}
	return p, nil
}

func (b periphBackend) ConfigureInput(pin int) error {
	p, err := b.lookup(pin)
	if err != nil {
		return err
	}
	return p.In(periphgpio.PullDown, periphgpio.NoEdge)
}

func (b periphBackend) Write(pin int, level bool) error {
	p, err := b.lookup(pin)
	if err != nil {
		return err
	}
	return p.Out(periphgpio.Level(level))
}

func (b periphBackend) ReadLevel(pin int) (bool, error) {
	p, err := b.lookup(pin)
	if err != nil {
		return false, err
	}
	return p.Read() == periphgpio.High, nil
}

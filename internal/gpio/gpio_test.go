package gpio

import (
	"testing"

	"github.com/dmaitland/alarm-controller/internal/model"
)

func TestToggleFlipsLevel(t *testing.T) {
	defer ResetGPIO()

	fakeState := map[int]bool{}
	MockGPIO(
		func(pin int, level bool) { fakeState[pin] = level },
		func(pin int) bool { return fakeState[pin] },
	)

	pin := model.GPIOPin{Number: 15, ActiveHigh: true}

	Toggle(pin)
	if !fakeState[15] {
		t.Fatal("expected pin high after first toggle")
	}
	Toggle(pin)
	if fakeState[15] {
		t.Fatal("expected pin low after second toggle")
	}
}

func TestActivateDeactivateHonorsPolarity(t *testing.T) {
	defer ResetGPIO()

	fakeState := map[int]bool{}
	MockGPIO(
		func(pin int, level bool) { fakeState[pin] = level },
		func(pin int) bool { return fakeState[pin] },
	)

	activeLow := model.GPIOPin{Number: 14, ActiveHigh: false}

	Activate(activeLow)
	if fakeState[14] {
		t.Fatal("activating an active-low pin should drive it low")
	}
	if !CurrentlyActive(activeLow) {
		t.Fatal("expected pin to report active")
	}

	Deactivate(activeLow)
	if !fakeState[14] {
		t.Fatal("deactivating an active-low pin should drive it high")
	}
}

func TestSafeModeBlocksWrites(t *testing.T) {
	defer ResetGPIO()
	defer SetSafeMode(false)

	writes := 0
	fakeState := map[int]bool{}
	MockGPIO(
		func(pin int, level bool) { writes++; fakeState[pin] = level },
		func(pin int) bool { return fakeState[pin] },
	)

	SetSafeMode(true)

	pin := model.GPIOPin{Number: 15, ActiveHigh: true}
	Activate(pin)
	Deactivate(pin)
	Toggle(pin)

	if writes != 0 {
		t.Fatalf("expected no writes in safe mode, got %d", writes)
	}
}

func TestValidateStartupPins(t *testing.T) {
	defer ResetGPIO()

	fakeState := map[int]bool{}
	MockGPIO(
		func(pin int, level bool) { fakeState[pin] = level },
		func(pin int) bool { return fakeState[pin] },
	)

	zones := []model.Zone{
		{ID: "bedroom", IndicatorPin: model.GPIOPin{Number: 15, ActiveHigh: true}},
		{ID: "living_room", IndicatorPin: model.GPIOPin{Number: 11, ActiveHigh: true}},
	}
	buzzer := model.GPIOPin{Number: 14, ActiveHigh: true}

	if err := ValidateStartupPins(zones, buzzer); err != nil {
		t.Fatalf("expected valid state, got error: %v", err)
	}

	fakeState[14] = true // buzzer stuck on
	if err := ValidateStartupPins(zones, buzzer); err == nil {
		t.Fatal("expected error due to active output at startup, got nil")
	}
}

package motordriver

import (
	"testing"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

func TestSetPowerDirections(t *testing.T) {
	a := &gpiotest.Pin{N: "A"}
	b := &gpiotest.Pin{N: "B"}
	d := NewL293(a, b, DefaultFrequency)

	if err := d.SetPower(100); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}
	if a.L != gpio.Low || b.D != Duty(100) || b.F != DefaultFrequency {
		t.Errorf("Positive power: a=%v b duty=%v freq=%v", a.L, b.D, b.F)
	}

	if err := d.SetPower(-40); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}
	if a.D != Duty(40) || b.L != gpio.Low {
		t.Errorf("Negative power: a duty=%v b=%v", a.D, b.L)
	}
}

func TestSetPowerClamps(t *testing.T) {
	a := &gpiotest.Pin{N: "A"}
	b := &gpiotest.Pin{N: "B"}
	d := NewL293(a, b, DefaultFrequency)

	if err := d.SetPower(10000); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}
	if b.D != gpio.DutyMax {
		t.Errorf("Over range power gave duty %v, expected %v", b.D, gpio.DutyMax)
	}

	if err := d.SetPower(-10000); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}
	if a.D != gpio.DutyMax {
		t.Errorf("Under range power gave duty %v, expected %v", a.D, gpio.DutyMax)
	}
}

func TestZeroPowerStops(t *testing.T) {
	a := &gpiotest.Pin{N: "A", L: gpio.High}
	b := &gpiotest.Pin{N: "B", L: gpio.High}
	d := NewL293(a, b, DefaultFrequency)
	if err := d.SetPower(0); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}
	if a.L != gpio.Low || b.L != gpio.Low {
		t.Errorf("Zero power should drive both inputs low")
	}
}

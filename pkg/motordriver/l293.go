package motordriver

import (
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// MaxPower is the magnitude of full power.
const MaxPower = 255

// DefaultFrequency is the PWM carrier used by the L293 bridge.
const DefaultFrequency = 30 * physic.KiloHertz

// L293 drives one DC motor through a half of an L293 H-bridge. Negative
// power drives the A input, positive power the B input; the other input is
// held low.
type L293 struct {
	dirA      gpio.PinOut
	dirB      gpio.PinOut
	frequency physic.Frequency
}

func NewL293(dirA, dirB gpio.PinOut, frequency physic.Frequency) *L293 {
	return &L293{
		dirA:      dirA,
		dirB:      dirB,
		frequency: frequency,
	}
}

// SetPower sets the signed motor power, clamped to ±MaxPower.
func (d *L293) SetPower(power int32) error {
	if power > MaxPower {
		power = MaxPower
	} else if power < -MaxPower {
		power = -MaxPower
	}

	var a, b int32
	if power < 0 {
		a = -power
	} else {
		b = power
	}
	if err := d.write(d.dirA, a); err != nil {
		return err
	}
	return d.write(d.dirB, b)
}

func (d *L293) write(pin gpio.PinOut, power int32) error {
	if power == 0 {
		return pin.Out(gpio.Low)
	}
	return pin.PWM(Duty(power), d.frequency)
}

// Duty converts a power magnitude in [0, MaxPower] to a PWM duty cycle.
func Duty(power int32) gpio.Duty {
	return gpio.Duty(int64(power) * int64(gpio.DutyMax) / MaxPower)
}

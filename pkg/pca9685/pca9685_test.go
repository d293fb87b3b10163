package pca9685

import (
	"testing"
	"time"
)

type regWrite struct {
	reg byte
	buf []byte
}

type fakeBus struct {
	writes []regWrite
}

func (b *fakeBus) WriteReg(reg byte, buf []byte) error {
	b.writes = append(b.writes, regWrite{reg, append([]byte(nil), buf...)})
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) last(t *testing.T) regWrite {
	if len(b.writes) == 0 {
		t.Fatalf("No register writes")
	}
	return b.writes[len(b.writes)-1]
}

func offCount(w regWrite) int {
	return int(w.buf[2]) | int(w.buf[3])<<8
}

func TestSetPulse(t *testing.T) {
	bus := &fakeBus{}
	p := New(bus)

	if err := p.SetPulse(3, 1500*time.Microsecond); err != nil {
		t.Fatal(err)
	}
	w := bus.last(t)
	if w.reg != RegLEDBase+12 {
		t.Errorf("Port 3 wrote register %#x", w.reg)
	}
	if got := offCount(w); got != 307 {
		t.Errorf("1.5ms pulse = %d counts, expected 307", got)
	}

	if err := p.SetPWM(0, 2); err != nil {
		t.Fatal(err)
	}
	if got := offCount(bus.last(t)); got != PWMMax {
		t.Errorf("Clamped PWM = %d counts", got)
	}

	n := len(bus.writes)
	if err := p.SetPWM(16, 0.5); err != nil {
		t.Fatal(err)
	}
	if len(bus.writes) != n {
		t.Errorf("Out of range port should not be written")
	}
}

func TestServoAngles(t *testing.T) {
	bus := &fakeBus{}
	s := NewServo(New(bus), ServoSettings{Port: 0, MinPulseMicros: 500, MaxPulseMicros: 2500, MaxAngle: 180})

	if err := s.SetAngle(90); err != nil {
		t.Fatal(err)
	}
	if len(bus.writes) != 0 {
		t.Fatalf("Disabled servo should not pulse")
	}

	if err := s.SetEnabled(true); err != nil {
		t.Fatal(err)
	}
	// 1500us of a 20ms period.
	if got := offCount(bus.last(t)); got != 307 {
		t.Errorf("90 degrees = %d counts, expected 307", got)
	}

	if err := s.SetAngle(250); err != nil {
		t.Fatal(err)
	}
	if got := offCount(bus.last(t)); got != 511 {
		t.Errorf("Clamped angle = %d counts, expected 511", got)
	}

	if err := s.SetEnabled(false); err != nil {
		t.Fatal(err)
	}
	if got := offCount(bus.last(t)); got != 0 {
		t.Errorf("Disabled servo still pulses: %d", got)
	}
}

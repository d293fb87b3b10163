package encoder

import (
	"testing"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

func waitForPosition(t *testing.T, e *Encoder, want int32) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.Position() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Position = %d, expected %d", e.Position(), want)
}

func TestCountsInPhaseBDirection(t *testing.T) {
	a := &gpiotest.Pin{N: "A", EdgesChan: make(chan gpio.Level)}
	b := &gpiotest.Pin{N: "B", L: gpio.High}
	e := New(a, b)

	if err := e.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	defer e.Disable()

	for i := 0; i < 5; i++ {
		a.EdgesChan <- gpio.High
	}
	waitForPosition(t, e, 5)

	b.Lock()
	b.L = gpio.Low
	b.Unlock()
	for i := 0; i < 8; i++ {
		a.EdgesChan <- gpio.High
	}
	waitForPosition(t, e, -3)
}

func TestDisableKeepsCount(t *testing.T) {
	a := &gpiotest.Pin{N: "A", EdgesChan: make(chan gpio.Level)}
	b := &gpiotest.Pin{N: "B", L: gpio.High}
	e := New(a, b)

	e.SetPosition(100)
	if err := e.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	a.EdgesChan <- gpio.High
	waitForPosition(t, e, 101)
	e.Disable()

	select {
	case a.EdgesChan <- gpio.High:
		t.Errorf("Disabled encoder still consumed an edge")
	case <-time.After(2 * edgePollTimeout):
	}
	if e.Position() != 101 {
		t.Errorf("Position after disable = %d, expected 101", e.Position())
	}

	// Enabling twice is harmless.
	if err := e.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if err := e.Enable(); err != nil {
		t.Fatalf("Second enable failed: %v", err)
	}
	e.Disable()
}

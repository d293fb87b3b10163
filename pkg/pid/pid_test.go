package pid

import (
	"math"
	"testing"
)

func TestCalcClampsOutputAndIntegral(t *testing.T) {
	s := &Settings{Kp: 10, Ki: 3, Kd: 0.2, AbsMaxI: 255, AbsMaxOut: 255}
	r := New(s)

	for i := 0; i < 100000; i++ {
		err := 1000.0
		if i%7 == 0 {
			err = -5000
		}
		out := r.Calc(err, 0.001)
		if math.Abs(out) > s.AbsMaxOut {
			t.Fatalf("Output %v exceeds limit at step %d", out, i)
		}
		if math.Abs(r.Integral()) > s.AbsMaxI {
			t.Fatalf("Integral %v exceeds limit at step %d", r.Integral(), i)
		}
	}
}

func TestCalcTerms(t *testing.T) {
	r := New(&Settings{Kp: 2, Ki: 1, Kd: 0.5, AbsMaxI: 100, AbsMaxOut: 1000})

	// integral = 10*0.5 = 5, derivative = 10/0.5 = 20
	if out := r.Calc(10, 0.5); out != 2*10+1*5+0.5*20 {
		t.Errorf("First step output = %v", out)
	}
	// integral = 5 + 10*0.5 = 10, derivative = 0
	if out := r.Calc(10, 0.5); out != 2*10+1*10 {
		t.Errorf("Second step output = %v", out)
	}

	r.Reset()
	if r.Integral() != 0 {
		t.Errorf("Integral after reset = %v", r.Integral())
	}
}

func TestGainsReadLive(t *testing.T) {
	s := &Settings{Kp: 1, AbsMaxI: 10, AbsMaxOut: 100}
	r := New(s)
	if out := r.Calc(5, 1); out != 5 {
		t.Fatalf("Output = %v, expected 5", out)
	}
	s.Kp = 3
	if out := r.Calc(5, 1); out != 15 {
		t.Errorf("Output after retune = %v, expected 15", out)
	}
}

package tunable

import (
	"math"
	"testing"
)

func TestTunables(t *testing.T) {
	var ts Tunables
	kp := ts.Create("Kp", 10, 0.1)
	ki := ts.Create("Ki", 3, 0.01)

	if kp.Get() != 100 || math.Abs(kp.Float()-10) > 1e-9 {
		t.Errorf("Kp = %d steps, %v", kp.Get(), kp.Float())
	}
	if ts.Current() != kp {
		t.Errorf("First tunable should be selected")
	}

	ts.SelectNext()
	ts.Current().Add(-50)
	if math.Abs(ki.Float()-2.5) > 1e-9 {
		t.Errorf("Ki = %v, expected 2.5", ki.Float())
	}

	ts.SelectNext()
	if ts.Current() != kp {
		t.Errorf("Selection should wrap forwards")
	}
	ts.SelectPrev()
	if ts.Current() != ki {
		t.Errorf("Selection should wrap backwards")
	}
}

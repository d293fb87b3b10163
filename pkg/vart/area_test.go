package vart

import (
	"errors"
	"math"
	"testing"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
)

func TestForwardBackwardRoundTrip(t *testing.T) {
	settings := DefaultSettings()
	a := NewArea(&settings.Area)

	for _, size := range []geometry.Vector2D{{X: 500, Y: 700}, {X: 1200, Y: 900}, {X: 4000, Y: 4000}} {
		size = a.SetSize(size)
		w, h := size.X/2, size.Y/2
		for x := -w + 1; x < w; x += w / 7 {
			for y := -h; y < h-1; y += h / 9 {
				p := geometry.Vector2D{X: x, Y: y}
				l, r := a.CalcBackward(p)
				got, err := a.CalcForward(l, r)
				if err != nil {
					t.Fatalf("CalcForward(%v, %v) for %v failed: %v", l, r, p, err)
				}
				if got.Distance(p) > 1e-6 {
					t.Errorf("Round trip of %v in %v gave %v", p, size, got)
				}
			}
		}
	}
}

func TestCalcForwardDomain(t *testing.T) {
	settings := DefaultSettings()
	a := NewArea(&settings.Area)
	w := a.Size().X / 2

	_, err := a.CalcForward(10, 10)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("Ropes shorter than half the width should be unreachable, got %v", err)
	}
	if domainErr.Radicand >= 0 {
		t.Errorf("Reported radicand %v should be negative", domainErr.Radicand)
	}

	// Both ropes exactly half the width: the pen is on the anchor line.
	p, err := a.CalcForward(w, w)
	if err != nil {
		t.Fatalf("Anchor line should be reachable: %v", err)
	}
	if p.X != 0 || p.Y != a.Size().Y/2 {
		t.Errorf("Anchor line point = %v", p)
	}

	// Rounding just below the anchor line is tolerated.
	if _, err := a.CalcForward(w-1e-12, w-1e-12); err != nil {
		t.Errorf("Rounding noise should not be a domain error: %v", err)
	}
	if _, err := a.CalcForward(w-1e-3, w-1e-3); err == nil {
		t.Errorf("Ropes 1um short of the anchor line should be a domain error")
	}
}

func TestSetSizeClamps(t *testing.T) {
	settings := DefaultSettings()
	a := NewArea(&settings.Area)

	if got := a.SetSize(geometry.Vector2D{X: 100, Y: 9000}); got != (geometry.Vector2D{X: 500, Y: 4000}) {
		t.Errorf("SetSize returned %v", got)
	}
	if a.Size() != (geometry.Vector2D{X: 500, Y: 4000}) {
		t.Errorf("Size = %v", a.Size())
	}

	// Half sizes come from the clamped size.
	l, r := a.CalcBackward(geometry.Vector2D{})
	if math.Abs(l-math.Hypot(250, 2000)) > 1e-9 || l != r {
		t.Errorf("Origin ropes = %v, %v", l, r)
	}
}

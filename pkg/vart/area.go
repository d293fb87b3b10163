package vart

import (
	"fmt"
	"math"
	"sync"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
)

// Radicands this close below zero are rounding noise on the anchor line.
const forwardEpsilon = 1e-9

type AreaSettings struct {
	MaxSize     geometry.Vector2D `koanf:"max_area_size" yaml:"max_area_size"`
	MinSize     geometry.Vector2D `koanf:"min_area_size" yaml:"min_area_size"`
	DefaultSize geometry.Vector2D `koanf:"default_area_size" yaml:"default_area_size"`
}

// DomainError is returned when two rope lengths do not describe a point
// below the anchors.
type DomainError struct {
	Left, Right float64
	Radicand    float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("rope lengths %.3f/%.3f are unreachable (radicand %.6g)", e.Left, e.Right, e.Radicand)
}

// Area is the working rectangle. The origin is its centre, X grows to the
// right and Y grows upwards; the rope anchors sit at the top corners.
type Area struct {
	settings *AreaSettings

	lock sync.RWMutex
	size geometry.Vector2D
	// Half width and half height of size.
	w, h float64
}

func NewArea(settings *AreaSettings) *Area {
	a := &Area{settings: settings}
	a.SetSize(settings.DefaultSize)
	return a
}

func (a *Area) Size() geometry.Vector2D {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.size
}

// SetSize clamps size to the configured limits and returns what was set.
func (a *Area) SetSize(size geometry.Vector2D) geometry.Vector2D {
	size = size.Clamp(a.settings.MinSize, a.settings.MaxSize)

	a.lock.Lock()
	defer a.lock.Unlock()
	a.size = size
	a.w = size.X / 2
	a.h = size.Y / 2
	return size
}

// CalcBackward returns the left and right rope lengths that put the pen at p.
func (a *Area) CalcBackward(p geometry.Vector2D) (left, right float64) {
	a.lock.RLock()
	w, h := a.w, a.h
	a.lock.RUnlock()

	dy := h - p.Y
	return math.Hypot(p.X+w, dy), math.Hypot(p.X-w, dy)
}

// CalcForward returns the pen position for the given rope lengths.
func (a *Area) CalcForward(left, right float64) (geometry.Vector2D, error) {
	a.lock.RLock()
	w, h := a.w, a.h
	a.lock.RUnlock()

	x := (left - right) * (left + right) / (4 * w)
	radicand := (left - x - w) * (left + x + w)
	if radicand < 0 {
		if radicand <= -forwardEpsilon {
			return geometry.Vector2D{}, &DomainError{Left: left, Right: right, Radicand: radicand}
		}
		radicand = 0
	}
	return geometry.Vector2D{X: x, Y: h - math.Sqrt(radicand)}, nil
}

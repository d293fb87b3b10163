package vart

import (
	"sync"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
)

// Rope offsets accepted while homing, in mm.
var OffsetRange = geometry.Range[int32]{Min: -120, Max: 120}

const (
	homingMoveMode   = ModeAccel
	homingOffsetMode = ModePosition
)

// homing remembers the last point the setup actions sent the pen to, so
// an offset change can be applied by going back there.
type homing struct {
	lock   sync.Mutex
	target geometry.Vector2D
}

func (d *Device) homingMove(target geometry.Vector2D, mode Mode) error {
	d.homing.lock.Lock()
	defer d.homing.lock.Unlock()
	d.homing.target = target
	if err := d.Planner.SetMode(mode); err != nil {
		return err
	}
	return d.Planner.MoveTo(target)
}

func (d *Device) homingTarget() geometry.Vector2D {
	d.homing.lock.Lock()
	defer d.homing.lock.Unlock()
	return d.homing.target
}

// MoveTop sends the pen to the middle of the top edge.
func (d *Device) MoveTop() error {
	return d.homingMove(geometry.Vector2D{X: 0, Y: d.Controller().AreaSize().Y / 2}, homingMoveMode)
}

// MoveHome sends the pen to the centre of the area.
func (d *Device) MoveHome() error {
	return d.homingMove(geometry.Vector2D{}, homingMoveMode)
}

// SetLeftOffset changes the left rope offset and moves back to the last
// homing point so the change shows up on the pen. It returns the clamped
// offset.
func (d *Device) SetLeftOffset(mm int32) (int32, error) {
	mm = OffsetRange.Clamp(mm)
	d.Controller().SetLeftOffset(mm)
	return mm, d.homingMove(d.homingTarget(), homingOffsetMode)
}

func (d *Device) SetRightOffset(mm int32) (int32, error) {
	mm = OffsetRange.Clamp(mm)
	d.Controller().SetRightOffset(mm)
	return mm, d.homingMove(d.homingTarget(), homingOffsetMode)
}

package vart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/logging"
)

// PositionController places the pen on the area by driving both pulleys.
type PositionController struct {
	area  *Area
	left  *Pulley
	right *Pulley
}

func NewPositionController(area *Area, left, right *Pulley) *PositionController {
	return &PositionController{
		area:  area,
		left:  left,
		right: right,
	}
}

func (c *PositionController) Area() *Area    { return c.area }
func (c *PositionController) Left() *Pulley  { return c.left }
func (c *PositionController) Right() *Pulley { return c.right }

// Update runs one regulator step on both pulleys.
func (c *PositionController) Update() error {
	return errors.Join(c.left.Update(), c.right.Update())
}

func (c *PositionController) SetAreaSize(size geometry.Vector2D) geometry.Vector2D {
	return c.area.SetSize(size)
}

func (c *PositionController) AreaSize() geometry.Vector2D {
	return c.area.Size()
}

func (c *PositionController) SetEnabled(enabled bool) error {
	return errors.Join(c.left.SetEnabled(enabled), c.right.SetEnabled(enabled))
}

// IsReady reports whether both pulleys have reached their targets.
func (c *PositionController) IsReady() bool {
	return c.left.IsReady() && c.right.IsReady()
}

func (c *PositionController) SetTargetPosition(target geometry.Vector2D) {
	l, r := c.area.CalcBackward(target)
	c.left.SetTargetRopeLength(l)
	c.right.SetTargetRopeLength(r)
}

// TargetPosition is where the pulleys are currently being driven to.
func (c *PositionController) TargetPosition() (geometry.Vector2D, error) {
	return c.area.CalcForward(c.left.TargetRopeLength(), c.right.TargetRopeLength())
}

func (c *PositionController) CurrentPosition() (geometry.Vector2D, error) {
	return c.area.CalcForward(c.left.CurrentRopeLength(), c.right.CurrentRopeLength())
}

// SetCurrentPositionAsHome declares the pen to be at the origin and holds
// it there.
func (c *PositionController) SetCurrentPositionAsHome() {
	l, r := c.area.CalcBackward(geometry.Vector2D{})
	c.left.SetCurrentRopeLength(l)
	c.right.SetCurrentRopeLength(r)
	c.SetTargetPosition(geometry.Vector2D{})
}

// UpdatePeriod is the slower of the two pulley update periods.
func (c *PositionController) UpdatePeriod() time.Duration {
	l, r := c.left.UpdatePeriod(), c.right.UpdatePeriod()
	if l > r {
		return l
	}
	return r
}

// PullRopesIn winds both ropes all the way in.
func (c *PositionController) PullRopesIn() {
	c.left.SetTargetRopeLength(0)
	c.right.SetTargetRopeLength(0)
}

// PullRopesOut lets the ropes out until the pen hangs at the origin.
func (c *PositionController) PullRopesOut() {
	c.SetTargetPosition(geometry.Vector2D{})
}

func (c *PositionController) SetLeftOffset(mm int32) {
	c.left.SetOffset(mm)
}

func (c *PositionController) SetRightOffset(mm int32) {
	c.right.SetOffset(mm)
}

// Loop steps the regulators every update period until ctx is done, then
// disables both axes.
func (c *PositionController) Loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log := logging.For("servo")
	defer log.Info("Servo loop exited")
	defer func() {
		if err := c.SetEnabled(false); err != nil {
			log.WithError(err).Warn("Failed to disable axes")
		}
	}()

	ticker := time.NewTicker(c.UpdatePeriod())
	defer ticker.Stop()

	var failures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := c.Update(); err != nil {
			failures++
			if failures%1000 == 1 {
				log.WithError(err).WithField("failures", failures).Warn("Servo update failed")
			}
		}
	}
}

package vart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/servomotor"
)

type stillEncoder struct{ position int32 }

func (e *stillEncoder) Position() int32         { return e.position }
func (e *stillEncoder) SetPosition(ticks int32) { e.position = ticks }
func (e *stillEncoder) Enable() error           { return nil }
func (e *stillEncoder) Disable()                {}

type nullDriver struct{}

func (nullDriver) SetPower(int32) error { return nil }

func TestHomeIsReady(t *testing.T) {
	settings := DefaultSettings()
	left := servomotor.New(&settings.Servomotor, nullDriver{}, &stillEncoder{position: 1234})
	right := servomotor.New(&settings.Servomotor, nullDriver{}, &stillEncoder{position: -999})
	d := NewDevice(&settings, left, right, &recordingToolServo{})
	c := d.Controller()

	if c.IsReady() {
		t.Fatalf("Uncalibrated controller should not be ready")
	}
	c.SetCurrentPositionAsHome()
	if !c.IsReady() {
		t.Errorf("Controller should be ready right after homing")
	}
	p, err := c.CurrentPosition()
	if err != nil {
		t.Fatalf("CurrentPosition failed: %v", err)
	}
	if p.Length() > 0.5 {
		t.Errorf("Home position = %v", p)
	}
}

func TestPullRopes(t *testing.T) {
	d, left, right, _ := newTestDevice()
	c := d.Controller()

	c.PullRopesIn()
	if left.TargetPosition() != 0 || right.TargetPosition() != 0 {
		t.Errorf("Pulling in should target zero length, got %d, %d", left.TargetPosition(), right.TargetPosition())
	}

	c.PullRopesOut()
	l, r := c.Area().CalcBackward(geometry.Vector2D{})
	if left.TargetPosition() != d.Settings.Pulley.MMToTicks(l) || right.TargetPosition() != d.Settings.Pulley.MMToTicks(r) {
		t.Errorf("Pulling out should target the origin")
	}

	c.SetLeftOffset(10)
	c.SetRightOffset(-5)
	if c.Left().Offset() != 10 || c.Right().Offset() != -5 {
		t.Errorf("Offsets = %d, %d", c.Left().Offset(), c.Right().Offset())
	}
}

func TestLoopUpdatesAndDisables(t *testing.T) {
	d, left, right, _ := newTestDevice()
	c := d.Controller()
	if err := c.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go c.Loop(ctx, &wg)

	time.Sleep(30 * time.Millisecond)
	cancel()
	wg.Wait()

	left.lock.Lock()
	defer left.lock.Unlock()
	if left.updates == 0 {
		t.Errorf("Loop never updated the servos")
	}
	if left.enabled {
		t.Errorf("Left axis still enabled after loop exit")
	}
	right.lock.Lock()
	defer right.lock.Unlock()
	if right.enabled {
		t.Errorf("Right axis still enabled after loop exit")
	}
}

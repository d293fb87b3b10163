package hardware

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/servomotor"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestSimAxisFollowsPower(t *testing.T) {
	clock := &manualClock{now: time.Unix(0, 0)}
	a := NewSimAxisWithClock(8000, 0.02, clock.Now)

	if err := a.SetPower(255); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	// Full speed for a second, less the lag of one time constant.
	want := 8000 - 8000*0.02
	if got := float64(a.Position()); math.Abs(got-want) > 2 {
		t.Errorf("Position after 1s = %v, expected ~%v", got, want)
	}

	if err := a.SetPower(-1000); err != nil {
		t.Fatal(err)
	}
	if a.Power() != -255 {
		t.Errorf("Power = %d, expected clamp to -255", a.Power())
	}

	a.SetPosition(42)
	if a.Position() != 42 {
		t.Errorf("SetPosition not applied: %d", a.Position())
	}
}

func TestServoSettlesOnSimAxis(t *testing.T) {
	settings := config.Default()
	clock := &manualClock{now: time.Unix(0, 0)}
	axis := NewSimAxisWithClock(8000, 0.02, clock.Now)
	servo := servomotor.New(&settings.Vart.Servomotor, axis, axis)

	if err := servo.SetEnabled(true); err != nil {
		t.Fatal(err)
	}
	if !axis.Armed() {
		t.Errorf("Enabling the servo should arm the encoder")
	}
	servo.SetTargetPosition(1000)
	for i := 0; i < 3000; i++ {
		if err := servo.Update(); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Millisecond)
	}
	if !servo.IsReady() {
		t.Errorf("Servo did not settle: at %d, target 1000", servo.CurrentPosition())
	}
}

func TestSimPlotterMoves(t *testing.T) {
	settings := config.Default()
	settings.Simulation.Enabled = true
	sim := NewSim(&settings)

	ctx, cancel := context.WithCancel(context.Background())
	sim.Start(ctx)
	defer sim.Shutdown()
	defer cancel()

	d := sim.Device()
	c := d.Controller()
	c.SetCurrentPositionAsHome()
	if err := c.SetEnabled(true); err != nil {
		t.Fatal(err)
	}

	target := geometry.Vector2D{X: 5, Y: -5}
	if err := d.Planner.MoveTo(target); err != nil {
		t.Fatalf("MoveTo failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !c.IsReady() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p, err := c.CurrentPosition()
	if err != nil {
		t.Fatal(err)
	}
	if p.Distance(target) > 3 {
		t.Errorf("Pen at %v, expected near %v", p, target)
	}
}

package joystick

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/job"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/vart"
	"github.com/vart-team/vart/go-controller/pkg/vartlang"
)

// Actions are the things the pad can ask the plotter to do.
type Actions interface {
	TogglePause()
	Abort()
	StartDemo() error
	// Jog moves the pen by the given number of steps on each axis.
	Jog(dx, dy int) error
	MoveHome() error
	SetHome() error
	PullRopesIn() error
	PullRopesOut() error
	SetEnabled(enabled bool) error
}

// Control maps pad events to actions:
//
//	Cross     pause / resume the job
//	Circle    abort the job
//	Options   start the demo
//	D-pad     jog the pen
//	Triangle  move home
//	Square    set home
//	L1 / R1   pull ropes in / out
//	L2 / R2   disable / enable the axes
//
// Motion actions run in the background; presses that arrive while one is
// still running are dropped.
type Control struct {
	actions Actions
	moving  atomic.Bool
	wg      sync.WaitGroup
}

func NewControl(actions Actions) *Control {
	return &Control{actions: actions}
}

func (c *Control) OnJoystickEvent(event *Event) {
	if event.Init {
		return
	}
	switch event.Type {
	case EventTypeButton:
		if event.Value == 1 {
			c.onButton(event.Number)
		}
	case EventTypeAxis:
		c.onAxis(event.Number, event.Value)
	}
}

func (c *Control) onButton(number uint8) {
	switch number {
	case ButtonCross:
		c.actions.TogglePause()
	case ButtonCircle:
		c.actions.Abort()
	case ButtonOptions:
		c.run("start demo", c.actions.StartDemo)
	case ButtonTriangle:
		c.motion("move home", c.actions.MoveHome)
	case ButtonSquare:
		c.run("set home", c.actions.SetHome)
	case ButtonL1:
		c.run("pull ropes in", c.actions.PullRopesIn)
	case ButtonR1:
		c.run("pull ropes out", c.actions.PullRopesOut)
	case ButtonL2:
		c.run("disable", func() error { return c.actions.SetEnabled(false) })
	case ButtonR2:
		c.run("enable", func() error { return c.actions.SetEnabled(true) })
	}
}

func (c *Control) onAxis(number uint8, value int16) {
	step := 0
	if value < 0 {
		step = -1
	} else if value > 0 {
		step = 1
	}
	if step == 0 {
		return
	}
	switch number {
	case AxisDPadX:
		c.motion("jog", func() error { return c.actions.Jog(step, 0) })
	case AxisDPadY:
		// Up on the pad is negative, up on the plotter is +Y.
		c.motion("jog", func() error { return c.actions.Jog(0, -step) })
	}
}

func (c *Control) run(what string, f func() error) {
	if err := f(); err != nil {
		logging.For("joystick").WithError(err).Warnf("Failed to %s", what)
	}
}

func (c *Control) motion(what string, f func() error) {
	if !c.moving.CompareAndSwap(false, true) {
		logging.For("joystick").Debugf("Dropping %s, still moving", what)
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.moving.Store(false)
		c.run(what, f)
	}()
}

// Wait blocks until background motion has finished.
func (c *Control) Wait() {
	c.wg.Wait()
}

// Plotter drives a device and its job runner from the pad. Manual motion
// runs as a manual operation of the runner, so it is refused with
// job.ErrBusy while a job or another manual operation holds the device.
type Plotter struct {
	device *vart.Device
	runner *job.Runner
	jogMM  float64
}

var _ Actions = (*Plotter)(nil)

func NewPlotter(device *vart.Device, runner *job.Runner, jogMM float64) *Plotter {
	return &Plotter{device: device, runner: runner, jogMM: jogMM}
}

func (p *Plotter) TogglePause() {
	p.runner.SetPaused(!p.runner.Status().Paused)
}

func (p *Plotter) Abort() {
	p.runner.Abort()
}

func (p *Plotter) StartDemo() error {
	return p.runner.Start("demo", bytes.NewReader(vartlang.Demo()))
}

func (p *Plotter) Jog(dx, dy int) error {
	return p.runner.Manual("jog", func() error { return p.jog(dx, dy) })
}

func (p *Plotter) jog(dx, dy int) error {
	c := p.device.Controller()
	from, err := c.TargetPosition()
	if err != nil {
		return err
	}
	to := from.Add(geometry.Vector2D{X: float64(dx), Y: float64(dy)}.Scale(p.jogMM))
	half := c.AreaSize().Scale(0.5)
	to = to.Clamp(half.Scale(-1), half)
	if err := p.device.Planner.SetMode(vart.ModePosition); err != nil {
		return err
	}
	return p.device.Planner.MoveTo(to)
}

func (p *Plotter) MoveHome() error {
	return p.runner.Manual("move home", p.device.MoveHome)
}

func (p *Plotter) SetHome() error {
	return p.runner.Manual("set home", func() error {
		p.device.Controller().SetCurrentPositionAsHome()
		return nil
	})
}

func (p *Plotter) PullRopesIn() error {
	return p.runner.Manual("pull ropes in", func() error {
		p.device.Controller().PullRopesIn()
		return nil
	})
}

func (p *Plotter) PullRopesOut() error {
	return p.runner.Manual("pull ropes out", func() error {
		p.device.Controller().PullRopesOut()
		return nil
	})
}

func (p *Plotter) SetEnabled(enabled bool) error {
	return p.runner.Manual("set enabled", func() error {
		return p.device.Controller().SetEnabled(enabled)
	})
}

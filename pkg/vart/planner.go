package vart

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/logging"
)

type Mode uint8

const (
	// ModePosition sets the target and waits for the servos to reach it.
	ModePosition Mode = 0x00
	// ModeSpeed walks a straight line at constant speed.
	ModeSpeed Mode = 0x01
	// ModeAccel walks a straight line with bounded acceleration.
	ModeAccel Mode = 0x02
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeSpeed:
		return "speed"
	case ModeAccel:
		return "accel"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

var (
	ErrUnknownMode = errors.New("unknown planner mode")
	ErrMoveTimeout = errors.New("move did not finish in time")
)

const (
	// Simulated time step of the motion loops, in seconds.
	stepSeconds = 0.001
	// Moves shorter than this are skipped in speed mode, in mm.
	minSpeedMove = 1.0
	// Accel moves end once closer than this to the target, in mm.
	arriveDistance = 0.001
	// Slowest approach speed while braking, in mm/s.
	minApproachSpeed = 0.5
)

type PlannerSettings struct {
	DefaultMode  Mode                    `koanf:"default_mode" yaml:"default_mode"`
	SpeedRange   geometry.Range[float64] `koanf:"speed_range" yaml:"speed_range"`
	DefaultSpeed float64                 `koanf:"default_speed" yaml:"default_speed"`
	AccelRange   geometry.Range[float64] `koanf:"accel_range" yaml:"accel_range"`
	DefaultAccel float64                 `koanf:"default_accel" yaml:"default_accel"`
	// Upper bound on one move, in seconds of motion.
	MaxMoveSeconds float64 `koanf:"max_move_seconds" yaml:"max_move_seconds"`
}

// Planner turns target positions into a stream of intermediate targets for
// the position controller. Moves block the caller until they are done; the
// servo loop realises the targets in the meantime.
type Planner struct {
	settings   *PlannerSettings
	controller *PositionController
	step       time.Duration

	lock  sync.Mutex
	mode  Mode
	speed float64
	accel float64
}

func NewPlanner(settings *PlannerSettings, controller *PositionController) *Planner {
	return &Planner{
		settings:   settings,
		controller: controller,
		step:       time.Millisecond,
		mode:       settings.DefaultMode,
		speed:      settings.SpeedRange.Clamp(settings.DefaultSpeed),
		accel:      settings.AccelRange.Clamp(settings.DefaultAccel),
	}
}

func (p *Planner) Controller() *PositionController {
	return p.controller
}

func (p *Planner) SetMode(mode Mode) error {
	if mode > ModeAccel {
		return ErrUnknownMode
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.mode = mode
	return nil
}

func (p *Planner) Mode() Mode {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.mode
}

// SetSpeed sets the travel speed in mm/s, clamped to the configured range,
// and returns the value in use.
func (p *Planner) SetSpeed(speed float64) float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.speed = p.settings.SpeedRange.Clamp(speed)
	return p.speed
}

func (p *Planner) Speed() float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.speed
}

// SetAccel sets the acceleration in mm/s², clamped to the configured
// range, and returns the value in use.
func (p *Planner) SetAccel(accel float64) float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.accel = p.settings.AccelRange.Clamp(accel)
	return p.accel
}

func (p *Planner) Accel() float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.accel
}

// MoveTo moves the pen to target using the current mode and blocks until
// the move is done.
func (p *Planner) MoveTo(target geometry.Vector2D) error {
	p.lock.Lock()
	mode, speed, accel := p.mode, p.speed, p.accel
	p.lock.Unlock()

	logging.For("planner").WithFields(logrus.Fields{
		"mode": mode, "x": target.X, "y": target.Y,
	}).Debug("Move")

	switch mode {
	case ModePosition:
		return p.goPosition(target)
	case ModeSpeed:
		return p.goConstSpeed(target, speed)
	case ModeAccel:
		return p.goConstAccel(target, speed, accel)
	}
	return ErrUnknownMode
}

// maxSteps bounds the motion loops. A non-positive limit means none.
func (p *Planner) maxSteps() int {
	if p.settings.MaxMoveSeconds <= 0 {
		return math.MaxInt
	}
	return int(p.settings.MaxMoveSeconds / stepSeconds)
}

func (p *Planner) goPosition(target geometry.Vector2D) error {
	ticker := time.NewTicker(p.step)
	defer ticker.Stop()

	p.controller.SetTargetPosition(target)
	maxSteps := p.maxSteps()
	for i := 0; !p.controller.IsReady(); i++ {
		if i >= maxSteps {
			return ErrMoveTimeout
		}
		<-ticker.C
	}
	return nil
}

func (p *Planner) goConstSpeed(target geometry.Vector2D, speed float64) error {
	begin, err := p.controller.CurrentPosition()
	if err != nil {
		return err
	}
	pathLen := target.Distance(begin)
	if pathLen < minSpeedMove {
		return nil
	}

	ticker := time.NewTicker(p.step)
	defer ticker.Stop()

	steps := 1e3 * pathLen / speed
	for i := 0; float64(i) < steps; i++ {
		p.controller.SetTargetPosition(geometry.Interpolate(begin, target, float64(i)/steps))
		<-ticker.C
	}
	p.controller.SetTargetPosition(target)
	return nil
}

func (p *Planner) goConstAccel(target geometry.Vector2D, speed, accel float64) error {
	position, err := p.controller.CurrentPosition()
	if err != nil {
		return err
	}
	var velocity geometry.Vector2D
	p.controller.SetTargetPosition(position)

	ticker := time.NewTicker(p.step)
	defer ticker.Stop()

	maxSteps := p.maxSteps()
	for i := 0; position.Distance(target) > arriveDistance; i++ {
		if i >= maxSteps {
			p.controller.SetTargetPosition(target)
			return ErrMoveTimeout
		}

		toGoal := target.Sub(position)
		distance := toGoal.Length()
		v := velocity.Length()
		braking := v * v / (2 * accel)

		var desired geometry.Vector2D
		if distance > braking {
			desired = toGoal.Normalize().Scale(speed)
		} else {
			desired = toGoal.Normalize().Scale(math.Max(speed*distance/braking, minApproachSpeed))
		}

		needed := desired.Sub(velocity).Scale(1 / stepSeconds)
		if needed.Length() > accel {
			needed = needed.Normalize().Scale(accel)
		}

		newVelocity := velocity.Add(needed.Scale(stepSeconds))
		newPosition := position.Add(newVelocity.Scale(stepSeconds))
		if newPosition.Distance(target) > position.Distance(target) {
			newVelocity = geometry.Vector2D{}
		}
		velocity = newVelocity
		position = newPosition

		p.controller.SetTargetPosition(position)
		<-ticker.C
	}
	p.controller.SetTargetPosition(target)
	return nil
}

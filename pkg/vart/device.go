package vart

import (
	"sync/atomic"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/pid"
	"github.com/vart-team/vart/go-controller/pkg/servomotor"
)

// Settings gathers everything needed to build a Device.
type Settings struct {
	Servomotor servomotor.Settings `koanf:"servomotor" yaml:"servomotor"`
	Area       AreaSettings        `koanf:"area" yaml:"area"`
	Pulley     PulleySettings      `koanf:"pulley" yaml:"pulley"`
	Planner    PlannerSettings     `koanf:"planner" yaml:"planner"`
	MarkerTool MarkerToolSettings  `koanf:"marker_tool" yaml:"marker_tool"`
}

// DefaultSettings are the values the plotter ships with.
func DefaultSettings() Settings {
	return Settings{
		Servomotor: servomotor.Settings{
			UpdatePeriodSeconds: 1e-3,
			ReadyMaxAbsError:    30,
			Position: pid.Settings{
				Kp:        10,
				Ki:        3,
				Kd:        0.2,
				AbsMaxI:   255,
				AbsMaxOut: 255,
			},
		},
		Area: AreaSettings{
			MaxSize:     geometry.Vector2D{X: 4000, Y: 4000},
			MinSize:     geometry.Vector2D{X: 500, Y: 500},
			DefaultSize: geometry.Vector2D{X: 500, Y: 700},
		},
		Pulley: PulleySettings{TicksInMM: 5000.0 / 280.0},
		Planner: PlannerSettings{
			DefaultMode:    ModeAccel,
			SpeedRange:     geometry.Range[float64]{Min: 5, Max: 150},
			DefaultSpeed:   150,
			AccelRange:     geometry.Range[float64]{Min: 25, Max: 100},
			DefaultAccel:   50,
			MaxMoveSeconds: 600,
		},
		MarkerTool: MarkerToolSettings{
			AngleRange: geometry.Range[uint8]{Min: 20, Max: 150},
			Positions:  MarkerPositions{None: 78, Left: 40, Right: 120},
		},
	}
}

// Context is the state a running job shares with the user interface.
type Context struct {
	progress atomic.Int32
	quitCode atomic.Int32
	refresh  chan struct{}
}

func newContext() *Context {
	return &Context{refresh: make(chan struct{}, 1)}
}

func (c *Context) SetProgress(percent int) {
	c.progress.Store(int32(percent))
}

func (c *Context) Progress() int {
	return int(c.progress.Load())
}

func (c *Context) SetQuitCode(code int) {
	c.quitCode.Store(int32(code))
}

func (c *Context) QuitCode() int {
	return int(c.quitCode.Load())
}

// RequestRefresh asks the display to redraw. It never blocks; requests
// made while one is pending are merged.
func (c *Context) RequestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

func (c *Context) Refreshes() <-chan struct{} {
	return c.refresh
}

// Device is one assembled plotter.
type Device struct {
	Settings *Settings
	Planner  *Planner
	Tool     *MarkerTool
	Context  *Context

	homing homing
}

// NewDevice wires the motion stack on top of the two rope servos and the
// tool servo.
func NewDevice(settings *Settings, left, right Servo, tool ToolServo) *Device {
	controller := NewPositionController(
		NewArea(&settings.Area),
		NewPulley(&settings.Pulley, left),
		NewPulley(&settings.Pulley, right),
	)
	return &Device{
		Settings: settings,
		Planner:  NewPlanner(&settings.Planner, controller),
		Tool:     NewMarkerTool(&settings.MarkerTool, tool),
		Context:  newContext(),
	}
}

func (d *Device) Controller() *PositionController {
	return d.Planner.Controller()
}

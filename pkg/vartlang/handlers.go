package vartlang

import (
	"errors"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/bytelang"
	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// NewInterpreter returns an interpreter whose instructions act on d.
func NewInterpreter(d *vart.Device) *bytelang.Interpreter {
	in := bytelang.New(Table(d))
	in.SetNames(Names())
	return in
}

// Table builds the instruction table for d, indexed by opcode.
func Table(d *vart.Device) []bytelang.Instruction {
	h := &handlers{device: d}
	return []bytelang.Instruction{
		OpQuit:           h.quit,
		OpDelayMs:        h.delayMs,
		OpSetSpeed:       h.setSpeed,
		OpSetAccel:       h.setAccel,
		OpSetPlannerMode: h.setPlannerMode,
		OpSetPosition:    h.setPosition,
		OpSetProgress:    h.setProgress,
		OpSetActiveTool:  h.setActiveTool,
	}
}

type handlers struct {
	device *vart.Device
}

func (h *handlers) quit(*bytelang.Reader) bytelang.Result {
	return bytelang.ExitOk
}

func (h *handlers) delayMs(r *bytelang.Reader) bytelang.Result {
	ms, err := r.ReadU16()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return bytelang.Ok
}

func (h *handlers) setSpeed(r *bytelang.Reader) bytelang.Result {
	speed, err := r.ReadU8()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	h.device.Planner.SetSpeed(float64(speed))
	return bytelang.Ok
}

func (h *handlers) setAccel(r *bytelang.Reader) bytelang.Result {
	accel, err := r.ReadU8()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	h.device.Planner.SetAccel(float64(accel))
	return bytelang.Ok
}

func (h *handlers) setPlannerMode(r *bytelang.Reader) bytelang.Result {
	mode, err := r.ReadU8()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	if err := h.device.Planner.SetMode(vart.Mode(mode)); err != nil {
		logging.For("vartlang").WithField("mode", mode).Warn("Ignoring unknown planner mode")
	}
	return bytelang.Ok
}

func (h *handlers) setPosition(r *bytelang.Reader) bytelang.Result {
	x, err := r.ReadI16()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	y, err := r.ReadI16()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	target := geometry.Vector2D{X: float64(x), Y: float64(y)}
	if err := h.device.Planner.MoveTo(target); err != nil {
		logging.For("vartlang").WithError(err).WithField("target", target).Error("Move failed")
		return bytelang.MotionError
	}
	return bytelang.Ok
}

func (h *handlers) setProgress(r *bytelang.Reader) bytelang.Result {
	progress, err := r.ReadU8()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	h.device.Context.SetProgress(int(progress))
	h.device.Context.RequestRefresh()
	return bytelang.Ok
}

func (h *handlers) setActiveTool(r *bytelang.Reader) bytelang.Result {
	marker, err := r.ReadU8()
	if err != nil {
		return bytelang.InstructionArgumentReadError
	}
	err = h.device.Tool.SetActiveTool(vart.Marker(marker))
	if errors.Is(err, vart.ErrUnknownMarker) {
		logging.For("vartlang").WithField("marker", marker).Warn("Ignoring unknown marker")
		return bytelang.Ok
	}
	if err != nil {
		logging.For("vartlang").WithError(err).Error("Tool change failed")
		return bytelang.MotionError
	}
	return bytelang.Ok
}

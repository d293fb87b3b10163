package config

import (
	"github.com/pkg/errors"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Validate checks the contracts the motion code relies on without
// re-checking at run time.
func (s *Settings) Validate() error {
	v := &s.Vart

	if v.Servomotor.UpdatePeriodSeconds <= 0 {
		return errors.Errorf("servomotor.update_period_seconds must be positive, got %v", v.Servomotor.UpdatePeriodSeconds)
	}
	if v.Servomotor.ReadyMaxAbsError <= 0 {
		return errors.Errorf("servomotor.ready_max_abs_error must be positive, got %v", v.Servomotor.ReadyMaxAbsError)
	}
	if v.Servomotor.Position.AbsMaxI < 0 || v.Servomotor.Position.AbsMaxOut < 0 {
		return errors.New("regulator limits must not be negative")
	}
	if v.Pulley.TicksInMM <= 0 {
		return errors.Errorf("pulley.ticks_in_mm must be positive, got %v", v.Pulley.TicksInMM)
	}

	a := v.Area
	if a.MinSize.X <= 0 || a.MinSize.Y <= 0 {
		return errors.Errorf("area.min_area_size must be positive, got %v", a.MinSize)
	}
	if a.MaxSize.X < a.MinSize.X || a.MaxSize.Y < a.MinSize.Y {
		return errors.Errorf("area.max_area_size %v is smaller than min_area_size %v", a.MaxSize, a.MinSize)
	}

	p := v.Planner
	if p.DefaultMode > vart.ModeAccel {
		return errors.Wrapf(vart.ErrUnknownMode, "planner.default_mode %d", p.DefaultMode)
	}
	if err := checkRange("planner.speed_range", p.SpeedRange); err != nil {
		return err
	}
	if err := checkRange("planner.accel_range", p.AccelRange); err != nil {
		return err
	}
	if p.SpeedRange.Min <= 0 || p.AccelRange.Min <= 0 {
		return errors.New("planner speed and accel ranges must be positive")
	}
	if p.MaxMoveSeconds <= 0 {
		return errors.Errorf("planner.max_move_seconds must be positive, got %v", p.MaxMoveSeconds)
	}

	m := v.MarkerTool
	if m.AngleRange.Min > m.AngleRange.Max {
		return errors.Errorf("marker_tool.angle_range is inverted: %v", m.AngleRange)
	}
	for _, angle := range []uint8{m.Positions.None, m.Positions.Left, m.Positions.Right} {
		if !m.AngleRange.Contains(angle) {
			return errors.Errorf("marker_tool position %d is outside %v", angle, m.AngleRange)
		}
	}

	if s.Motor.PWMFrequencyHz <= 0 {
		return errors.Errorf("motor.pwm_frequency_hz must be positive, got %v", s.Motor.PWMFrequencyHz)
	}
	if s.ToolServo.Servo.MaxPulseMicros <= s.ToolServo.Servo.MinPulseMicros {
		return errors.New("tool_servo pulse range is empty")
	}
	if s.Simulation.Enabled && (s.Simulation.MaxTicksPerSecond <= 0 || s.Simulation.TimeConstantSeconds <= 0) {
		return errors.New("simulation speed and time constant must be positive")
	}
	if s.Joystick.Device != "" && s.Joystick.JogMM <= 0 {
		return errors.Errorf("joystick.jog_mm must be positive, got %v", s.Joystick.JogMM)
	}
	if s.Screen.RefreshSeconds <= 0 {
		return errors.Errorf("screen.refresh_seconds must be positive, got %v", s.Screen.RefreshSeconds)
	}
	return nil
}

func checkRange(name string, r geometry.Range[float64]) error {
	if r.Min > r.Max {
		return errors.Errorf("%s is inverted: %v", name, r)
	}
	return nil
}

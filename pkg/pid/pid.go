package pid

import "math"

// Settings are the regulator gains and limits.
type Settings struct {
	Kp        float64 `koanf:"kp" yaml:"kp"`
	Ki        float64 `koanf:"ki" yaml:"ki"`
	Kd        float64 `koanf:"kd" yaml:"kd"`
	AbsMaxI   float64 `koanf:"abs_max_i" yaml:"abs_max_i"`
	AbsMaxOut float64 `koanf:"abs_max_out" yaml:"abs_max_out"`
}

// Regulator is a PID controller with a clamped integral and a clamped
// output. It is not safe for concurrent use; the servo loop owns it.
type Regulator struct {
	settings  *Settings
	integral  float64
	lastError float64
}

// New returns a regulator reading its gains from settings on every call, so
// gains can be tuned while it runs.
func New(settings *Settings) *Regulator {
	return &Regulator{settings: settings}
}

// Calc returns the control output for error over a step of dt seconds.
// dt must be positive.
func (r *Regulator) Calc(err, dt float64) float64 {
	s := r.settings

	r.integral += err * dt
	r.integral = clamp(r.integral, s.AbsMaxI)

	derivative := (err - r.lastError) / dt
	r.lastError = err

	out := s.Kp*err + s.Ki*r.integral + s.Kd*derivative
	return clamp(out, s.AbsMaxOut)
}

func (r *Regulator) Integral() float64 {
	return r.integral
}

func (r *Regulator) Reset() {
	r.integral = 0
	r.lastError = 0
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

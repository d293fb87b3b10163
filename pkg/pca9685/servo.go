package pca9685

import (
	"sync"
	"time"
)

type ServoSettings struct {
	Port int `koanf:"port" yaml:"port"`
	// Pulse widths for 0 and MaxAngle degrees, in microseconds.
	MinPulseMicros int   `koanf:"min_pulse_us" yaml:"min_pulse_us"`
	MaxPulseMicros int   `koanf:"max_pulse_us" yaml:"max_pulse_us"`
	MaxAngle       uint8 `koanf:"max_angle" yaml:"max_angle"`
}

// Servo is a hobby servo on one PCA9685 port, driven by angle. While
// disabled the port emits no pulses and the servo goes limp.
type Servo struct {
	dev      Interface
	settings ServoSettings

	lock     sync.Mutex
	enabled  bool
	angle    uint8
	hasAngle bool
}

func NewServo(dev Interface, settings ServoSettings) *Servo {
	return &Servo{dev: dev, settings: settings}
}

func (s *Servo) SetEnabled(enabled bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.enabled = enabled
	if !enabled {
		return s.dev.SetPWM(s.settings.Port, 0)
	}
	if s.hasAngle {
		return s.dev.SetPulse(s.settings.Port, s.pulse(s.angle))
	}
	return nil
}

// SetAngle moves the servo to degrees, clamped to MaxAngle. The angle is
// remembered while disabled and applied on enable.
func (s *Servo) SetAngle(degrees uint8) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if degrees > s.settings.MaxAngle {
		degrees = s.settings.MaxAngle
	}
	s.angle, s.hasAngle = degrees, true
	if !s.enabled {
		return nil
	}
	return s.dev.SetPulse(s.settings.Port, s.pulse(degrees))
}

func (s *Servo) pulse(degrees uint8) time.Duration {
	span := s.settings.MaxPulseMicros - s.settings.MinPulseMicros
	us := s.settings.MinPulseMicros
	if s.settings.MaxAngle > 0 {
		us += span * int(degrees) / int(s.settings.MaxAngle)
	}
	return time.Duration(us) * time.Microsecond
}

package servomotor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/pid"
)

type Encoder interface {
	Position() int32
	SetPosition(ticks int32)
	Enable() error
	Disable()
}

type Driver interface {
	SetPower(power int32) error
}

type Settings struct {
	// Regulator update period in seconds.
	UpdatePeriodSeconds float64 `koanf:"update_period_seconds" yaml:"update_period_seconds"`
	// Largest position error, in ticks, that still counts as ready.
	ReadyMaxAbsError int32        `koanf:"ready_max_abs_error" yaml:"ready_max_abs_error"`
	Position         pid.Settings `koanf:"position" yaml:"position"`
}

// ServoMotor holds an encoder shaft at a target position by driving the
// motor with the output of a position regulator.
type ServoMotor struct {
	settings *Settings
	encoder  Encoder
	driver   Driver

	target  atomic.Int32
	enabled atomic.Bool

	// Guards the regulator and the driver, which the servo loop and the
	// enable path both touch.
	lock      sync.Mutex
	regulator *pid.Regulator
}

func New(settings *Settings, driver Driver, encoder Encoder) *ServoMotor {
	return &ServoMotor{
		settings:  settings,
		encoder:   encoder,
		driver:    driver,
		regulator: pid.New(&settings.Position),
	}
}

// SetEnabled arms or disarms the servo. Disarming stops the motor. The
// regulator state is kept across both.
// A servo whose encoder fails to start stays disabled.
func (s *ServoMotor) SetEnabled(enabled bool) error {
	if enabled {
		if err := s.encoder.Enable(); err != nil {
			return err
		}
		s.enabled.Store(true)
		return nil
	}

	s.enabled.Store(false)
	s.encoder.Disable()
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.driver.SetPower(0)
}

func (s *ServoMotor) IsEnabled() bool {
	return s.enabled.Load()
}

func (s *ServoMotor) SetTargetPosition(ticks int32) {
	s.target.Store(ticks)
}

func (s *ServoMotor) TargetPosition() int32 {
	return s.target.Load()
}

// SetCurrentPosition redefines where the shaft is, without moving it.
func (s *ServoMotor) SetCurrentPosition(ticks int32) {
	s.encoder.SetPosition(ticks)
}

func (s *ServoMotor) CurrentPosition() int32 {
	return s.encoder.Position()
}

// IsReady reports whether the position error is inside the ready band. It
// does not look at whether the servo is enabled.
func (s *ServoMotor) IsReady() bool {
	err := s.positionError()
	if err < 0 {
		err = -err
	}
	return err < s.settings.ReadyMaxAbsError
}

func (s *ServoMotor) UpdatePeriodSeconds() float64 {
	return s.settings.UpdatePeriodSeconds
}

func (s *ServoMotor) UpdatePeriod() time.Duration {
	return time.Duration(s.settings.UpdatePeriodSeconds * float64(time.Second))
}

// Update runs one regulator step. It does nothing while disabled.
func (s *ServoMotor) Update() error {
	if !s.enabled.Load() {
		return nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	power := int32(s.regulator.Calc(float64(s.positionError()), s.settings.UpdatePeriodSeconds))
	if err := s.driver.SetPower(power); err != nil {
		logging.For("servo").WithError(err).WithField("power", power).Warn("Failed to set motor power")
		return err
	}
	return nil
}

func (s *ServoMotor) positionError() int32 {
	return s.target.Load() - s.encoder.Position()
}

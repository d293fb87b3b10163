package vart

import (
	"sync/atomic"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/servomotor"
)

type PulleySettings struct {
	// Encoder ticks per millimetre of rope. Must be positive.
	TicksInMM float64 `koanf:"ticks_in_mm" yaml:"ticks_in_mm"`
}

func (s *PulleySettings) MMToTicks(mm float64) int32 {
	return int32(mm * s.TicksInMM)
}

func (s *PulleySettings) TicksToMM(ticks int32) float64 {
	return float64(ticks) / s.TicksInMM
}

// Servo is the position servo a pulley winds its rope with.
type Servo interface {
	SetEnabled(enabled bool) error
	SetTargetPosition(ticks int32)
	TargetPosition() int32
	SetCurrentPosition(ticks int32)
	CurrentPosition() int32
	IsReady() bool
	Update() error
	UpdatePeriod() time.Duration
}

var _ Servo = (*servomotor.ServoMotor)(nil)

// Pulley converts rope lengths to servo positions. The offset is added to
// every length before conversion and lets each side be trimmed.
type Pulley struct {
	settings *PulleySettings
	servo    Servo
	offsetMM atomic.Int32
}

func NewPulley(settings *PulleySettings, servo Servo) *Pulley {
	return &Pulley{
		settings: settings,
		servo:    servo,
	}
}

func (p *Pulley) Servo() Servo {
	return p.servo
}

func (p *Pulley) SetOffset(mm int32) {
	p.offsetMM.Store(mm)
}

func (p *Pulley) Offset() int32 {
	return p.offsetMM.Load()
}

func (p *Pulley) SetTargetRopeLength(mm float64) {
	p.servo.SetTargetPosition(p.calcTicks(mm))
}

func (p *Pulley) TargetRopeLength() float64 {
	return p.calcMM(p.servo.TargetPosition())
}

// SetCurrentRopeLength declares the rope to be mm long without moving it.
func (p *Pulley) SetCurrentRopeLength(mm float64) {
	p.servo.SetCurrentPosition(p.calcTicks(mm))
}

func (p *Pulley) CurrentRopeLength() float64 {
	return p.calcMM(p.servo.CurrentPosition())
}

func (p *Pulley) SetEnabled(enabled bool) error {
	return p.servo.SetEnabled(enabled)
}

func (p *Pulley) Update() error {
	return p.servo.Update()
}

func (p *Pulley) IsReady() bool {
	return p.servo.IsReady()
}

func (p *Pulley) UpdatePeriod() time.Duration {
	return p.servo.UpdatePeriod()
}

func (p *Pulley) calcTicks(mm float64) int32 {
	return p.settings.MMToTicks(mm + float64(p.Offset()))
}

func (p *Pulley) calcMM(ticks int32) float64 {
	return p.settings.TicksToMM(ticks) - float64(p.Offset())
}

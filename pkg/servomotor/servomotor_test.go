package servomotor

import (
	"errors"
	"testing"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/pid"
)

type fakeEncoder struct {
	position  int32
	enabled   bool
	enableErr error
}

func (e *fakeEncoder) Position() int32         { return e.position }
func (e *fakeEncoder) SetPosition(ticks int32) { e.position = ticks }
func (e *fakeEncoder) Enable() error {
	if e.enableErr != nil {
		return e.enableErr
	}
	e.enabled = true
	return nil
}
func (e *fakeEncoder) Disable() { e.enabled = false }

type fakeDriver struct {
	power  int32
	writes int
	err    error
}

func (d *fakeDriver) SetPower(power int32) error {
	d.power = power
	d.writes++
	return d.err
}

func testSettings() *Settings {
	return &Settings{
		UpdatePeriodSeconds: 0.001,
		ReadyMaxAbsError:    30,
		Position:            pid.Settings{Kp: 10, Ki: 3, Kd: 0.2, AbsMaxI: 255, AbsMaxOut: 255},
	}
}

func TestUpdateDisabledDoesNothing(t *testing.T) {
	enc := &fakeEncoder{}
	drv := &fakeDriver{}
	s := New(testSettings(), drv, enc)

	s.SetTargetPosition(1000)
	if err := s.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if drv.writes != 0 {
		t.Errorf("Disabled servo wrote power %d times", drv.writes)
	}
}

func TestUpdateDrivesTowardsTarget(t *testing.T) {
	enc := &fakeEncoder{}
	drv := &fakeDriver{}
	s := New(testSettings(), drv, enc)

	if err := s.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if !enc.enabled {
		t.Fatalf("Enabling the servo should arm the encoder")
	}

	s.SetTargetPosition(1000)
	if err := s.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if drv.power != 255 {
		t.Errorf("Large positive error gave power %d, expected 255", drv.power)
	}

	s.SetTargetPosition(-1000)
	if err := s.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if drv.power != -255 {
		t.Errorf("Large negative error gave power %d, expected -255", drv.power)
	}

	if err := s.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if drv.power != 0 || enc.enabled {
		t.Errorf("Disabling should stop the motor and disarm the encoder")
	}
}

func TestIsReadyIgnoresEnabled(t *testing.T) {
	enc := &fakeEncoder{position: 500}
	s := New(testSettings(), &fakeDriver{}, enc)

	s.SetTargetPosition(529)
	if !s.IsReady() {
		t.Errorf("Error of 29 ticks should be ready")
	}
	s.SetTargetPosition(530)
	if s.IsReady() {
		t.Errorf("Error of 30 ticks should not be ready")
	}
	s.SetTargetPosition(471)
	if !s.IsReady() {
		t.Errorf("Error of -29 ticks should be ready")
	}
}

func TestRecalibrate(t *testing.T) {
	enc := &fakeEncoder{position: 1234}
	s := New(testSettings(), &fakeDriver{}, enc)
	s.SetCurrentPosition(0)
	if s.CurrentPosition() != 0 {
		t.Errorf("CurrentPosition = %d after recalibration", s.CurrentPosition())
	}
	if s.UpdatePeriod() != time.Millisecond {
		t.Errorf("UpdatePeriod = %v", s.UpdatePeriod())
	}
}

func TestUpdateReportsDriverError(t *testing.T) {
	drv := &fakeDriver{err: errors.New("bus down")}
	s := New(testSettings(), drv, &fakeEncoder{})
	if err := s.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	s.SetTargetPosition(100)
	if err := s.Update(); err == nil {
		t.Errorf("Driver error should be returned")
	}
}

func TestEnableFailureKeepsServoDisabled(t *testing.T) {
	enc := &fakeEncoder{enableErr: errors.New("edge detection unavailable")}
	drv := &fakeDriver{}
	s := New(testSettings(), drv, enc)

	if err := s.SetEnabled(true); err == nil {
		t.Fatal("SetEnabled should report the encoder failure")
	}
	if s.IsEnabled() {
		t.Errorf("Servo should stay disabled when its encoder cannot start")
	}
	s.SetTargetPosition(1000)
	if err := s.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if drv.writes != 0 {
		t.Errorf("Servo with a dead encoder wrote power %d times", drv.writes)
	}
}

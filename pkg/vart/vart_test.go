package vart

import (
	"sync"
	"time"
)

// instantServo reaches every target the moment it is set.
type instantServo struct {
	lock     sync.Mutex
	target   int32
	current  int32
	enabled  bool
	updates  int
	targets  int
	lagging  bool
	readyErr int32
}

func newInstantServo() *instantServo {
	return &instantServo{readyErr: 30}
}

func (s *instantServo) SetEnabled(enabled bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.enabled = enabled
	return nil
}

func (s *instantServo) SetTargetPosition(ticks int32) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.target = ticks
	s.targets++
	if !s.lagging {
		s.current = ticks
	}
}

func (s *instantServo) TargetPosition() int32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.target
}

func (s *instantServo) SetCurrentPosition(ticks int32) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.current = ticks
}

func (s *instantServo) CurrentPosition() int32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current
}

func (s *instantServo) IsReady() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	d := s.target - s.current
	if d < 0 {
		d = -d
	}
	return d < s.readyErr
}

func (s *instantServo) Update() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.updates++
	return nil
}

func (s *instantServo) UpdatePeriod() time.Duration {
	return time.Millisecond
}

type recordingToolServo struct {
	enabled bool
	angles  []uint8
}

func (s *recordingToolServo) SetEnabled(enabled bool) error {
	s.enabled = enabled
	return nil
}

func (s *recordingToolServo) SetAngle(degrees uint8) error {
	s.angles = append(s.angles, degrees)
	return nil
}

func newTestDevice() (*Device, *instantServo, *instantServo, *recordingToolServo) {
	settings := DefaultSettings()
	left, right := newInstantServo(), newInstantServo()
	tool := &recordingToolServo{}
	d := NewDevice(&settings, left, right, tool)
	d.Planner.step = 20 * time.Microsecond
	d.Tool.rampStep = 0
	return d, left, right, tool
}

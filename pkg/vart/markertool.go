package vart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/logging"
)

type Marker uint8

const (
	MarkerNone  Marker = 0x00
	MarkerLeft  Marker = 0x01
	MarkerRight Marker = 0x02

	MarkerCount = 3
)

func (m Marker) String() string {
	switch m {
	case MarkerNone:
		return "none"
	case MarkerLeft:
		return "left"
	case MarkerRight:
		return "right"
	}
	return fmt.Sprintf("marker(%d)", uint8(m))
}

var ErrUnknownMarker = errors.New("unknown marker")

// Time the tool servo is given per degree while changing markers.
const defaultRampStep = 12 * time.Millisecond

// ToolServo is the hobby servo that swings the marker carriage.
type ToolServo interface {
	SetEnabled(enabled bool) error
	SetAngle(degrees uint8) error
}

// MarkerPositions are the servo angles, in degrees, for each marker.
type MarkerPositions struct {
	None  uint8 `koanf:"none" yaml:"none" json:"none"`
	Left  uint8 `koanf:"left" yaml:"left" json:"left"`
	Right uint8 `koanf:"right" yaml:"right" json:"right"`
}

func (p *MarkerPositions) at(m Marker) *uint8 {
	switch m {
	case MarkerNone:
		return &p.None
	case MarkerLeft:
		return &p.Left
	case MarkerRight:
		return &p.Right
	}
	return nil
}

type MarkerToolSettings struct {
	AngleRange geometry.Range[uint8] `koanf:"angle_range" yaml:"angle_range"`
	Positions  MarkerPositions       `koanf:"positions" yaml:"positions"`
}

// MarkerTool selects which marker touches the paper.
type MarkerTool struct {
	servo    ToolServo
	rampStep time.Duration

	// Guards settings.
	lock     sync.Mutex
	settings *MarkerToolSettings

	// Held for a whole carriage sweep, and guards the angle last sent to
	// the servo, which is not set until the first selection.
	moveLock     sync.Mutex
	lastAngle    uint8
	hasLastAngle bool
}

func NewMarkerTool(settings *MarkerToolSettings, servo ToolServo) *MarkerTool {
	return &MarkerTool{
		settings: settings,
		servo:    servo,
		rampStep: defaultRampStep,
	}
}

func (t *MarkerTool) SetEnabled(enabled bool) error {
	return t.servo.SetEnabled(enabled)
}

// UpdateToolAngle changes the angle used for marker, clamped to the allowed
// range, and returns the stored angle.
func (t *MarkerTool) UpdateToolAngle(marker Marker, angle uint8) (uint8, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	pos := t.settings.Positions.at(marker)
	if pos == nil {
		return 0, ErrUnknownMarker
	}
	*pos = t.settings.AngleRange.Clamp(angle)
	return *pos, nil
}

func (t *MarkerTool) ToolAngle(marker Marker) (uint8, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	pos := t.settings.Positions.at(marker)
	if pos == nil {
		return 0, ErrUnknownMarker
	}
	return *pos, nil
}

// SetActiveTool swings the carriage to marker. The first selection jumps
// straight there; later ones sweep one degree per ramp step.
// Angles can be read and updated while a sweep is in progress.
func (t *MarkerTool) SetActiveTool(marker Marker) error {
	end, err := t.ToolAngle(marker)
	if err != nil {
		return err
	}

	t.moveLock.Lock()
	defer t.moveLock.Unlock()

	logging.For("marker").WithField("marker", marker).Debug("Select tool")

	if !t.hasLastAngle {
		t.lastAngle, t.hasLastAngle = end, true
		return t.servo.SetAngle(end)
	}
	if t.lastAngle == end {
		return nil
	}

	delta := 1
	if end < t.lastAngle {
		delta = -1
	}
	for a := int(t.lastAngle); ; a += delta {
		if err := t.servo.SetAngle(uint8(a)); err != nil {
			return err
		}
		t.lastAngle = uint8(a)
		time.Sleep(t.rampStep)
		if a == int(end) {
			break
		}
	}
	return nil
}

package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/logging"
)

// Button and axis numbers of a DualShock 4 as reported by the Linux
// joystick API.
//
// Axes
//
//    D-pad   u/d = 7 (up = -32767; down = +32767)
//            l/r = 6 (left = -32767; right = +32767)
//    L stick u/d = 1 (up = -32767; down = +32767)
//            l/r = 0 (left = -32767; right = +32767)

type EventType uint8

const (
	EventTypeButton EventType = 1
	EventTypeAxis   EventType = 2

	// Set on the synthetic events sent when the device is opened.
	eventTypeInit = 0x80
)

const (
	ButtonCross    = 0
	ButtonCircle   = 1
	ButtonTriangle = 2
	ButtonSquare   = 3
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonL2       = 6
	ButtonR2       = 7
	ButtonShare    = 8
	ButtonOptions  = 9
	ButtonPS       = 10
	ButtonLStick   = 11
	ButtonRStick   = 12

	AxisLStickX = 0
	AxisLStickY = 1
	AxisDPadX   = 6
	AxisDPadY   = 7
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

// js_event from linux/joystick.h.
type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
	// Init marks the state dump sent when the device is opened.
	Init bool
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

func Open(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

// New reads events from an already open device.
func New(device io.ReadCloser) *Joystick {
	return &Joystick{device: device}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var raw rawEvent
	if err := binary.Read(j.device, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}

	if j.wallclockEpoch.IsZero() {
		j.deviceEpoch = raw.Time
		j.wallclockEpoch = time.Now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(raw.Time-j.deviceEpoch) * time.Millisecond),
		Value:  raw.Value,
		Type:   EventType(raw.Type &^ eventTypeInit),
		Number: raw.Number,
		Init:   raw.Type&eventTypeInit != 0,
	}, nil
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// LoopReadingEvents sends events to the channel until reading fails or ctx
// is done, then closes both the channel and the joystick.
func (j *Joystick) LoopReadingEvents(ctx context.Context, events chan<- *Event) error {
	defer close(events)
	defer j.Close()
	log := logging.For("joystick")
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			log.WithError(err).Warn("Failed to read from joystick")
			return err
		}
		log.WithField("event", event).Trace("Joy")
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

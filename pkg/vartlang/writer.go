package vartlang

import (
	"encoding/binary"
	"io"

	"github.com/vart-team/vart/go-controller/pkg/bytelang"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Writer emits a program. The first write error sticks and is reported by
// Err; later calls do nothing.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter writes the program header to w.
func NewWriter(w io.Writer) *Writer {
	pw := &Writer{w: w}
	pw.emit([]byte{bytelang.Header})
	return pw
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) emit(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *Writer) op(op Opcode, operands ...byte) *Writer {
	w.emit(append([]byte{byte(op)}, operands...))
	return w
}

func (w *Writer) Quit() *Writer {
	return w.op(OpQuit)
}

func (w *Writer) DelayMs(ms uint16) *Writer {
	return w.op(OpDelayMs, binary.LittleEndian.AppendUint16(nil, ms)...)
}

func (w *Writer) SetSpeed(speed uint8) *Writer {
	return w.op(OpSetSpeed, speed)
}

func (w *Writer) SetAccel(accel uint8) *Writer {
	return w.op(OpSetAccel, accel)
}

func (w *Writer) SetPlannerMode(mode vart.Mode) *Writer {
	return w.op(OpSetPlannerMode, byte(mode))
}

func (w *Writer) SetPosition(x, y int16) *Writer {
	b := binary.LittleEndian.AppendUint16(nil, uint16(x))
	b = binary.LittleEndian.AppendUint16(b, uint16(y))
	return w.op(OpSetPosition, b...)
}

func (w *Writer) SetProgress(percent uint8) *Writer {
	return w.op(OpSetProgress, percent)
}

func (w *Writer) SetActiveTool(marker vart.Marker) *Writer {
	return w.op(OpSetActiveTool, byte(marker))
}

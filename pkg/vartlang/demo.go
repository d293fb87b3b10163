package vartlang

import (
	"bytes"

	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Demo is the built-in test drawing: it cycles the markers, then draws a
// plus sign through the origin.
func Demo() []byte {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.DelayMs(1000).
		SetSpeed(100).
		SetAccel(75).
		SetActiveTool(vart.MarkerNone).
		SetActiveTool(vart.MarkerLeft).
		SetActiveTool(vart.MarkerRight).
		SetActiveTool(vart.MarkerLeft).
		SetActiveTool(vart.MarkerNone).
		SetPlannerMode(vart.ModeAccel).
		SetPosition(100, 0).
		SetPosition(-100, 0).
		SetPosition(0, 0).
		SetPosition(0, 100).
		SetPosition(0, -100).
		SetPosition(0, 0).
		DelayMs(1000).
		Quit()
	return buf.Bytes()
}

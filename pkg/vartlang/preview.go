package vartlang

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Stroke is one straight pen movement and the marker down during it.
type Stroke struct {
	From, To geometry.Vector2D
	Tool     vart.Marker
}

// Trace follows the pen through a decoded program, starting at the origin
// with no marker selected.
func Trace(instructions []Instruction) []Stroke {
	var (
		strokes []Stroke
		pos     geometry.Vector2D
		tool    = vart.MarkerNone
	)
	for _, ins := range instructions {
		switch ins.Op {
		case OpSetActiveTool:
			tool = vart.Marker(ins.Args[0])
		case OpSetPosition:
			next := geometry.Vector2D{X: float64(ins.Args[0]), Y: float64(ins.Args[1])}
			strokes = append(strokes, Stroke{From: pos, To: next, Tool: tool})
			pos = next
		}
	}
	return strokes
}

// RenderPreview draws strokes on a picture of the area at pxPerMM pixels
// per millimetre. Travel with no marker is drawn dashed.
func RenderPreview(strokes []Stroke, area geometry.Vector2D, pxPerMM float64) image.Image {
	width, height := int(area.X*pxPerMM), int(area.Y*pxPerMM)
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	toPx := func(p geometry.Vector2D) (float64, float64) {
		return (p.X + area.X/2) * pxPerMM, (area.Y/2 - p.Y) * pxPerMM
	}

	dc.SetRGB(0.6, 0.6, 0.6)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(width)-1, float64(height)-1)
	dc.Stroke()

	for _, s := range strokes {
		x1, y1 := toPx(s.From)
		x2, y2 := toPx(s.To)
		switch s.Tool {
		case vart.MarkerLeft:
			dc.SetRGB(0.8, 0.1, 0.1)
			dc.SetLineWidth(2)
			dc.SetDash()
		case vart.MarkerRight:
			dc.SetRGB(0.1, 0.2, 0.8)
			dc.SetLineWidth(2)
			dc.SetDash()
		default:
			dc.SetRGB(0.7, 0.7, 0.7)
			dc.SetLineWidth(1)
			dc.SetDash(4, 4)
		}
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}
	return dc.Image()
}

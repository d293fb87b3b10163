package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/vart-team/vart/go-controller/pkg/bytelang"
	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Size of the square panel in pixels.
const S = 128

// Status is what the panel shows.
type Status struct {
	Progress    int
	QuitCode    int
	Position    geometry.Vector2D
	HasPosition bool
	AreaSize    geometry.Vector2D
}

func statusOf(d *vart.Device) Status {
	c := d.Controller()
	p, err := c.CurrentPosition()
	return Status{
		Progress:    d.Context.Progress(),
		QuitCode:    d.Context.QuitCode(),
		Position:    p,
		HasPosition: err == nil,
		AreaSize:    c.AreaSize(),
	}
}

// LoopUpdatingScreen redraws the framebuffer every refresh period and
// whenever the device asks for it, until ctx is done.
func LoopUpdatingScreen(ctx context.Context, wg *sync.WaitGroup, settings config.Screen, d *vart.Device) {
	defer wg.Done()
	log := logging.For("screen")

	f, err := os.OpenFile(settings.Device, os.O_RDWR, 0666)
	if err != nil {
		log.WithError(err).Warn("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(time.Duration(settings.RefreshSeconds * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			var buf [S * S * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		case <-d.Context.Refreshes():
		}

		buf := ToRGB565(Render(statusOf(d)))
		if _, err := f.Seek(0, 0); err != nil {
			log.WithError(err).Error("Screen failure")
			return
		}
		for i := 0; i < S; i++ {
			if _, err := f.Write(buf[i*S*2 : (i+1)*S*2]); err != nil {
				log.WithError(err).Error("Screen failure")
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws the status page: a progress bar, the pen on a map of the
// area and the result of the last job.
func Render(st Status) image.Image {
	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGBA(1, 0.9, 0, 1)

	dc.DrawString(fmt.Sprintf("PROGRESS %d%%", st.Progress), 4, 12)
	drawProgressBar(dc, st.Progress)

	drawArea(dc, st)

	dc.SetRGBA(1, 0.9, 0, 1)
	if st.HasPosition {
		dc.DrawString(fmt.Sprintf("%.0f, %.0f", st.Position.X, st.Position.Y), 4, 110)
	} else {
		DrawWarning(dc, S-12, 104)
	}
	result := bytelang.Result(st.QuitCode)
	if result.Err() != nil {
		dc.SetRGBA(1, 0.2, 0, 1)
	}
	dc.DrawString(result.String(), 4, 124)
	return dc.Image()
}

func drawProgressBar(dc *gg.Context, progress int) {
	const cells = 20
	dc.DrawRectangle(4, 16, S-8, 10)
	dc.Stroke()
	for n := 0; n < cells; n++ {
		if progress*cells >= (n+1)*100 {
			dc.DrawRectangle(6+float64(n)*6, 18, 4, 6)
		}
	}
	dc.Fill()
}

// drawArea maps the working area into the middle band of the panel.
func drawArea(dc *gg.Context, st Status) {
	if st.AreaSize.X <= 0 || st.AreaSize.Y <= 0 {
		return
	}
	const top, height = 32, 68
	scale := height / st.AreaSize.Y
	if w := st.AreaSize.X * scale; w > S-8 {
		scale = (S - 8) / st.AreaSize.X
	}
	w, h := st.AreaSize.X*scale, st.AreaSize.Y*scale
	x0, y0 := (S-w)/2, top+(height-h)/2

	dc.SetRGBA(0.5, 0.5, 0.5, 1)
	dc.DrawRectangle(x0, y0, w, h)
	dc.Stroke()

	if !st.HasPosition {
		return
	}
	px := x0 + (st.Position.X+st.AreaSize.X/2)*scale
	py := y0 + (st.AreaSize.Y/2-st.Position.Y)*scale
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawLine(x0, y0, px, py)
	dc.DrawLine(x0+w, y0, px, py)
	dc.Stroke()
	dc.DrawCircle(px, py, 2)
	dc.Fill()
}

// ToRGB565 packs an S×S image for the panel, which is mounted rotated.
func ToRGB565(img image.Image) []byte {
	buf := make([]byte, S*S*2)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}

func DrawWarning(dc *gg.Context, x, y float64) {
	dc.Push()
	defer dc.Pop()
	dc.Translate(x, y)
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 8, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -2, 4)
}

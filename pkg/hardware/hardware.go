package hardware

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/encoder"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/motordriver"
	"github.com/vart-team/vart/go-controller/pkg/pca9685"
	"github.com/vart-team/vart/go-controller/pkg/screen"
	"github.com/vart-team/vart/go-controller/pkg/servomotor"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Hardware is the real plotter: encoders and L293 bridges on GPIO, the
// marker servo on a PCA9685 and a framebuffer status screen.
type Hardware struct {
	settings *config.Settings
	device   *vart.Device
	pwm      *pca9685.PCA9685

	soundsToPlay chan<- string

	wg sync.WaitGroup
}

// New opens the hardware described by settings. Sounds sent to PlaySound go
// to soundsToPlay, which may be nil.
func New(settings *config.Settings, soundsToPlay chan<- string) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph")
	}

	v := &settings.Vart
	pins := settings.Pins
	freq := physic.Frequency(settings.Motor.PWMFrequencyHz) * physic.Hertz

	left, err := newServo(v, freq, pins.LeftEncoderA, pins.LeftEncoderB, pins.LeftDriverA, pins.LeftDriverB)
	if err != nil {
		return nil, errors.Wrap(err, "left axis")
	}
	right, err := newServo(v, freq, pins.RightEncoderA, pins.RightEncoderB, pins.RightDriverA, pins.RightDriverB)
	if err != nil {
		return nil, errors.Wrap(err, "right axis")
	}

	pwm, err := pca9685.Open(settings.ToolServo.I2CBus, settings.ToolServo.Addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tool servo controller")
	}
	if err := pwm.Configure(); err != nil {
		_ = pwm.Close()
		return nil, errors.Wrap(err, "failed to configure tool servo controller")
	}
	tool := pca9685.NewServo(pwm, settings.ToolServo.Servo)

	return &Hardware{
		settings:     settings,
		device:       vart.NewDevice(v, left, right, tool),
		pwm:          pwm,
		soundsToPlay: soundsToPlay,
	}, nil
}

func newServo(v *vart.Settings, freq physic.Frequency, encA, encB, drvA, drvB string) (*servomotor.ServoMotor, error) {
	var p [4]gpio.PinIO
	for i, name := range []string{encA, encB, drvA, drvB} {
		p[i] = gpioreg.ByName(name)
		if p[i] == nil {
			return nil, errors.Errorf("unknown pin %q", name)
		}
	}
	return servomotor.New(&v.Servomotor,
		motordriver.NewL293(p[2], p[3], freq),
		encoder.New(p[0], p[1]),
	), nil
}

var _ Interface = (*Hardware)(nil)

func (h *Hardware) Start(ctx context.Context) {
	h.wg.Add(2)
	go h.device.Controller().Loop(ctx, &h.wg)
	go screen.LoopUpdatingScreen(ctx, &h.wg, h.settings.Screen, h.device)
}

func (h *Hardware) Device() *vart.Device {
	return h.device
}

func (h *Hardware) PlaySound(path string) {
	if h.soundsToPlay == nil || path == "" {
		return
	}
	defer func() {
		recover() // Don't die if the channel is already closed.
	}()
	select {
	case h.soundsToPlay <- path:
		return
	case <-time.After(10 * time.Millisecond):
		logging.For("hardware").WithField("path", path).Warn("Timed out trying to play sound")
	}
}

func (h *Hardware) Shutdown() {
	log := logging.For("hardware")
	h.wg.Wait()
	if err := h.device.Tool.SetEnabled(false); err != nil {
		log.WithError(err).Warn("Failed to release tool servo")
	}
	if err := h.pwm.Close(); err != nil {
		log.WithError(err).Warn("Failed to close tool servo controller")
	}
	log.Info("HW: Shutdown")
}

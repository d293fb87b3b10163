package hardware

import (
	"context"
	"sync"

	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/pca9685"
	"github.com/vart-team/vart/go-controller/pkg/servomotor"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Sim is a plotter with simulated axes and a tool servo that goes nowhere.
// The regulators, planner and interpreter are the real ones.
type Sim struct {
	left, right *SimAxis
	device      *vart.Device
	wg          sync.WaitGroup
}

func NewSim(settings *config.Settings) *Sim {
	sim := settings.Simulation
	left := NewSimAxis(sim.MaxTicksPerSecond, sim.TimeConstantSeconds)
	right := NewSimAxis(sim.MaxTicksPerSecond, sim.TimeConstantSeconds)
	return newSim(settings, left, right)
}

func newSim(settings *config.Settings, left, right *SimAxis) *Sim {
	v := &settings.Vart
	tool := pca9685.NewServo(pca9685.Dummy(), settings.ToolServo.Servo)
	return &Sim{
		left:  left,
		right: right,
		device: vart.NewDevice(v,
			servomotor.New(&v.Servomotor, left, left),
			servomotor.New(&v.Servomotor, right, right),
			tool,
		),
	}
}

var _ Interface = (*Sim)(nil)

func (s *Sim) Start(ctx context.Context) {
	logging.For("hardware").Info("SIM: Start")
	s.wg.Add(1)
	go s.device.Controller().Loop(ctx, &s.wg)
}

func (s *Sim) Device() *vart.Device {
	return s.device
}

func (s *Sim) Axes() (left, right *SimAxis) {
	return s.left, s.right
}

func (s *Sim) PlaySound(path string) {
	logging.For("hardware").WithField("path", path).Debug("SIM: PlaySound")
}

func (s *Sim) Shutdown() {
	s.wg.Wait()
	logging.For("hardware").Info("SIM: Shutdown")
}

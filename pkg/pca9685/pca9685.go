package pca9685

import (
	"time"

	"golang.org/x/exp/io/i2c"

	"github.com/vart-team/vart/go-controller/pkg/logging"
)

const (
	DefaultAddr = 0x40

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.

	PWMPeriod = 20 * time.Millisecond

	PWMMax = 4095

	NumPorts = 16
)

// Bus is the register interface of the chip; *i2c.Device satisfies it.
type Bus interface {
	WriteReg(reg byte, buf []byte) error
	Close() error
}

var _ Bus = (*i2c.Device)(nil)

type Interface interface {
	Configure() error
	SetPulse(port int, width time.Duration) error
	SetPWM(port int, value float64) error
	Close() error
}

type PCA9685 struct {
	bus Bus
}

func Open(deviceFile string, addr int) (*PCA9685, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, err
	}
	return New(dev), nil
}

func New(bus Bus) *PCA9685 {
	return &PCA9685{bus: bus}
}

func (p *PCA9685) Configure() (err error) {
	// Put device to sleep.
	err = p.bus.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	// Update pre-scaler for 50Hz.
	err = p.bus.WriteReg(RegPreScale, []byte{0x79})
	if err != nil {
		return
	}
	// Trigger a reset
	err = p.bus.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable.
	err = p.bus.WriteReg(RegMode1, []byte{0x81})
	return
}

// SetPulse emits a pulse of the given width every PWM period.
func (p *PCA9685) SetPulse(port int, width time.Duration) error {
	if width < 0 {
		width = 0
	} else if width > PWMPeriod {
		width = PWMPeriod
	}
	return p.write(port, uint16(PWMMax*width/PWMPeriod))
}

// SetPWM sets the duty cycle of port, 0 being off and 1 fully on.
func (p *PCA9685) SetPWM(port int, value float64) error {
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}
	return p.write(port, uint16(PWMMax*value))
}

func (p *PCA9685) write(port int, off uint16) error {
	if port < 0 || port >= NumPorts {
		logging.For("pca9685").WithField("port", port).Warn("Port out of range")
		return nil
	}
	addr := RegLEDBase + port*4
	return p.bus.WriteReg(byte(addr), []byte{0, 0, byte(off & 0xff), byte(off >> 8)})
}

func (p *PCA9685) Close() error {
	return p.bus.Close()
}

func Dummy() Interface {
	return &dummyPWM{}
}

type dummyPWM struct {
}

func (*dummyPWM) Configure() error {
	return nil
}

func (*dummyPWM) SetPulse(port int, width time.Duration) error {
	return nil
}

func (*dummyPWM) SetPWM(port int, value float64) error {
	return nil
}

func (*dummyPWM) Close() error {
	return nil
}

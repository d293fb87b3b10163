package hardware

import (
	"math"
	"sync"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/motordriver"
	"github.com/vart-team/vart/go-controller/pkg/servomotor"
)

// SimAxis stands in for one motor, gearbox and encoder. The shaft speed
// follows the commanded power with a first order lag; the encoder reports
// the shaft angle in ticks.
type SimAxis struct {
	maxTicksPerSecond float64
	timeConstant      float64
	clock             func() time.Time

	lock     sync.Mutex
	last     time.Time
	position float64
	velocity float64
	power    int32
	armed    bool
}

var (
	_ servomotor.Encoder = (*SimAxis)(nil)
	_ servomotor.Driver  = (*SimAxis)(nil)
)

func NewSimAxis(maxTicksPerSecond, timeConstantSeconds float64) *SimAxis {
	return NewSimAxisWithClock(maxTicksPerSecond, timeConstantSeconds, time.Now)
}

func NewSimAxisWithClock(maxTicksPerSecond, timeConstantSeconds float64, clock func() time.Time) *SimAxis {
	return &SimAxis{
		maxTicksPerSecond: maxTicksPerSecond,
		timeConstant:      timeConstantSeconds,
		clock:             clock,
		last:              clock(),
	}
}

// advance integrates the motion since the last call. Must hold lock.
func (a *SimAxis) advance() {
	now := a.clock()
	dt := now.Sub(a.last).Seconds()
	a.last = now
	if dt <= 0 {
		return
	}

	target := float64(a.power) / motordriver.MaxPower * a.maxTicksPerSecond
	decay := math.Exp(-dt / a.timeConstant)
	a.position += target*dt + (a.velocity-target)*a.timeConstant*(1-decay)
	a.velocity = target + (a.velocity-target)*decay
}

func (a *SimAxis) Position() int32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.advance()
	return int32(a.position)
}

func (a *SimAxis) SetPosition(ticks int32) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.advance()
	a.position = float64(ticks)
}

func (a *SimAxis) Enable() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.armed = true
	return nil
}

func (a *SimAxis) Disable() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.armed = false
}

func (a *SimAxis) SetPower(power int32) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.advance()
	if power > motordriver.MaxPower {
		power = motordriver.MaxPower
	} else if power < -motordriver.MaxPower {
		power = -motordriver.MaxPower
	}
	a.power = power
	return nil
}

// Armed reports whether the encoder side is enabled.
func (a *SimAxis) Armed() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.armed
}

// Power is the last power written.
func (a *SimAxis) Power() int32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.power
}

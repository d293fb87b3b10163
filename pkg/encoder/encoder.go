package encoder

import (
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/periph/conn/gpio"

	"github.com/vart-team/vart/go-controller/pkg/logging"
)

// How long the edge watcher blocks before checking whether it was disabled.
const edgePollTimeout = 50 * time.Millisecond

// Encoder counts quadrature ticks. Every rising edge of phase A moves the
// count by one, in the direction given by the level of phase B.
type Encoder struct {
	phaseA gpio.PinIn
	phaseB gpio.PinIn

	position atomic.Int32

	lock sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

func New(phaseA, phaseB gpio.PinIn) *Encoder {
	return &Encoder{
		phaseA: phaseA,
		phaseB: phaseB,
	}
}

func (e *Encoder) Position() int32 {
	return e.position.Load()
}

func (e *Encoder) SetPosition(ticks int32) {
	e.position.Store(ticks)
}

// Enable arms edge detection on phase A and starts counting. Enabling an
// already enabled encoder does nothing.
func (e *Encoder) Enable() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.stop != nil {
		return nil
	}
	if err := e.phaseB.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return err
	}
	if err := e.phaseA.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		return err
	}

	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.watch(e.stop)
	return nil
}

// Disable stops counting. The current count is kept.
func (e *Encoder) Disable() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.stop == nil {
		return
	}
	close(e.stop)
	e.wg.Wait()
	e.stop = nil

	if err := e.phaseA.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		logging.For("encoder").WithError(err).Warn("Failed to disarm phase A")
	}
}

func (e *Encoder) watch(stop chan struct{}) {
	defer e.wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}
		if e.phaseA.WaitForEdge(edgePollTimeout) {
			e.onRisingPhaseA()
		}
	}
}

func (e *Encoder) onRisingPhaseA() {
	if e.phaseB.Read() == gpio.High {
		e.position.Add(1)
	} else {
		e.position.Add(-1)
	}
}

// Package tunable holds integer knobs that can be nudged at run time,
// mostly for tuning regulators by hand.
package tunable

import (
	"math"
	"sync/atomic"

	"github.com/vart-team/vart/go-controller/pkg/logging"
)

// Tunable stores Value steps of Scale each.
type Tunable struct {
	Name  string
	Scale float64
	value atomic.Int64
}

func (t *Tunable) Add(delta int) {
	v := t.value.Add(int64(delta))
	logging.For("tunable").WithField("tunable", t.Name).WithField("value", float64(v)*t.Scale).Info("Tunable changed")
}

func (t *Tunable) Get() int {
	return int(t.value.Load())
}

func (t *Tunable) Float() float64 {
	return float64(t.value.Load()) * t.Scale
}

type Tunables struct {
	All      []*Tunable
	selected int
}

// Create adds a tunable starting at the step nearest to value.
func (t *Tunables) Create(name string, value, scale float64) *Tunable {
	nt := &Tunable{Name: name, Scale: scale}
	nt.value.Store(int64(math.Round(value / scale)))
	t.All = append(t.All, nt)
	return nt
}

func (t *Tunables) SelectNext() {
	t.selected++
	if t.selected >= len(t.All) {
		t.selected = 0
	}
	t.logSelected()
}

func (t *Tunables) SelectPrev() {
	t.selected--
	if t.selected < 0 {
		t.selected = len(t.All) - 1
	}
	t.logSelected()
}

func (t *Tunables) logSelected() {
	c := t.Current()
	logging.For("tunable").WithField("tunable", c.Name).WithField("value", c.Float()).Info("Tunable selected")
}

func (t *Tunables) Current() *Tunable {
	return t.All[t.selected]
}

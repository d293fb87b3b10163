// Package job runs drawing programs on a device, one at a time, and
// reports their progress.
package job

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/bytelang"
	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/vart"
	"github.com/vart-team/vart/go-controller/pkg/vartlang"
)

// ErrBusy is returned while a job or a manual operation holds the device.
var ErrBusy = errors.New("job: the plotter is busy")

// Status is a snapshot of the runner. Result and QuitCode describe the
// last finished job. Manual names the manual operation in progress.
type Status struct {
	Running  bool      `json:"running"`
	Manual   string    `json:"manual,omitempty"`
	Paused   bool      `json:"paused"`
	Name     string    `json:"name"`
	Started  time.Time `json:"started,omitempty"`
	Progress int       `json:"progress"`
	Executed int64     `json:"executed"`
	QuitCode int       `json:"quit_code"`
	Result   string    `json:"result"`
}

// Runner owns the motion of one device: a job or a manual operation, never
// both and never two at once.
type Runner struct {
	device      *vart.Device
	interpreter *bytelang.Interpreter
	cues        config.Sound
	play        func(path string)

	lock    sync.Mutex
	running bool
	manual  string
	name    string
	started time.Time
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewRunner returns a runner for d. play receives the cue for each job
// start and end; it may be nil.
func NewRunner(d *vart.Device, cues config.Sound, play func(path string)) *Runner {
	if play == nil {
		play = func(string) {}
	}
	done := make(chan struct{})
	close(done)
	return &Runner{
		device:      d,
		interpreter: vartlang.NewInterpreter(d),
		cues:        cues,
		play:        play,
		done:        done,
	}
}

func (r *Runner) Interpreter() *bytelang.Interpreter {
	return r.interpreter
}

func (r *Runner) begin(name string) (context.Context, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.running || r.manual != "" {
		return nil, ErrBusy
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.running = true
	r.name = name
	r.started = time.Now()
	r.done = make(chan struct{})
	r.cancel = cancel
	return ctx, nil
}

func (r *Runner) end() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.running = false
	r.cancel()
	close(r.done)
}

// Manual runs f while holding the device, so no job can start and no other
// manual operation can run until f returns. It returns ErrBusy without
// calling f if the device is already held.
func (r *Runner) Manual(name string, f func() error) error {
	r.lock.Lock()
	if r.running || r.manual != "" {
		r.lock.Unlock()
		return ErrBusy
	}
	r.manual = name
	r.lock.Unlock()

	defer func() {
		r.lock.Lock()
		r.manual = ""
		r.lock.Unlock()
	}()
	logging.For("job").WithField("manual", name).Debug("Manual operation")
	return f()
}

// Start runs program in the background. It returns ErrBusy if a job is
// already running. The caller keeps ownership of program and must not
// close it before the job is done.
func (r *Runner) Start(name string, program io.Reader) error {
	ctx, err := r.begin(name)
	if err != nil {
		return err
	}
	go r.execute(ctx, name, program)
	return nil
}

// Run runs program and waits for it to finish.
func (r *Runner) Run(name string, program io.Reader) (bytelang.Result, error) {
	ctx, err := r.begin(name)
	if err != nil {
		return bytelang.Ok, err
	}
	return r.execute(ctx, name, program), nil
}

func (r *Runner) execute(ctx context.Context, name string, program io.Reader) bytelang.Result {
	defer r.end()
	log := logging.For("job").WithField("job", name)
	d := r.device

	d.Context.SetProgress(0)
	d.Context.RequestRefresh()
	r.play(r.cues.Start)
	log.Info("Job started")

	if err := d.Tool.SetEnabled(true); err != nil {
		log.WithError(err).Warn("Failed to enable tool servo")
	}
	if err := d.Controller().SetEnabled(true); err != nil {
		log.WithError(err).Warn("Failed to enable axes")
	}

	result := r.interpreter.RunContext(ctx, program)
	d.Context.SetQuitCode(int(result))

	if err := d.Tool.SetActiveTool(vart.MarkerNone); err != nil {
		log.WithError(err).Warn("Failed to park tool")
	}
	if err := d.Tool.SetEnabled(false); err != nil {
		log.WithError(err).Warn("Failed to disable tool servo")
	}
	d.Context.RequestRefresh()
	r.play(r.cueFor(result))

	entry := log.WithField("result", result).WithField("executed", r.interpreter.Executed())
	if result.Err() != nil {
		entry.Warn("Job stopped")
	} else {
		entry.Info("Job finished")
	}
	return result
}

func (r *Runner) cueFor(result bytelang.Result) string {
	switch result {
	case bytelang.ExitOk:
		return r.cues.Finish
	case bytelang.Abort:
		return r.cues.Abort
	default:
		return r.cues.Error
	}
}

// Abort stops the running job before its next instruction. A job still
// waiting for its header stops as soon as the header arrives.
func (r *Runner) Abort() {
	r.lock.Lock()
	if r.running {
		r.cancel()
	}
	r.lock.Unlock()
	r.interpreter.Abort()
}

func (r *Runner) SetPaused(paused bool) {
	r.interpreter.SetPaused(paused)
}

// IsRunning reports whether a job is running.
func (r *Runner) IsRunning() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.running
}

// IsBusy reports whether a job or a manual operation holds the device.
func (r *Runner) IsBusy() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.running || r.manual != ""
}

// Wait blocks until no job is running or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.lock.Lock()
	done := r.done
	r.lock.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Status() Status {
	r.lock.Lock()
	st := Status{
		Running: r.running,
		Manual:  r.manual,
		Name:    r.name,
		Started: r.started,
	}
	r.lock.Unlock()

	code := r.device.Context.QuitCode()
	st.Paused = r.interpreter.IsPaused()
	st.Progress = r.device.Context.Progress()
	st.Executed = r.interpreter.Executed()
	st.QuitCode = code
	st.Result = bytelang.Result(code).String()
	return st
}

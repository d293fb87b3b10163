// Package transport feeds programs streamed over a serial line to the job
// runner, reopening the port when it goes away.
package transport

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/vart-team/vart/go-controller/pkg/bytelang"
	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/job"
	"github.com/vart-team/vart/go-controller/pkg/logging"
)

// Opener opens the byte stream programs arrive on.
type Opener func() (io.ReadCloser, error)

// Runner executes one program to completion.
type Runner interface {
	Run(name string, program io.Reader) (bytelang.Result, error)
}

var _ Runner = (*job.Runner)(nil)

func SerialOpener(port string, baudRate int) Opener {
	return func() (io.ReadCloser, error) {
		p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", port)
		}
		return p, nil
	}
}

// Listener runs every program that arrives on its stream, one after the
// other.
type Listener struct {
	name        string
	open        Opener
	runner      Runner
	maxInterval time.Duration
	busyDelay   time.Duration
}

const minRetryInterval = 100 * time.Millisecond

func NewListener(name string, open Opener, runner Runner, maxInterval time.Duration) *Listener {
	if maxInterval < minRetryInterval {
		maxInterval = minRetryInterval
	}
	return &Listener{
		name:        name,
		open:        open,
		runner:      runner,
		maxInterval: maxInterval,
		busyDelay:   time.Second,
	}
}

// NewSerialListener returns nil when no port is configured.
func NewSerialListener(settings config.Serial, runner Runner) *Listener {
	if settings.Port == "" {
		return nil
	}
	return NewListener("serial:"+settings.Port,
		SerialOpener(settings.Port, settings.BaudRate),
		runner,
		time.Duration(settings.MaxRetrySeconds*float64(time.Second)))
}

// Loop keeps the stream open until ctx is done.
func (l *Listener) Loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log := logging.For("transport").WithField("stream", l.name)

	b := &backoff.ExponentialBackOff{
		InitialInterval:     minRetryInterval,
		RandomizationFactor: 0.2,
		Multiplier:          2,
		MaxInterval:         l.maxInterval,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	op := func() error {
		err := l.session(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.WithError(err).WithField("retry_in", next).Warn("Stream lost")
	}
	for ctx.Err() == nil {
		err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Error("Giving up on stream")
			return
		}
	}
	log.Info("Stream listener stopped")
}

// session opens the stream and runs programs from it until a read fails.
func (l *Listener) session(ctx context.Context) error {
	log := logging.For("transport").WithField("stream", l.name)

	stream, err := l.open()
	if err != nil {
		return err
	}
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go func() {
		select {
		case <-ctx.Done():
		case <-sessionDone:
		}
		_ = stream.Close()
	}()
	log.Info("Stream open")

	tr := &trackingReader{r: stream}
	for {
		result, err := l.runner.Run(l.name, tr)
		if errors.Is(err, job.ErrBusy) {
			// Leave the bytes in the port until the runner is free.
			select {
			case <-time.After(l.busyDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			return err
		}
		if tr.err != nil {
			if tr.err == io.EOF {
				return errors.Wrap(tr.err, "stream closed")
			}
			return tr.err
		}
		log.WithField("result", result).Info("Program done, waiting for the next one")
	}
}

// trackingReader remembers the first read error so a program ended by the
// link going down can be told apart from one ended by its own bytes.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

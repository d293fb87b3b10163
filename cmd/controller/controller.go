package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/api"
	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/hardware"
	"github.com/vart-team/vart/go-controller/pkg/job"
	"github.com/vart-team/vart/go-controller/pkg/joystick"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/sound"
	"github.com/vart-team/vart/go-controller/pkg/transport"
)

func main() {
	configPath := flag.String("config", os.Getenv("VART_CONFIG"), "YAML settings file")
	flag.Parse()

	log := logging.For("main")

	settings, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load settings")
	}
	if err := logging.Setup(settings.Log.Level, settings.Log.Format); err != nil {
		log.WithError(err).Fatal("Bad log settings")
	}
	if out, err := settings.WriteInUse(*configPath); err != nil {
		log.WithError(err).Warn("Failed to record settings in use")
	} else {
		log.WithField("path", out).Info("Settings in use written")
	}

	log.Info("---- Vart ----")
	log.WithField("gomaxprocs", runtime.GOMAXPROCS(0)).Info("Starting")

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	// Initialise the hardware.
	hw, err := newHardware(settings)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise hardware")
	}
	defer func() {
		log.Info("Releasing hardware for shut down")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()
	hw.Start(ctx)

	device := hw.Device()
	device.Controller().SetCurrentPositionAsHome()
	runner := job.NewRunner(device, settings.Sound, hw.PlaySound)

	var wg sync.WaitGroup

	if l := transport.NewSerialListener(settings.Serial, runner); l != nil {
		wg.Add(1)
		go l.Loop(ctx, &wg)
	}

	if settings.API.Listen != "" {
		srv := &http.Server{
			Addr:    settings.API.Listen,
			Handler: api.New(device, runner, settings.API.MaxProgramBytes).Router(),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		go func() {
			log.WithField("listen", srv.Addr).Info("HTTP API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("HTTP API failed")
			}
		}()
	}

	var joystickEvents <-chan *joystick.Event
	if settings.Joystick.Device != "" {
		joystickEvents = initJoystick(ctx, settings.Joystick.Device)
	}
	control := joystick.NewControl(joystick.NewPlotter(device, runner, settings.Joystick.JogMM))

	hw.PlaySound(settings.Sound.Start)

	watchdog := time.NewTicker(5 * time.Second)
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Context done, aborting any job and shutting down")
			runner.Abort()
			waitCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			_ = runner.Wait(waitCtx)
			done()
			control.Wait()
			wg.Wait()
			return
		case event, ok := <-joystickEvents:
			if !ok {
				log.Warn("Joystick events channel closed")
				joystickEvents = nil
				continue
			}
			control.OnJoystickEvent(event)
		case <-watchdog.C:
			st := runner.Status()
			log.WithField("running", st.Running).WithField("progress", st.Progress).Debug("Main loop still running")
		}
	}
}

func newHardware(settings *config.Settings) (hardware.Interface, error) {
	if settings.Simulation.Enabled {
		logging.For("main").Info("Using simulated hardware")
		return hardware.NewSim(settings), nil
	}
	var sounds chan string
	if settings.Sound.Enabled {
		sounds = sound.InitSound()
	}
	hw, err := hardware.New(settings, sounds)
	if err != nil {
		return nil, err
	}
	return hw, nil
}

// initJoystick waits for the pad in the background and forwards its events.
func initJoystick(ctx context.Context, device string) <-chan *joystick.Event {
	log := logging.For("joystick").WithField("device", device)
	events := make(chan *joystick.Event, 1)
	go func() {
		firstLog := true
		for ctx.Err() == nil {
			j, err := joystick.Open(device)
			if err != nil {
				if firstLog {
					log.WithError(err).Info("Waiting for joystick")
					firstLog = false
				}
				time.Sleep(1 * time.Second)
				continue
			}
			log.Info("Opened joystick")
			err = j.LoopReadingEvents(ctx, events)
			log.WithError(err).Warn("Joystick failed")
			return
		}
		close(events)
	}()
	return events
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		logging.For("main").WithField("signal", s).Info("Signal")
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}

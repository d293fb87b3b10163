package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/joystick"
)

// Prints pad events, and the plotter action each one maps to.
func main() {
	device := flag.String("device", "/dev/input/js0", "joystick device")
	flag.Parse()

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	var j *joystick.Joystick
	firstLog := true
	for {
		var err error
		j, err = joystick.Open(*device)
		if err == nil {
			break
		}
		if firstLog {
			fmt.Printf("Waiting for joystick: %v.\n", err)
			firstLog = false
		}
		time.Sleep(1 * time.Second)
	}
	fmt.Printf("Opened joystick\n")

	events := make(chan *joystick.Event)
	go func() {
		err := j.LoopReadingEvents(ctx, events)
		fmt.Printf("Joystick failed: %v\n", err)
	}()

	control := joystick.NewControl(printer{})
	for e := range events {
		fmt.Println(e)
		control.OnJoystickEvent(e)
	}
	control.Wait()
}

type printer struct{}

func (printer) TogglePause()                  { fmt.Println("  -> toggle pause") }
func (printer) Abort()                        { fmt.Println("  -> abort") }
func (printer) StartDemo() error              { fmt.Println("  -> start demo"); return nil }
func (printer) MoveHome() error               { fmt.Println("  -> move home"); return nil }
func (printer) SetHome() error                { fmt.Println("  -> set home"); return nil }
func (printer) PullRopesIn() error            { fmt.Println("  -> pull ropes in"); return nil }
func (printer) PullRopesOut() error           { fmt.Println("  -> pull ropes out"); return nil }
func (printer) SetEnabled(enabled bool) error { fmt.Println("  -> enabled", enabled); return nil }

func (printer) Jog(dx, dy int) error {
	fmt.Printf("  -> jog %d,%d\n", dx, dy)
	return nil
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		fmt.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}

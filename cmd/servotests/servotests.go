package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/hardware"
	"github.com/vart-team/vart/go-controller/pkg/logging"
	"github.com/vart-team/vart/go-controller/pkg/tunable"
	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Step-response bench for one rope axis. The regulator is stepped from this
// goroutine, so gains can be changed between runs without locking.
func main() {
	configPath := flag.String("config", os.Getenv("VART_CONFIG"), "YAML settings file")
	sim := flag.Bool("sim", false, "use a simulated axis")
	axis := flag.String("axis", "left", "axis to test: left or right")
	flag.Parse()

	log := logging.For("servotests")
	settings, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load settings")
	}
	if *sim {
		settings.Simulation.Enabled = true
	}

	var hw hardware.Interface
	if settings.Simulation.Enabled {
		hw = hardware.NewSim(settings)
	} else {
		h, err := hardware.New(settings, nil)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialise hardware")
		}
		hw = h
	}
	defer hw.Shutdown()

	c := hw.Device().Controller()
	pulley := c.Left()
	if *axis == "right" {
		pulley = c.Right()
	}
	servo := pulley.Servo()

	gains := &settings.Vart.Servomotor.Position
	var tunables tunable.Tunables
	kp := tunables.Create("Kp", gains.Kp, 0.1)
	ki := tunables.Create("Ki", gains.Ki, 0.1)
	kd := tunables.Create("Kd", gains.Kd, 0.01)

	fmt.Println(
		`Commands:
    s <mm>     # Step the rope by <mm> and report the response
    n / p      # Select next / previous gain
    + <steps>  # Raise the selected gain
    - <steps>  # Lower the selected gain
    g          # Show the gains
    q          # Quit`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "q":
			return
		case "n":
			tunables.SelectNext()
		case "p":
			tunables.SelectPrev()
		case "g":
			for _, t := range tunables.All {
				fmt.Printf("%s = %.3f\n", t.Name, t.Float())
			}
		case "+", "-":
			steps := 1
			if len(parts) > 1 {
				if steps, err = strconv.Atoi(parts[1]); err != nil {
					fmt.Println("Expected int, not ", parts[1])
					continue
				}
			}
			if parts[0] == "-" {
				steps = -steps
			}
			tunables.Current().Add(steps)
		case "s":
			if len(parts) < 2 {
				fmt.Println("Not enough parameters")
				continue
			}
			mm, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				fmt.Println("Expected float, not ", parts[1])
				continue
			}
			gains.Kp, gains.Ki, gains.Kd = kp.Float(), ki.Float(), kd.Float()
			ticks := settings.Vart.Pulley.MMToTicks(mm)
			r, err := stepResponse(servo, ticks, settings.Vart.Servomotor.ReadyMaxAbsError, 2*time.Second)
			if err != nil {
				fmt.Println("Step failed: ", err)
				continue
			}
			settled := "never"
			if r.settle >= 0 {
				settled = r.settle.String()
			}
			fmt.Printf("Step %d ticks: settled %s, overshoot %d ticks, final error %d ticks\n",
				ticks, settled, r.overshoot, r.finalError)
		}
	}
}

type response struct {
	settle     time.Duration
	overshoot  int32
	finalError int32
}

// stepResponse drives servo by step ticks for the given time. settle is
// when the error last entered the ready band, or -1 if it never stayed there.
func stepResponse(servo vart.Servo, step, band int32, duration time.Duration) (response, error) {
	if err := servo.SetEnabled(true); err != nil {
		return response{}, err
	}
	defer func() { _ = servo.SetEnabled(false) }()

	start := servo.CurrentPosition()
	target := start + step
	servo.SetTargetPosition(target)

	var r response
	r.settle = -1
	period := servo.UpdatePeriod()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	began := time.Now()
	for time.Since(began) < duration {
		if err := servo.Update(); err != nil {
			return r, err
		}
		pos := servo.CurrentPosition()
		e := target - pos
		if step > 0 && -e > r.overshoot {
			r.overshoot = -e
		} else if step < 0 && e > r.overshoot {
			r.overshoot = e
		}
		if abs(e) < band {
			if r.settle < 0 {
				r.settle = time.Since(began)
			}
		} else {
			r.settle = -1
		}
		r.finalError = e
		<-ticker.C
	}
	return r, nil
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vart-team/vart/go-controller/pkg/hardware"
	"github.com/vart-team/vart/go-controller/pkg/job"
)

func simulateCmd(load loader) *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{
		Use:   "simulate <program>",
		Short: "Run a program on simulated motors and report how it ended",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := load()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, cancel := context.WithCancel(cmd.Context())

			sim := hardware.NewSim(settings)
			sim.Start(ctx)
			defer sim.Shutdown()
			defer cancel()

			d := sim.Device()
			d.Controller().SetCurrentPositionAsHome()
			runner := job.NewRunner(d, settings.Sound, nil)

			if timeout > 0 {
				timer := time.AfterFunc(timeout, runner.Abort)
				defer timer.Stop()
			}

			start := time.Now()
			result, err := runner.Run(args[0], f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := runner.Status()
			fmt.Fprintf(out, "result:       %v\n", result)
			fmt.Fprintf(out, "instructions: %d\n", st.Executed)
			fmt.Fprintf(out, "progress:     %d%%\n", st.Progress)
			fmt.Fprintf(out, "elapsed:      %v\n", time.Since(start).Round(time.Millisecond))
			if p, err := d.Controller().CurrentPosition(); err == nil {
				fmt.Fprintf(out, "pen:          %.1f, %.1f\n", p.X, p.Y)
			}
			if err := result.Err(); err != nil {
				return err
			}
			return nil
		},
	}
	c.Flags().DurationVar(&timeout, "timeout", 0, "abort the program after this long (0 = never)")
	return c
}

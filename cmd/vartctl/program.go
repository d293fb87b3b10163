package main

import (
	"bufio"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/vartlang"
)

type loader func() (*config.Settings, error)

func decodeFile(path string) ([]vartlang.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vartlang.Decode(bufio.NewReader(f))
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <program>",
		Short: "List the instructions of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instructions, err := decodeFile(args[0])
			out := cmd.OutOrStdout()
			for _, ins := range instructions {
				fmt.Fprintln(out, ins)
			}
			return err
		},
	}
}

func previewCmd(load loader) *cobra.Command {
	var (
		output  string
		pxPerMM float64
	)
	c := &cobra.Command{
		Use:   "preview <program>",
		Short: "Render the pen path of a program to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := load()
			if err != nil {
				return err
			}
			instructions, err := decodeFile(args[0])
			if err != nil {
				return err
			}
			img := vartlang.RenderPreview(vartlang.Trace(instructions), areaSize(settings), pxPerMM)

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d instructions)\n", output, len(instructions))
			return nil
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "preview.png", "PNG file to write")
	c.Flags().Float64Var(&pxPerMM, "px-per-mm", 0.5, "pixels per millimetre")
	return c
}

func areaSize(settings *config.Settings) geometry.Vector2D {
	return settings.Vart.Area.DefaultSize
}

func demoCmd() *cobra.Command {
	var output string
	c := &cobra.Command{
		Use:   "demo",
		Short: "Write the built-in demo program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return os.WriteFile(output, vartlang.Demo(), 0644)
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "demo.vart", "file to write")
	return c
}

func configCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := load()
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/vart-team/vart/go-controller/pkg/geometry"
	"github.com/vart-team/vart/go-controller/pkg/screen"
)

// Renders the status panel to a PNG, and to the framebuffer when one is
// named on the command line, so the layout can be checked without a job.
func main() {
	var fb *os.File
	if len(os.Args) > 1 {
		f, err := os.OpenFile(os.Args[1], os.O_RDWR, 0666)
		if err != nil {
			fmt.Println("Failed to open framebuffer: ", err)
			os.Exit(1)
		}
		defer f.Close()
		fb = f
	}

	st := screen.Status{
		AreaSize:    geometry.Vector2D{X: 500, Y: 700},
		HasPosition: true,
	}

	fmt.Println(
		`Commands:
    p <percent>   # Set the progress
    q <code>      # Set the quit code
    m <x> <y>     # Move the pen marker
    l             # Lose the position
    w <file.png>  # Write the panel to a file`)

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
		args := parseFloats(parts[1:])
		switch parts[0] {
		case "p":
			if len(args) < 1 {
				fmt.Println("Not enough parameters")
				continue
			}
			st.Progress = int(args[0])
		case "q":
			if len(args) < 1 {
				fmt.Println("Not enough parameters")
				continue
			}
			st.QuitCode = int(args[0])
		case "m":
			if len(args) < 2 {
				fmt.Println("Not enough parameters")
				continue
			}
			st.Position = geometry.Vector2D{X: args[0], Y: args[1]}
			st.HasPosition = true
		case "l":
			st.HasPosition = false
		case "w":
			if len(parts) < 2 {
				fmt.Println("Not enough parameters")
				continue
			}
			if err := gg.SavePNG(parts[1], screen.Render(st)); err != nil {
				fmt.Println("Failed to write PNG: ", err)
			}
			continue
		default:
			fmt.Println("Unknown command ", parts[0])
			continue
		}

		if fb != nil {
			if _, err := fb.WriteAt(screen.ToRGB565(screen.Render(st)), 0); err != nil {
				fmt.Println("Failed to write framebuffer: ", err)
			}
		}
	}
}

// parseFloats parses the leading numeric arguments.
func parseFloats(parts []string) []float64 {
	var out []float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			break
		}
		out = append(out, f)
	}
	return out
}

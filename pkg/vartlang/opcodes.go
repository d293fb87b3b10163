// Package vartlang is the plotter's instruction set: the handlers that run
// each opcode against a Device, plus tools to write, list and preview
// programs.
package vartlang

import "fmt"

type Opcode uint8

const (
	OpQuit Opcode = iota
	OpDelayMs
	OpSetSpeed
	OpSetAccel
	OpSetPlannerMode
	OpSetPosition
	OpSetProgress
	OpSetActiveTool

	opCount
)

var opNames = [opCount]string{
	"quit",
	"delay_ms",
	"set_speed",
	"set_accel",
	"set_planner_mode",
	"set_position",
	"set_progress",
	"set_active_tool",
}

// Operand widths in bytes, in order. Negative widths are signed.
var opOperands = [opCount][]int{
	OpQuit:           nil,
	OpDelayMs:        {2},
	OpSetSpeed:       {1},
	OpSetAccel:       {1},
	OpSetPlannerMode: {1},
	OpSetPosition:    {-2, -2},
	OpSetProgress:    {1},
	OpSetActiveTool:  {1},
}

func (o Opcode) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("op%d", uint8(o))
}

// Names lists opcode names indexed by opcode.
func Names() []string {
	return opNames[:]
}

package bytelang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vart-team/vart/go-controller/pkg/logging"
)

// Result is the status of a single instruction or of a whole run. The
// numeric values are part of the wire protocol.
type Result uint8

const (
	ExitOk                       Result = 0x00
	Ok                           Result = 0x01
	Abort                        Result = 0x02
	InvalidHeader                Result = 0x03
	InvalidInstructionCode       Result = 0x04
	InstructionCodeReadError     Result = 0x05
	InstructionArgumentReadError Result = 0x06
	MotionError                  Result = 0x07
)

// Header is the first byte of every program.
const Header byte = 0x01

// DefaultYield is the pause between two instructions. It gives the other
// tasks a chance to run and bounds how long an abort takes to be seen.
const DefaultYield = time.Millisecond

var (
	ErrAborted                 = errors.New("program aborted")
	ErrInvalidHeader           = errors.New("invalid program header")
	ErrInvalidInstructionCode  = errors.New("invalid instruction code")
	ErrInstructionCodeRead     = errors.New("failed to read instruction code")
	ErrInstructionArgumentRead = errors.New("failed to read instruction argument")
	ErrMotion                  = errors.New("motion failed")
)

func (r Result) String() string {
	switch r {
	case ExitOk:
		return "ExitOk"
	case Ok:
		return "Ok"
	case Abort:
		return "Abort"
	case InvalidHeader:
		return "InvalidHeader"
	case InvalidInstructionCode:
		return "InvalidInstructionCode"
	case InstructionCodeReadError:
		return "InstructionCodeReadError"
	case InstructionArgumentReadError:
		return "InstructionArgumentReadError"
	case MotionError:
		return "MotionError"
	}
	return fmt.Sprintf("Result(%d)", uint8(r))
}

// Err maps a failure result to its sentinel error. ExitOk and Ok map to nil.
func (r Result) Err() error {
	switch r {
	case ExitOk, Ok:
		return nil
	case Abort:
		return ErrAborted
	case InvalidHeader:
		return ErrInvalidHeader
	case InvalidInstructionCode:
		return ErrInvalidInstructionCode
	case InstructionCodeReadError:
		return ErrInstructionCodeRead
	case InstructionArgumentReadError:
		return ErrInstructionArgumentRead
	case MotionError:
		return ErrMotion
	}
	return fmt.Errorf("unknown result %d", uint8(r))
}

// Instruction executes one opcode. It reads its own operands from r and
// returns Ok to continue the run or any other Result to end it.
type Instruction func(r *Reader) Result

// Interpreter runs programs against a fixed instruction table. The opcode
// is the index into the table.
type Interpreter struct {
	table    []Instruction
	names    []string
	yield    time.Duration
	aborted  atomic.Bool
	paused   atomic.Bool
	executed atomic.Int64
}

func New(table []Instruction) *Interpreter {
	return &Interpreter{
		table: table,
		yield: DefaultYield,
	}
}

// SetNames attaches opcode names used in debug logs.
func (i *Interpreter) SetNames(names []string) {
	i.names = names
}

func (i *Interpreter) SetYield(d time.Duration) {
	i.yield = d
}

func (i *Interpreter) InstructionCount() int {
	return len(i.table)
}

// Abort asks the current run to stop. It is safe to call from any goroutine.
func (i *Interpreter) Abort() {
	i.aborted.Store(true)
}

func (i *Interpreter) IsAborted() bool {
	return i.aborted.Load()
}

func (i *Interpreter) SetPaused(paused bool) {
	i.paused.Store(paused)
}

func (i *Interpreter) IsPaused() bool {
	return i.paused.Load()
}

// Executed is the number of instructions dispatched during the current or
// last run.
func (i *Interpreter) Executed() int64 {
	return i.executed.Load()
}

// Run executes the program read from stream until an instruction ends it,
// the stream runs out or the run is aborted. Abort and pause flags are
// cleared once the header has been accepted.
func (i *Interpreter) Run(stream io.Reader) Result {
	return i.RunContext(context.Background(), stream)
}

// RunContext is Run, also ending with Abort once ctx is done. Unlike the
// abort flag, a ctx cancelled before the header arrives still counts.
func (i *Interpreter) RunContext(ctx context.Context, stream io.Reader) Result {
	log := logging.For("interpreter")
	r := NewReader(stream)

	header, err := r.ReadByte()
	if err != nil || header != Header {
		log.WithField("header", header).Warn("Invalid program header")
		return InvalidHeader
	}

	i.aborted.Store(false)
	i.paused.Store(false)
	i.executed.Store(0)

	for {
		time.Sleep(i.yield)

		if i.aborted.Load() || ctx.Err() != nil {
			log.Info("Program aborted")
			return Abort
		}
		if i.paused.Load() {
			continue
		}

		code, err := r.ReadByte()
		if err != nil {
			return InstructionCodeReadError
		}
		if int(code) >= len(i.table) {
			log.WithField("code", code).Warn("Invalid instruction code")
			return InvalidInstructionCode
		}

		log.WithField("op", i.opName(code)).Debug("Dispatch")
		i.executed.Add(1)
		if result := i.table[code](r); result != Ok {
			return result
		}
	}
}

func (i *Interpreter) opName(code byte) string {
	if int(code) < len(i.names) {
		return i.names[code]
	}
	return fmt.Sprintf("op%d", code)
}

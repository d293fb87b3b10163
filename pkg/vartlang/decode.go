package vartlang

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vart-team/vart/go-controller/pkg/bytelang"
)

// Instruction is one decoded record. Offset is the position of the opcode
// byte in the program.
type Instruction struct {
	Offset int
	Op     Opcode
	Args   []int
}

func (i Instruction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04x  %s", i.Offset, i.Op)
	for _, a := range i.Args {
		fmt.Fprintf(&sb, " %d", a)
	}
	return sb.String()
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

// Decode lists the program in r. It stops after quit or at a clean end of
// stream; a bad header, an unknown opcode or a truncated operand is an
// error, returned with what was decoded so far.
func Decode(r io.Reader) ([]Instruction, error) {
	cr := &countingReader{r: r}
	br := bytelang.NewReader(cr)

	header, err := br.ReadByte()
	if err != nil || header != bytelang.Header {
		return nil, bytelang.ErrInvalidHeader
	}

	var out []Instruction
	for {
		offset := cr.n
		code, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if code >= byte(opCount) {
			return out, fmt.Errorf("%w %d at %#04x", bytelang.ErrInvalidInstructionCode, code, offset)
		}

		ins := Instruction{Offset: offset, Op: Opcode(code)}
		for _, width := range opOperands[code] {
			v, err := readOperand(br, width)
			if err != nil {
				return out, fmt.Errorf("%w for %s at %#04x", bytelang.ErrInstructionArgumentRead, ins.Op, offset)
			}
			ins.Args = append(ins.Args, v)
		}
		out = append(out, ins)
		if ins.Op == OpQuit {
			return out, nil
		}
	}
}

func readOperand(r *bytelang.Reader, width int) (int, error) {
	switch width {
	case 1:
		v, err := r.ReadU8()
		return int(v), err
	case -1:
		v, err := r.ReadI8()
		return int(v), err
	case 2:
		v, err := r.ReadU16()
		return int(v), err
	case -2:
		v, err := r.ReadI16()
		return int(v), err
	}
	return 0, fmt.Errorf("unsupported operand width %d", width)
}

// Encode writes instructions back out as a program.
func Encode(w io.Writer, instructions []Instruction) error {
	pw := NewWriter(w)
	for _, ins := range instructions {
		b := []byte{byte(ins.Op)}
		for i, width := range opOperands[ins.Op] {
			if i >= len(ins.Args) {
				return fmt.Errorf("%s at %#04x is missing operand %d", ins.Op, ins.Offset, i)
			}
			v := ins.Args[i]
			switch width {
			case 1, -1:
				b = append(b, byte(v))
			case 2, -2:
				b = append(b, byte(v), byte(v>>8))
			}
		}
		pw.emit(b)
	}
	return pw.Err()
}

// Package debug formats read-only console state for humans: CPU trace
// lines, test ROM results, frame dumps and an optional runtime stats server.
package debug

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/AndrewNeo/nessharp/internal/cpu"
	"github.com/AndrewNeo/nessharp/internal/nes"
)

// Peeker reads CPU address space without side effects.
type Peeker interface {
	Peek(address uint16) uint8
}

// FormatTrace renders s as a nestest-style log line:
//
//	C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7
//
// mem resolves effective addresses and the values behind them. It may be
// nil, in which case the "= value" annotations are left out.
func FormatTrace(s nes.State, mem Peeker) string {
	c := s.CPU
	inst, ok := cpu.Lookup(s.Instruction[0])

	size := 1
	if ok {
		size = int(inst.Mode.Size())
	}
	raw := make([]string, size)
	for i := range raw {
		raw[i] = fmt.Sprintf("%02X", s.Instruction[i])
	}

	return fmt.Sprintf("%04X  %-8s  %-32sA:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d",
		c.PC, strings.Join(raw, " "), Disassemble(s, mem),
		c.A, c.X, c.Y, uint8(c.P), c.SP, s.PPU.Scanline, s.PPU.Dot, c.Cycles)
}

// Disassemble renders the instruction at s.CPU.PC with its resolved operand.
func Disassemble(s nes.State, mem Peeker) string {
	inst, ok := cpu.Lookup(s.Instruction[0])
	if !ok {
		return fmt.Sprintf(".DB $%02X", s.Instruction[0])
	}

	c := s.CPU
	lo, hi := s.Instruction[1], s.Instruction[2]
	word := uint16(hi)<<8 | uint16(lo)
	peek := func(address uint16) string {
		if mem == nil {
			return ""
		}
		return fmt.Sprintf(" = %02X", mem.Peek(address))
	}
	peekWord := func(lo, hi uint16) uint16 {
		if mem == nil {
			return 0
		}
		return uint16(mem.Peek(hi))<<8 | uint16(mem.Peek(lo))
	}

	var operand string
	switch inst.Mode {
	case cpu.Implied:
	case cpu.Accumulator:
		operand = "A"
	case cpu.Immediate:
		operand = fmt.Sprintf("#$%02X", lo)
	case cpu.ZeroPage:
		operand = fmt.Sprintf("$%02X", lo) + peek(uint16(lo))
	case cpu.ZeroPageX:
		address := lo + c.X
		operand = fmt.Sprintf("$%02X,X @ %02X", lo, address) + peek(uint16(address))
	case cpu.ZeroPageY:
		address := lo + c.Y
		operand = fmt.Sprintf("$%02X,Y @ %02X", lo, address) + peek(uint16(address))
	case cpu.Relative:
		target := c.PC + 2 + uint16(int8(lo))
		operand = fmt.Sprintf("$%04X", target)
	case cpu.Absolute:
		operand = fmt.Sprintf("$%04X", word)
		if inst.Name != "JMP" && inst.Name != "JSR" {
			operand += peek(word)
		}
	case cpu.AbsoluteX:
		address := word + uint16(c.X)
		operand = fmt.Sprintf("$%04X,X @ %04X", word, address) + peek(address)
	case cpu.AbsoluteY:
		address := word + uint16(c.Y)
		operand = fmt.Sprintf("$%04X,Y @ %04X", word, address) + peek(address)
	case cpu.Indirect:
		// The pointer high byte never carries into the next page.
		target := peekWord(word, word&0xFF00|uint16(uint8(word)+1))
		operand = fmt.Sprintf("($%04X)", word)
		if mem != nil {
			operand += fmt.Sprintf(" = %04X", target)
		}
	case cpu.IndexedIndirect:
		ptr := lo + c.X
		address := peekWord(uint16(ptr), uint16(ptr+1))
		operand = fmt.Sprintf("($%02X,X) @ %02X", lo, ptr)
		if mem != nil {
			operand += fmt.Sprintf(" = %04X", address) + peek(address)
		}
	case cpu.IndirectIndexed:
		base := peekWord(uint16(lo), uint16(lo+1))
		address := base + uint16(c.Y)
		operand = fmt.Sprintf("($%02X),Y", lo)
		if mem != nil {
			operand += fmt.Sprintf(" = %04X @ %04X", base, address) + peek(address)
		}
	}

	if operand == "" {
		return inst.Name
	}
	return inst.Name + " " + operand
}

// Tracer writes one FormatTrace line per instruction to an io.Writer. It
// implements nes.Tracer.
type Tracer struct {
	mu  sync.Mutex
	w   *bufio.Writer
	mem Peeker
	err error

	lines uint64
}

// NewTracer creates a tracer writing to w. mem is usually the console.
func NewTracer(w io.Writer, mem Peeker) *Tracer {
	return &Tracer{w: bufio.NewWriter(w), mem: mem}
}

// SetPeeker sets the memory used for operand annotations. A console needs
// its tracer before it exists, so the two are connected after New.
func (t *Tracer) SetPeeker(mem Peeker) {
	t.mu.Lock()
	t.mem = mem
	t.mu.Unlock()
}

// Trace implements nes.Tracer. The first write error is kept and later
// lines are dropped.
func (t *Tracer) Trace(s nes.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return
	}
	if _, err := t.w.WriteString(FormatTrace(s, t.mem) + "\n"); err != nil {
		t.err = err
		return
	}
	t.lines++
}

// Lines returns the number of lines written.
func (t *Tracer) Lines() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lines
}

// Flush writes buffered lines and reports the first write error.
func (t *Tracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}

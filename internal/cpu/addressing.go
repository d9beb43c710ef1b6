package cpu

// AddressingMode selects how an instruction finds its operand.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

var modeNames = [...]string{
	Implied:         "implied",
	Accumulator:     "accumulator",
	Immediate:       "immediate",
	ZeroPage:        "zeropage",
	ZeroPageX:       "zeropage,X",
	ZeroPageY:       "zeropage,Y",
	Relative:        "relative",
	Absolute:        "absolute",
	AbsoluteX:       "absolute,X",
	AbsoluteY:       "absolute,Y",
	Indirect:        "indirect",
	IndexedIndirect: "(indirect,X)",
	IndirectIndexed: "(indirect),Y",
}

func (m AddressingMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Size returns the instruction length in bytes for the mode.
func (m AddressingMode) Size() uint16 {
	switch m {
	case Implied, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	default:
		return 2
	}
}

// operand is a resolved addressing mode. Accumulator mode has no address;
// read and write special-case it.
type operand struct {
	mode    AddressingMode
	address uint16
	crossed bool // indexing crossed a 256-byte page
}

func pageCrossed(a, b uint16) bool {
	return a&pageMask != b&pageMask
}

// resolve consumes the operand bytes after the opcode and returns the
// effective address. PC is left at the next instruction.
func (cpu *CPU) resolve(mode AddressingMode) operand {
	op := operand{mode: mode}

	switch mode {
	case Implied, Accumulator:

	case Immediate:
		op.address = cpu.PC
		cpu.PC++

	case ZeroPage:
		op.address = uint16(cpu.fetch())

	case ZeroPageX:
		op.address = uint16(cpu.fetch() + cpu.X)

	case ZeroPageY:
		op.address = uint16(cpu.fetch() + cpu.Y)

	case Relative:
		offset := int8(cpu.fetch())
		op.address = cpu.PC + uint16(offset)
		op.crossed = pageCrossed(cpu.PC, op.address)

	case Absolute:
		op.address = cpu.fetchWord()

	case AbsoluteX:
		base := cpu.fetchWord()
		op.address = base + uint16(cpu.X)
		op.crossed = pageCrossed(base, op.address)

	case AbsoluteY:
		base := cpu.fetchWord()
		op.address = base + uint16(cpu.Y)
		op.crossed = pageCrossed(base, op.address)

	case Indirect:
		// The high byte never carries out of the pointer's page: JMP ($10FF)
		// reads $10FF and $1000.
		ptr := cpu.fetchWord()
		low := uint16(cpu.bus.Read(ptr))
		high := uint16(cpu.bus.Read(ptr&pageMask | (ptr+1)&zeroPageMask))
		op.address = high<<8 | low

	case IndexedIndirect:
		ptr := cpu.fetch() + cpu.X
		op.address = cpu.readZeroPageWord(ptr)

	case IndirectIndexed:
		base := cpu.readZeroPageWord(cpu.fetch())
		op.address = base + uint16(cpu.Y)
		op.crossed = pageCrossed(base, op.address)
	}

	return op
}

func (cpu *CPU) fetch() uint8 {
	value := cpu.bus.Read(cpu.PC)
	cpu.PC++
	return value
}

func (cpu *CPU) fetchWord() uint16 {
	low := uint16(cpu.fetch())
	high := uint16(cpu.fetch())
	return high<<8 | low
}

// readZeroPageWord reads a pointer from the zero page, wrapping $FF to $00.
func (cpu *CPU) readZeroPageWord(ptr uint8) uint16 {
	low := uint16(cpu.bus.Read(uint16(ptr)))
	high := uint16(cpu.bus.Read(uint16(ptr + 1)))
	return high<<8 | low
}

// read returns the operand value, from A in accumulator mode.
func (cpu *CPU) read(op operand) uint8 {
	if op.mode == Accumulator {
		return cpu.A
	}
	return cpu.bus.Read(op.address)
}

// write stores a result back to the operand, to A in accumulator mode.
func (cpu *CPU) write(op operand, value uint8) {
	if op.mode == Accumulator {
		cpu.A = value
		return
	}
	cpu.bus.Write(op.address, value)
}

package cpu

// Instruction represents a 6502 instruction
type Instruction struct {
	Name   string
	Opcode uint8
	Cycles uint8
	Mode   AddressingMode
	// PagePenalty adds a cycle when indexing crosses a page. Only read
	// instructions carry it; stores and read-modify-write always pay the
	// indexed cost in Cycles.
	PagePenalty bool

	execute func(*CPU, operand) uint8
}

// Size returns the instruction length in bytes.
func (i Instruction) Size() uint16 {
	return i.Mode.Size()
}

// Valid reports whether the opcode has a handler.
func (i Instruction) Valid() bool {
	return i.execute != nil
}

// Lookup returns the instruction registered for opcode.
func Lookup(opcode uint8) (Instruction, bool) {
	inst := instructions[opcode]
	return inst, inst.execute != nil
}

// instructions is the dispatch table. Unregistered entries have a nil
// handler and go through the unsupported opcode policy.
var instructions [256]Instruction

const cross = true // page-cross penalty

func init() {
	table := []struct {
		name    string
		opcode  uint8
		cycles  uint8
		mode    AddressingMode
		penalty bool
		execute func(*CPU, operand) uint8
	}{
		// Load/Store Instructions
		{"LDA", 0xA9, 2, Immediate, false, lda},
		{"LDA", 0xA5, 3, ZeroPage, false, lda},
		{"LDA", 0xB5, 4, ZeroPageX, false, lda},
		{"LDA", 0xAD, 4, Absolute, false, lda},
		{"LDA", 0xBD, 4, AbsoluteX, cross, lda},
		{"LDA", 0xB9, 4, AbsoluteY, cross, lda},
		{"LDA", 0xA1, 6, IndexedIndirect, false, lda},
		{"LDA", 0xB1, 5, IndirectIndexed, cross, lda},

		{"LDX", 0xA2, 2, Immediate, false, ldx},
		{"LDX", 0xA6, 3, ZeroPage, false, ldx},
		{"LDX", 0xB6, 4, ZeroPageY, false, ldx},
		{"LDX", 0xAE, 4, Absolute, false, ldx},
		{"LDX", 0xBE, 4, AbsoluteY, cross, ldx},

		{"LDY", 0xA0, 2, Immediate, false, ldy},
		{"LDY", 0xA4, 3, ZeroPage, false, ldy},
		{"LDY", 0xB4, 4, ZeroPageX, false, ldy},
		{"LDY", 0xAC, 4, Absolute, false, ldy},
		{"LDY", 0xBC, 4, AbsoluteX, cross, ldy},

		{"STA", 0x85, 3, ZeroPage, false, sta},
		{"STA", 0x95, 4, ZeroPageX, false, sta},
		{"STA", 0x8D, 4, Absolute, false, sta},
		{"STA", 0x9D, 5, AbsoluteX, false, sta},
		{"STA", 0x99, 5, AbsoluteY, false, sta},
		{"STA", 0x81, 6, IndexedIndirect, false, sta},
		{"STA", 0x91, 6, IndirectIndexed, false, sta},

		{"STX", 0x86, 3, ZeroPage, false, stx},
		{"STX", 0x96, 4, ZeroPageY, false, stx},
		{"STX", 0x8E, 4, Absolute, false, stx},

		{"STY", 0x84, 3, ZeroPage, false, sty},
		{"STY", 0x94, 4, ZeroPageX, false, sty},
		{"STY", 0x8C, 4, Absolute, false, sty},

		// Arithmetic
		{"ADC", 0x69, 2, Immediate, false, adc},
		{"ADC", 0x65, 3, ZeroPage, false, adc},
		{"ADC", 0x75, 4, ZeroPageX, false, adc},
		{"ADC", 0x6D, 4, Absolute, false, adc},
		{"ADC", 0x7D, 4, AbsoluteX, cross, adc},
		{"ADC", 0x79, 4, AbsoluteY, cross, adc},
		{"ADC", 0x61, 6, IndexedIndirect, false, adc},
		{"ADC", 0x71, 5, IndirectIndexed, cross, adc},

		{"SBC", 0xE9, 2, Immediate, false, sbc},
		{"SBC", 0xE5, 3, ZeroPage, false, sbc},
		{"SBC", 0xF5, 4, ZeroPageX, false, sbc},
		{"SBC", 0xED, 4, Absolute, false, sbc},
		{"SBC", 0xFD, 4, AbsoluteX, cross, sbc},
		{"SBC", 0xF9, 4, AbsoluteY, cross, sbc},
		{"SBC", 0xE1, 6, IndexedIndirect, false, sbc},
		{"SBC", 0xF1, 5, IndirectIndexed, cross, sbc},

		// Logical
		{"AND", 0x29, 2, Immediate, false, and},
		{"AND", 0x25, 3, ZeroPage, false, and},
		{"AND", 0x35, 4, ZeroPageX, false, and},
		{"AND", 0x2D, 4, Absolute, false, and},
		{"AND", 0x3D, 4, AbsoluteX, cross, and},
		{"AND", 0x39, 4, AbsoluteY, cross, and},
		{"AND", 0x21, 6, IndexedIndirect, false, and},
		{"AND", 0x31, 5, IndirectIndexed, cross, and},

		{"ORA", 0x09, 2, Immediate, false, ora},
		{"ORA", 0x05, 3, ZeroPage, false, ora},
		{"ORA", 0x15, 4, ZeroPageX, false, ora},
		{"ORA", 0x0D, 4, Absolute, false, ora},
		{"ORA", 0x1D, 4, AbsoluteX, cross, ora},
		{"ORA", 0x19, 4, AbsoluteY, cross, ora},
		{"ORA", 0x01, 6, IndexedIndirect, false, ora},
		{"ORA", 0x11, 5, IndirectIndexed, cross, ora},

		{"EOR", 0x49, 2, Immediate, false, eor},
		{"EOR", 0x45, 3, ZeroPage, false, eor},
		{"EOR", 0x55, 4, ZeroPageX, false, eor},
		{"EOR", 0x4D, 4, Absolute, false, eor},
		{"EOR", 0x5D, 4, AbsoluteX, cross, eor},
		{"EOR", 0x59, 4, AbsoluteY, cross, eor},
		{"EOR", 0x41, 6, IndexedIndirect, false, eor},
		{"EOR", 0x51, 5, IndirectIndexed, cross, eor},

		{"BIT", 0x24, 3, ZeroPage, false, bit},
		{"BIT", 0x2C, 4, Absolute, false, bit},

		// Compare
		{"CMP", 0xC9, 2, Immediate, false, cmp},
		{"CMP", 0xC5, 3, ZeroPage, false, cmp},
		{"CMP", 0xD5, 4, ZeroPageX, false, cmp},
		{"CMP", 0xCD, 4, Absolute, false, cmp},
		{"CMP", 0xDD, 4, AbsoluteX, cross, cmp},
		{"CMP", 0xD9, 4, AbsoluteY, cross, cmp},
		{"CMP", 0xC1, 6, IndexedIndirect, false, cmp},
		{"CMP", 0xD1, 5, IndirectIndexed, cross, cmp},

		{"CPX", 0xE0, 2, Immediate, false, cpx},
		{"CPX", 0xE4, 3, ZeroPage, false, cpx},
		{"CPX", 0xEC, 4, Absolute, false, cpx},

		{"CPY", 0xC0, 2, Immediate, false, cpy},
		{"CPY", 0xC4, 3, ZeroPage, false, cpy},
		{"CPY", 0xCC, 4, Absolute, false, cpy},

		// Shifts and rotates
		{"ASL", 0x0A, 2, Accumulator, false, asl},
		{"ASL", 0x06, 5, ZeroPage, false, asl},
		{"ASL", 0x16, 6, ZeroPageX, false, asl},
		{"ASL", 0x0E, 6, Absolute, false, asl},
		{"ASL", 0x1E, 7, AbsoluteX, false, asl},

		{"LSR", 0x4A, 2, Accumulator, false, lsr},
		{"LSR", 0x46, 5, ZeroPage, false, lsr},
		{"LSR", 0x56, 6, ZeroPageX, false, lsr},
		{"LSR", 0x4E, 6, Absolute, false, lsr},
		{"LSR", 0x5E, 7, AbsoluteX, false, lsr},

		{"ROL", 0x2A, 2, Accumulator, false, rol},
		{"ROL", 0x26, 5, ZeroPage, false, rol},
		{"ROL", 0x36, 6, ZeroPageX, false, rol},
		{"ROL", 0x2E, 6, Absolute, false, rol},
		{"ROL", 0x3E, 7, AbsoluteX, false, rol},

		{"ROR", 0x6A, 2, Accumulator, false, ror},
		{"ROR", 0x66, 5, ZeroPage, false, ror},
		{"ROR", 0x76, 6, ZeroPageX, false, ror},
		{"ROR", 0x6E, 6, Absolute, false, ror},
		{"ROR", 0x7E, 7, AbsoluteX, false, ror},

		// Increments and decrements
		{"INC", 0xE6, 5, ZeroPage, false, inc},
		{"INC", 0xF6, 6, ZeroPageX, false, inc},
		{"INC", 0xEE, 6, Absolute, false, inc},
		{"INC", 0xFE, 7, AbsoluteX, false, inc},

		{"DEC", 0xC6, 5, ZeroPage, false, dec},
		{"DEC", 0xD6, 6, ZeroPageX, false, dec},
		{"DEC", 0xCE, 6, Absolute, false, dec},
		{"DEC", 0xDE, 7, AbsoluteX, false, dec},

		{"INX", 0xE8, 2, Implied, false, inx},
		{"INY", 0xC8, 2, Implied, false, iny},
		{"DEX", 0xCA, 2, Implied, false, dex},
		{"DEY", 0x88, 2, Implied, false, dey},

		// Transfers
		{"TAX", 0xAA, 2, Implied, false, tax},
		{"TAY", 0xA8, 2, Implied, false, tay},
		{"TXA", 0x8A, 2, Implied, false, txa},
		{"TYA", 0x98, 2, Implied, false, tya},
		{"TSX", 0xBA, 2, Implied, false, tsx},
		{"TXS", 0x9A, 2, Implied, false, txs},

		// Stack
		{"PHA", 0x48, 3, Implied, false, pha},
		{"PHP", 0x08, 3, Implied, false, php},
		{"PLA", 0x68, 4, Implied, false, pla},
		{"PLP", 0x28, 4, Implied, false, plp},

		// Flags
		{"CLC", 0x18, 2, Implied, false, flag(FlagCarry, false)},
		{"SEC", 0x38, 2, Implied, false, flag(FlagCarry, true)},
		{"CLI", 0x58, 2, Implied, false, flag(FlagInterrupt, false)},
		{"SEI", 0x78, 2, Implied, false, flag(FlagInterrupt, true)},
		{"CLV", 0xB8, 2, Implied, false, flag(FlagOverflow, false)},
		{"CLD", 0xD8, 2, Implied, false, flag(FlagDecimal, false)},
		{"SED", 0xF8, 2, Implied, false, flag(FlagDecimal, true)},

		// Branches
		{"BPL", 0x10, 2, Relative, false, branch(FlagNegative, false)},
		{"BMI", 0x30, 2, Relative, false, branch(FlagNegative, true)},
		{"BVC", 0x50, 2, Relative, false, branch(FlagOverflow, false)},
		{"BVS", 0x70, 2, Relative, false, branch(FlagOverflow, true)},
		{"BCC", 0x90, 2, Relative, false, branch(FlagCarry, false)},
		{"BCS", 0xB0, 2, Relative, false, branch(FlagCarry, true)},
		{"BNE", 0xD0, 2, Relative, false, branch(FlagZero, false)},
		{"BEQ", 0xF0, 2, Relative, false, branch(FlagZero, true)},

		// Jumps and interrupts
		{"JMP", 0x4C, 3, Absolute, false, jmp},
		{"JMP", 0x6C, 5, Indirect, false, jmp},
		{"JSR", 0x20, 6, Absolute, false, jsr},
		{"RTS", 0x60, 6, Implied, false, rts},
		{"RTI", 0x40, 6, Implied, false, rti},
		{"BRK", 0x00, 7, Implied, false, brk},
		{"NOP", 0xEA, 2, Implied, false, nop},
	}

	for _, e := range table {
		if instructions[e.opcode].execute != nil {
			panic("cpu: opcode registered twice: " + e.name)
		}
		instructions[e.opcode] = Instruction{
			Name:        e.name,
			Opcode:      e.opcode,
			Cycles:      e.cycles,
			Mode:        e.mode,
			PagePenalty: e.penalty,
			execute:     e.execute,
		}
	}
}

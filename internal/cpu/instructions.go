package cpu

// Instruction operations. Each returns the extra cycles it consumed beyond
// the table cost (only branches do).

// Load operations
func lda(cpu *CPU, op operand) uint8 {
	cpu.A = cpu.read(op)
	cpu.setZN(cpu.A)
	return 0
}

func ldx(cpu *CPU, op operand) uint8 {
	cpu.X = cpu.read(op)
	cpu.setZN(cpu.X)
	return 0
}

func ldy(cpu *CPU, op operand) uint8 {
	cpu.Y = cpu.read(op)
	cpu.setZN(cpu.Y)
	return 0
}

// Store operations
func sta(cpu *CPU, op operand) uint8 {
	cpu.write(op, cpu.A)
	return 0
}

func stx(cpu *CPU, op operand) uint8 {
	cpu.write(op, cpu.X)
	return 0
}

func sty(cpu *CPU, op operand) uint8 {
	cpu.write(op, cpu.Y)
	return 0
}

// Arithmetic operations
func (cpu *CPU) add(value uint8) {
	var carry uint16
	if cpu.P.Has(FlagCarry) {
		carry = 1
	}
	sum := uint16(cpu.A) + uint16(value) + carry
	result := uint8(sum)

	cpu.P = cpu.P.
		With(FlagCarry, sum > 0xFF).
		With(FlagOverflow, (result^cpu.A)&(result^value)&0x80 != 0)
	cpu.A = result
	cpu.setZN(cpu.A)
}

func adc(cpu *CPU, op operand) uint8 {
	cpu.add(cpu.read(op))
	return 0
}

// sbc is adc of the one's complement: carry clear means a borrow occurred.
func sbc(cpu *CPU, op operand) uint8 {
	cpu.add(^cpu.read(op))
	return 0
}

// Logical operations
func and(cpu *CPU, op operand) uint8 {
	cpu.A &= cpu.read(op)
	cpu.setZN(cpu.A)
	return 0
}

func ora(cpu *CPU, op operand) uint8 {
	cpu.A |= cpu.read(op)
	cpu.setZN(cpu.A)
	return 0
}

func eor(cpu *CPU, op operand) uint8 {
	cpu.A ^= cpu.read(op)
	cpu.setZN(cpu.A)
	return 0
}

func bit(cpu *CPU, op operand) uint8 {
	value := cpu.read(op)
	cpu.P = cpu.P.
		With(FlagZero, cpu.A&value == 0).
		With(FlagOverflow, value&0x40 != 0).
		With(FlagNegative, value&0x80 != 0)
	return 0
}

// Shift and rotate operations. modify reads the operand, applies fn and
// writes the result back to memory or A.
func (cpu *CPU) modify(op operand, fn func(value uint8) uint8) {
	result := fn(cpu.read(op))
	cpu.write(op, result)
	cpu.setZN(result)
}

func asl(cpu *CPU, op operand) uint8 {
	cpu.modify(op, func(value uint8) uint8 {
		cpu.P = cpu.P.With(FlagCarry, value&0x80 != 0)
		return value << 1
	})
	return 0
}

func lsr(cpu *CPU, op operand) uint8 {
	cpu.modify(op, func(value uint8) uint8 {
		cpu.P = cpu.P.With(FlagCarry, value&0x01 != 0)
		return value >> 1
	})
	return 0
}

func rol(cpu *CPU, op operand) uint8 {
	cpu.modify(op, func(value uint8) uint8 {
		carry := uint8(cpu.P & FlagCarry)
		cpu.P = cpu.P.With(FlagCarry, value&0x80 != 0)
		return value<<1 | carry
	})
	return 0
}

func ror(cpu *CPU, op operand) uint8 {
	cpu.modify(op, func(value uint8) uint8 {
		carry := uint8(cpu.P&FlagCarry) << 7
		cpu.P = cpu.P.With(FlagCarry, value&0x01 != 0)
		return value>>1 | carry
	})
	return 0
}

// Increment and decrement
func inc(cpu *CPU, op operand) uint8 {
	cpu.modify(op, func(value uint8) uint8 { return value + 1 })
	return 0
}

func dec(cpu *CPU, op operand) uint8 {
	cpu.modify(op, func(value uint8) uint8 { return value - 1 })
	return 0
}

func inx(cpu *CPU, _ operand) uint8 {
	cpu.X++
	cpu.setZN(cpu.X)
	return 0
}

func iny(cpu *CPU, _ operand) uint8 {
	cpu.Y++
	cpu.setZN(cpu.Y)
	return 0
}

func dex(cpu *CPU, _ operand) uint8 {
	cpu.X--
	cpu.setZN(cpu.X)
	return 0
}

func dey(cpu *CPU, _ operand) uint8 {
	cpu.Y--
	cpu.setZN(cpu.Y)
	return 0
}

// Comparison operations
func (cpu *CPU) compare(register, value uint8) {
	cpu.P = cpu.P.With(FlagCarry, register >= value)
	cpu.setZN(register - value)
}

func cmp(cpu *CPU, op operand) uint8 {
	cpu.compare(cpu.A, cpu.read(op))
	return 0
}

func cpx(cpu *CPU, op operand) uint8 {
	cpu.compare(cpu.X, cpu.read(op))
	return 0
}

func cpy(cpu *CPU, op operand) uint8 {
	cpu.compare(cpu.Y, cpu.read(op))
	return 0
}

// Transfer operations
func tax(cpu *CPU, _ operand) uint8 {
	cpu.X = cpu.A
	cpu.setZN(cpu.X)
	return 0
}

func tay(cpu *CPU, _ operand) uint8 {
	cpu.Y = cpu.A
	cpu.setZN(cpu.Y)
	return 0
}

func txa(cpu *CPU, _ operand) uint8 {
	cpu.A = cpu.X
	cpu.setZN(cpu.A)
	return 0
}

func tya(cpu *CPU, _ operand) uint8 {
	cpu.A = cpu.Y
	cpu.setZN(cpu.A)
	return 0
}

func tsx(cpu *CPU, _ operand) uint8 {
	cpu.X = cpu.SP
	cpu.setZN(cpu.X)
	return 0
}

// txs does not touch the flags.
func txs(cpu *CPU, _ operand) uint8 {
	cpu.SP = cpu.X
	return 0
}

// Stack operations
func pha(cpu *CPU, _ operand) uint8 {
	cpu.push(cpu.A)
	return 0
}

func php(cpu *CPU, _ operand) uint8 {
	cpu.push(cpu.P.pushed(true))
	return 0
}

func pla(cpu *CPU, _ operand) uint8 {
	cpu.A = cpu.pop()
	cpu.setZN(cpu.A)
	return 0
}

func plp(cpu *CPU, _ operand) uint8 {
	cpu.P = pulled(cpu.pop())
	return 0
}

// Flag operations
func flag(f Status, on bool) func(*CPU, operand) uint8 {
	return func(cpu *CPU, _ operand) uint8 {
		cpu.P = cpu.P.With(f, on)
		return 0
	}
}

// Jumps and subroutines
func jmp(cpu *CPU, op operand) uint8 {
	cpu.PC = op.address
	return 0
}

// jsr pushes the address of its own last byte; rts adds one back.
func jsr(cpu *CPU, op operand) uint8 {
	cpu.pushWord(cpu.PC - 1)
	cpu.PC = op.address
	return 0
}

func rts(cpu *CPU, _ operand) uint8 {
	cpu.PC = cpu.popWord() + 1
	return 0
}

func rti(cpu *CPU, _ operand) uint8 {
	cpu.P = pulled(cpu.pop())
	cpu.PC = cpu.popWord()
	return 0
}

// brk skips the padding byte after the opcode before entering the
// interrupt sequence through the IRQ vector.
func brk(cpu *CPU, _ operand) uint8 {
	cpu.PC++
	cpu.interrupt(irqVector, true)
	return 0
}

func nop(*CPU, operand) uint8 {
	return 0
}

// Branches cost one extra cycle when taken and another when the target is
// on a different page.
func branch(f Status, set bool) func(*CPU, operand) uint8 {
	return func(cpu *CPU, op operand) uint8 {
		if cpu.P.Has(f) != set {
			return 0
		}
		cpu.PC = op.address
		if op.crossed {
			return 2
		}
		return 1
	}
}

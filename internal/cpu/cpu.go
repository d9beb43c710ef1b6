// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	stackBase    = 0x0100
	zeroPageMask = 0x00FF
	pageMask     = 0xFF00

	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	interruptCycles = 7
)

// ErrBadJumpVector is raised when an interrupt vector reads as $FFFF,
// meaning nothing is mapped behind it.
var ErrBadJumpVector = errors.New("jump vector reads $FFFF")

// OpcodeError describes a fetched byte with no registered instruction.
type OpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode $%02X at $%04X", e.Opcode, e.PC)
}

// MemoryInterface is the bus the CPU executes against.
type MemoryInterface interface {
	Read(address uint16) uint8
	ReadWord(address uint16) uint16
	Write(address uint16, value uint8)
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter
	P  Status // Processor status

	bus MemoryInterface

	// Cycles executed since power-on
	cycles uint64
	// Cycles left before the next fetch
	sleep uint64

	// Interrupt latches, checked before each fetch
	nmi bool
	irq bool

	strict     bool
	entryPoint uint16
	hasEntry   bool

	lastFault *OpcodeError
	faults    uint64

	// Last dispatched instruction
	lastPC     uint16
	lastOpcode uint8

	log *slog.Logger
}

// Option configures a CPU.
type Option func(*CPU)

// WithStrict makes unsupported opcodes fail Step instead of executing as NOP.
func WithStrict(strict bool) Option {
	return func(cpu *CPU) {
		cpu.strict = strict
	}
}

// WithEntryPoint starts execution at address instead of the reset vector.
func WithEntryPoint(address uint16) Option {
	return func(cpu *CPU) {
		cpu.entryPoint = address
		cpu.hasEntry = true
	}
}

// WithLogger sets the logger for opcode faults.
func WithLogger(logger *slog.Logger) Option {
	return func(cpu *CPU) {
		cpu.log = logger
	}
}

// New creates a new CPU instance. Reset must be called before stepping.
func New(bus MemoryInterface, opts ...Option) *CPU {
	cpu := &CPU{
		bus: bus,
		SP:  0xFD,
		P:   FlagInterrupt | FlagUnused,
	}
	for _, opt := range opts {
		opt(cpu)
	}
	if cpu.log == nil {
		cpu.log = slog.Default()
	}
	return cpu
}

// Strict reports the configured opcode policy.
func (cpu *CPU) Strict() bool {
	return cpu.strict
}

// Reset runs the reset sequence. A hard reset restores the power-on
// register state; a soft reset only decrements SP by three and sets I, as
// the hardware does when the reset line is pulled. Either way nothing is
// pushed and the next fetch happens after the seven-cycle sequence.
func (cpu *CPU) Reset(hard bool) {
	if hard {
		cpu.A, cpu.X, cpu.Y = 0, 0, 0
		cpu.SP = 0xFD
		cpu.P = FlagInterrupt | FlagUnused
		cpu.cycles = 0
		cpu.lastFault = nil
		cpu.faults = 0
	} else {
		cpu.SP -= 3
		cpu.P |= FlagInterrupt
	}
	cpu.nmi = false
	cpu.irq = false

	if cpu.hasEntry {
		cpu.PC = cpu.entryPoint
	} else {
		cpu.PC = cpu.vector(resetVector)
	}
	cpu.sleep = interruptCycles
}

// vector reads an interrupt vector. A vector of $FFFF means the mapper
// left the range unmapped, which cannot be recovered from.
func (cpu *CPU) vector(address uint16) uint16 {
	target := cpu.bus.ReadWord(address)
	if target == 0xFFFF {
		panic(fmt.Errorf("%w: vector $%04X", ErrBadJumpVector, address))
	}
	return target
}

// Step advances the CPU by one cycle. Instructions execute in full on the
// cycle they are fetched; the remaining cycles are spent sleeping. Step
// returns false only when strict mode hits an unsupported opcode.
func (cpu *CPU) Step() bool {
	defer func() { cpu.cycles++ }()

	if cpu.sleep > 0 {
		cpu.sleep--
		return true
	}

	switch {
	case cpu.nmi:
		cpu.nmi = false
		cpu.interrupt(nmiVector, false)
		cpu.sleep = interruptCycles - 1
		return true
	case cpu.irq && !cpu.P.Has(FlagInterrupt):
		cpu.interrupt(irqVector, false)
		cpu.sleep = interruptCycles - 1
		return true
	}

	cpu.lastPC = cpu.PC
	cpu.lastOpcode = cpu.fetch()
	inst := &instructions[cpu.lastOpcode]

	if inst.execute == nil {
		return cpu.unsupported()
	}

	op := cpu.resolve(inst.Mode)
	extra := inst.execute(cpu, op)
	if inst.PagePenalty && op.crossed {
		extra++
	}
	// Added rather than assigned: a $4014 write during execute has already
	// stalled the CPU.
	cpu.sleep += uint64(inst.Cycles) + uint64(extra) - 1
	return true
}

func (cpu *CPU) unsupported() bool {
	cpu.lastFault = &OpcodeError{Opcode: cpu.lastOpcode, PC: cpu.lastPC}
	cpu.faults++

	if cpu.strict {
		cpu.log.Error("unsupported opcode", "opcode", cpu.lastOpcode, "pc", cpu.lastPC)
		cpu.PC = cpu.lastPC
		return false
	}

	cpu.log.Warn("unsupported opcode, executing as NOP", "opcode", cpu.lastOpcode, "pc", cpu.lastPC)
	cpu.sleep = 1
	return true
}

// interrupt pushes PC and status and jumps through the vector. BRK shares
// the IRQ vector and pushes Break set. Cycle accounting is left to the
// caller.
func (cpu *CPU) interrupt(vector uint16, brk bool) {
	cpu.pushWord(cpu.PC)
	cpu.push(cpu.P.pushed(brk))
	cpu.P |= FlagInterrupt
	cpu.PC = cpu.vector(vector)
}

// SetNMI latches a non-maskable interrupt. The latch clears when serviced.
func (cpu *CPU) SetNMI(pending bool) {
	cpu.nmi = pending
}

// SetIRQ drives the IRQ line. It stays asserted until the source
// acknowledges it.
func (cpu *CPU) SetIRQ(asserted bool) {
	cpu.irq = asserted
}

// Stall suspends the CPU for n cycles, as OAM DMA does.
func (cpu *CPU) Stall(n uint64) {
	cpu.sleep += n
}

// Ready reports whether the next Step will service an interrupt or fetch
// an instruction.
func (cpu *CPU) Ready() bool {
	return cpu.sleep == 0
}

// Cycles returns the number of cycles stepped since the last hard reset.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// LastFault returns the most recent unsupported opcode, or nil.
func (cpu *CPU) LastFault() *OpcodeError {
	return cpu.lastFault
}

// Stack operations
func (cpu *CPU) push(value uint8) {
	cpu.bus.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.bus.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return high<<8 | low
}

// setZN sets Zero and Negative from value.
func (cpu *CPU) setZN(value uint8) {
	cpu.P = cpu.P.With(FlagZero, value == 0).With(FlagNegative, value&0x80 != 0)
}

// Snapshot is a read-only copy of the CPU state.
type Snapshot struct {
	A, X, Y, SP uint8
	PC          uint16
	P           Status
	Cycles      uint64
	Sleep       uint64
	NMI, IRQ    bool
	Strict      bool
	Faults      uint64

	// Last dispatched instruction
	LastPC     uint16
	LastOpcode uint8
}

// Snapshot returns the current register state.
func (cpu *CPU) Snapshot() Snapshot {
	return Snapshot{
		A:          cpu.A,
		X:          cpu.X,
		Y:          cpu.Y,
		SP:         cpu.SP,
		PC:         cpu.PC,
		P:          cpu.P,
		Cycles:     cpu.cycles,
		Sleep:      cpu.sleep,
		NMI:        cpu.nmi,
		IRQ:        cpu.irq,
		Strict:     cpu.strict,
		Faults:     cpu.faults,
		LastPC:     cpu.lastPC,
		LastOpcode: cpu.lastOpcode,
	}
}

// LogValue implements slog.LogValuer.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("pc", fmt.Sprintf("%04X", s.PC)),
		slog.String("a", fmt.Sprintf("%02X", s.A)),
		slog.String("x", fmt.Sprintf("%02X", s.X)),
		slog.String("y", fmt.Sprintf("%02X", s.Y)),
		slog.String("sp", fmt.Sprintf("%02X", s.SP)),
		slog.String("p", s.P.String()),
		slog.Uint64("cycles", s.Cycles),
	)
}

// Package nes wires the processor, video core, buses and cartridge into a
// console and drives them from a single system clock.
package nes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/AndrewNeo/nessharp/internal/cartridge"
	"github.com/AndrewNeo/nessharp/internal/cpu"
	"github.com/AndrewNeo/nessharp/internal/input"
	"github.com/AndrewNeo/nessharp/internal/memory"
	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// DotsPerCPUCycle is the fixed NTSC PPU:CPU clock ratio.
const DotsPerCPUCycle = 3

// ctxCheckInterval is how many CPU cycles Run executes between context checks.
const ctxCheckInterval = 1024

var (
	ErrNoCartridge = errors.New("no cartridge loaded")
	// ErrHalted is returned when the CPU refuses an opcode under strict mode.
	ErrHalted = errors.New("cpu halted")
)

// State is a read-only view of the console taken on an instruction
// boundary, used for trace lines.
type State struct {
	CPU         cpu.Snapshot
	PPU         ppu.Snapshot
	Instruction [3]uint8 // opcode and the two bytes after it
}

// Tracer receives the console state before every instruction.
type Tracer interface {
	Trace(State)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(State)

func (f TracerFunc) Trace(s State) { f(s) }

// Console connects all NES components together
type Console struct {
	CPU         *cpu.CPU
	PPU         *ppu.PPU
	Memory      *memory.Memory
	VideoMemory *memory.PPUMemory
	Input       *input.InputState
	Cartridge   *cartridge.Cartridge

	mapper  cartridge.Mapper
	tracer  Tracer
	stopped atomic.Bool

	dmaTransfers uint64

	log *slog.Logger
}

type options struct {
	cpu    []cpu.Option
	frames *ppu.FrameHandle
	tracer Tracer
	log    *slog.Logger
}

// Option configures a Console.
type Option func(*options)

// WithLogger sets the logger handed to every component.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithStrictOpcodes halts emulation on unsupported opcodes instead of
// executing them as NOPs.
func WithStrictOpcodes(strict bool) Option {
	return func(o *options) { o.cpu = append(o.cpu, cpu.WithStrict(strict)) }
}

// WithEntryPoint starts execution at address instead of the reset vector.
func WithEntryPoint(address uint16) Option {
	return func(o *options) { o.cpu = append(o.cpu, cpu.WithEntryPoint(address)) }
}

// WithFrameHandle publishes frames to h, shared with a presentation loop.
func WithFrameHandle(h *ppu.FrameHandle) Option {
	return func(o *options) { o.frames = h }
}

// WithTracer calls t before every instruction.
func WithTracer(t Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// New builds a console around cart and performs a hard reset.
func New(cart *cartridge.Cartridge, opts ...Option) (c *Console, err error) {
	if cart == nil {
		return nil, ErrNoCartridge
	}
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	c = &Console{
		Cartridge: cart,
		mapper:    cart.Mapper(),
		tracer:    o.tracer,
		log:       o.log,
	}

	c.VideoMemory = memory.NewPPUMemory(c.mapper)
	c.PPU = ppu.New(c.VideoMemory, ppu.WithLogger(o.log), ppu.WithFrameHandle(o.frames))
	c.Memory = memory.New(c.PPU, c.mapper)
	c.Input = input.NewInputState(o.log)
	c.Memory.SetInputSystem(c.Input)
	c.CPU = cpu.New(c.Memory, append([]cpu.Option{cpu.WithLogger(o.log)}, o.cpu...)...)

	c.PPU.SetNMICallback(func() { c.CPU.SetNMI(true) })
	c.PPU.SetScanlineCallback(c.mapper.OnScanline)
	c.Memory.SetDMACallback(c.oamDMA)

	if err := c.guard(func() error { c.Reset(true); return nil }); err != nil {
		return nil, err
	}
	c.log.Info("console ready", "mapper", c.mapper.Name(), "strict", c.CPU.Strict())
	return c, nil
}

// Reset resets the console. A hard reset also clears RAM, VRAM and the
// controllers; mapper registers survive both kinds.
func (c *Console) Reset(hard bool) {
	if hard {
		c.Memory.Reset()
		c.VideoMemory.Reset()
		c.Input.Reset()
		c.dmaTransfers = 0
	}
	c.PPU.Reset()
	c.CPU.Reset(hard)
	c.stopped.Store(false)
	c.log.Debug("console reset", "hard", hard, "pc", c.CPU.PC)
}

// Step advances the system clock by one CPU cycle: three PPU dots, then
// the CPU. It returns false when the CPU halts on an unsupported opcode.
// Fatal bus faults panic; use StepFrame or Run to get them as errors.
func (c *Console) Step() bool {
	if c.tracer != nil && c.CPU.Ready() {
		c.tracer.Trace(c.State())
	}
	for i := 0; i < DotsPerCPUCycle; i++ {
		c.PPU.Step()
	}
	c.CPU.SetIRQ(c.mapper.IRQ())
	return c.CPU.Step()
}

// StepFrame runs until the PPU publishes its next frame.
func (c *Console) StepFrame() error {
	return c.guard(func() error {
		target := c.PPU.FrameCount() + 1
		for c.PPU.FrameCount() < target {
			if !c.Step() {
				return c.halted()
			}
		}
		return nil
	})
}

// Run steps the console until Stop is called, ctx is done, maxFrames
// frames have been published (0 means no limit) or the CPU halts.
func (c *Console) Run(ctx context.Context, maxFrames uint64) error {
	return c.guard(func() error {
		for n := 0; ; n++ {
			if c.stopped.Load() {
				return nil
			}
			if n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if maxFrames > 0 && c.PPU.FrameCount() >= maxFrames {
				return nil
			}
			if !c.Step() {
				return c.halted()
			}
		}
	})
}

// Stop asks a running Run loop to return at the next step boundary. It is
// safe to call from any goroutine.
func (c *Console) Stop() {
	c.stopped.Store(true)
}

func (c *Console) halted() error {
	return fmt.Errorf("%w: %w", ErrHalted, c.CPU.LastFault())
}

// guard turns the core's fatal faults, an illegal bus access or an
// unusable jump vector, into a returned error. Any other panic is a bug and
// keeps unwinding.
func (c *Console) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(error)
			if !ok || !isCoreFault(fault) {
				panic(r)
			}
			c.log.Error("emulation fault", "err", fault, "cpu", c.CPU.Snapshot())
			err = fmt.Errorf("emulation fault at $%04X: %w", c.CPU.PC, fault)
		}
	}()
	return fn()
}

func isCoreFault(err error) bool {
	var accessErr *memory.AccessError
	return errors.As(err, &accessErr) || errors.Is(err, cpu.ErrBadJumpVector)
}

// oamDMA copies a CPU page into OAM and suspends the CPU for 513 cycles,
// plus one when the transfer starts on an odd cycle.
func (c *Console) oamDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		c.PPU.WriteOAM(c.Memory.Read(base + i))
	}

	stall := uint64(513)
	if c.CPU.Cycles()%2 == 1 {
		stall++
	}
	c.CPU.Stall(stall)
	c.dmaTransfers++
	c.log.Debug("oam dma", "page", page, "stall", stall)
}

// DMATransfers returns the number of OAM DMA transfers since the last hard reset.
func (c *Console) DMATransfers() uint64 {
	return c.dmaTransfers
}

// Frames returns the handle completed frames are published to.
func (c *Console) Frames() *ppu.FrameHandle {
	return c.PPU.Frames()
}

// FrameCount returns the number of frames rendered.
func (c *Console) FrameCount() uint64 {
	return c.PPU.FrameCount()
}

// Peek reads CPU address space without side effects.
func (c *Console) Peek(address uint16) uint8 {
	return c.Memory.Peek(address)
}

// State captures the processor and video state plus the bytes at PC.
func (c *Console) State() State {
	s := State{CPU: c.CPU.Snapshot(), PPU: c.PPU.Snapshot()}
	for i := range s.Instruction {
		s.Instruction[i] = c.Memory.Peek(s.CPU.PC + uint16(i))
	}
	return s
}

// Package ppu implements the Picture Processing Unit for the NES.
package ppu

import (
	"log/slog"
)

// Timing (NTSC)
const (
	DotsPerScanline   = 341
	ScanlinesPerFrame = 262

	postRenderScanline = 240
	vblankScanline     = 241
	preRenderScanline  = 261
	lastDot            = DotsPerScanline - 1

	oamSize       = 256
	spriteSlots   = 8
	noSprite      = 64
	paletteBase   = 0x3F00
	scanlineIRQAt = 260
)

// VideoBus is the PPU-side address space: pattern tables, nametables and
// palette RAM.
type VideoBus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// sprite is one secondary OAM slot after evaluation.
type sprite struct {
	id   uint8 // primary OAM index, noSprite when unused
	y    uint8
	tile uint8
	attr uint8
	x    uint8
	low  uint8
	high uint8
}

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// CPU-visible registers
	ctrl    Control
	mask    Mask
	status  Status
	oamAddr uint8

	// Internal registers
	v     Address // current VRAM address
	t     Address // temporary VRAM address
	fineX uint8
	w     bool  // first/second write toggle for $2005/$2006
	bus   uint8 // last value driven on the register port
	data  uint8 // $2007 read buffer

	memory VideoBus

	// Rendering state
	scanline int
	dot      int
	odd      bool
	frames   uint64

	// Background fetch latches and shifters
	fetchAddr   uint16
	tile        uint8
	attribute   uint8
	patternLow  uint8
	patternHigh uint8
	bgShiftLow  uint16
	bgShiftHigh uint16
	atShiftLow  uint8
	atShiftHigh uint8
	atLatchLow  uint8
	atLatchHigh uint8

	// Sprites
	oam       [oamSize]uint8
	secondary [spriteSlots]sprite
	active    [spriteSlots]sprite

	// Frame output
	back   *Frame
	handle *FrameHandle

	// Callbacks
	nmiCallback      func()
	scanlineCallback func()

	log *slog.Logger
}

// Option configures a PPU.
type Option func(*PPU)

// WithLogger sets the logger used by the PPU.
func WithLogger(log *slog.Logger) Option {
	return func(p *PPU) {
		if log != nil {
			p.log = log
		}
	}
}

// WithFrameHandle publishes completed frames to h instead of a private handle.
func WithFrameHandle(h *FrameHandle) Option {
	return func(p *PPU) {
		if h != nil {
			p.handle = h
		}
	}
}

// New creates a new PPU reading video memory through bus.
func New(bus VideoBus, opts ...Option) *PPU {
	p := &PPU{
		memory: bus,
		back:   &Frame{},
		handle: NewFrameHandle(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Reset clears the registers and the frame parity. OAM and the frame
// counter survive.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.v, p.t = 0, 0
	p.fineX = 0
	p.w = false
	p.bus = 0
	p.data = 0

	p.scanline = 0
	p.dot = 0
	p.odd = false

	p.bgShiftLow, p.bgShiftHigh = 0, 0
	p.atShiftLow, p.atShiftHigh = 0, 0
	p.atLatchLow, p.atLatchHigh = 0, 0
	p.clearSecondary()
	p.active = p.secondary

	p.log.Debug("ppu reset")
}

// SetMemory swaps the video bus.
func (p *PPU) SetMemory(bus VideoBus) {
	p.memory = bus
}

// SetNMICallback sets the function called when vblank raises NMI.
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// SetScanlineCallback sets the function called once per rendered scanline,
// used by mappers with scanline counters.
func (p *PPU) SetScanlineCallback(callback func()) {
	p.scanlineCallback = callback
}

// Frames returns the handle completed frames are published to.
func (p *PPU) Frames() *FrameHandle {
	return p.handle
}

// FrameCount returns the number of frames published since power-on.
func (p *PPU) FrameCount() uint64 {
	return p.frames
}

// Scanline returns the current scanline (0-261).
func (p *PPU) Scanline() int { return p.scanline }

// Dot returns the current dot within the scanline (0-340).
func (p *PPU) Dot() int { return p.dot }

// Rendering reports whether background or sprite rendering is enabled.
func (p *PPU) Rendering() bool { return p.mask.Rendering() }

// WriteOAM stores one byte through the OAM data port. Used by OAM DMA.
func (p *PPU) WriteOAM(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

// OAM returns a copy of primary object attribute memory.
func (p *PPU) OAM() [oamSize]uint8 {
	return p.oam
}

func (p *PPU) raiseNMI() {
	if p.nmiCallback != nil {
		p.nmiCallback()
	}
}

// ReadRegister handles a CPU read from $2000-$3FFF. Write-only ports return
// the last value driven on the port.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 0x07 {
	case 2: // PPUSTATUS
		p.bus = p.bus&0x1F | uint8(p.status)
		p.status.set(StatusVBlank, false)
		p.w = false
	case 4: // OAMDATA
		p.bus = p.oam[p.oamAddr]
	case 7: // PPUDATA
		address := p.v.VRAM()
		if address < paletteBase {
			p.bus = p.data
			p.data = p.memory.Read(address)
		} else {
			p.bus = p.memory.Read(address)
			p.data = p.memory.Read(address - 0x1000)
		}
		p.v.increment(p.ctrl.Increment())
	}
	return p.bus
}

// WriteRegister handles a CPU write to $2000-$3FFF.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.bus = value
	switch address & 0x07 {
	case 0: // PPUCTRL
		was := p.ctrl.NMIEnabled()
		p.ctrl = Control(value)
		p.t.setNametable(p.ctrl.Nametable())
		if !was && p.ctrl.NMIEnabled() && p.status.Has(StatusVBlank) {
			p.raiseNMI()
		}
	case 1: // PPUMASK
		p.mask = Mask(value)
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.WriteOAM(value)
	case 5: // PPUSCROLL
		if !p.w {
			p.fineX = value & 0x07
			p.t.setCoarseX(value >> 3)
		} else {
			p.t.setFineY(value & 0x07)
			p.t.setCoarseY(value >> 3)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = p.t&0x00FF | Address(value&0x3F)<<8
		} else {
			p.t = p.t&0x7F00 | Address(value)
			p.v = p.t
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.memory.Write(p.v.VRAM(), value)
		p.v.increment(p.ctrl.Increment())
	}
}

// Snapshot is a read-only view of PPU state for tracing and debugging.
type Snapshot struct {
	Scanline int
	Dot      int
	Frame    uint64
	Control  Control
	Mask     Mask
	Status   Status
	OAMAddr  uint8
	V        Address
	T        Address
	FineX    uint8
	Latch    bool
}

// Snapshot captures the current PPU state.
func (p *PPU) Snapshot() Snapshot {
	return Snapshot{
		Scanline: p.scanline,
		Dot:      p.dot,
		Frame:    p.frames,
		Control:  p.ctrl,
		Mask:     p.mask,
		Status:   p.status,
		OAMAddr:  p.oamAddr,
		V:        p.v,
		T:        p.t,
		FineX:    p.fineX,
		Latch:    p.w,
	}
}

// LogValue implements slog.LogValuer.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("scanline", s.Scanline),
		slog.Int("dot", s.Dot),
		slog.Uint64("frame", s.Frame),
		slog.Any("ctrl", uint8(s.Control)),
		slog.Any("mask", uint8(s.Mask)),
		slog.Any("status", uint8(s.Status)),
		slog.Any("v", uint16(s.V)),
		slog.Any("t", uint16(s.T)),
	)
}

// Package memory implements the CPU and PPU address decoders of the NES.
package memory

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreen0:
		return "single-screen lower"
	case MirrorSingleScreen1:
		return "single-screen upper"
	case MirrorFourScreen:
		return "four-screen"
	default:
		return "unknown"
	}
}

// Region names the owner of a decoded address.
type Region uint8

const (
	RegionOpenBus Region = iota
	RegionMapper
	RegionBidirectionalIO
	RegionWorkingRAM
	RegionPPURegisters
	RegionIORegisters
	RegionVRAM
	RegionPalette
)

// Cartridge is the view of a mapper the decoders need. Each side checks the
// declared range before any fixed region.
type Cartridge interface {
	CPURange() (start, end uint16)
	PPURange() (start, end uint16)
	CPURead(address uint16) uint8
	CPUWrite(address uint16, value uint8)
	PPURead(address uint16) uint8
	PPUWrite(address uint16, value uint8)
	Mirroring() MirrorMode
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// InputInterface defines the interface for input system access
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

const (
	ramSize        = 0x800
	oamDMARegister = 0x4014
	joypad1        = 0x4016
	joypad2        = 0x4017
)

// Memory is the CPU-side address decoder.
type Memory struct {
	// $0000-$0001
	bidirectionalIO [2]uint8
	// Internal RAM (2KB, mirrored to 8KB)
	ram [ramSize]uint8

	ppuRegisters PPUInterface
	cartridge    Cartridge
	inputSystem  InputInterface
	dmaCallback  func(uint8)

	// Open bus - last value driven on the data bus
	openBus [1]uint8
}

// New creates a CPU decoder over the given PPU ports and cartridge. Either
// may be nil, in which case its range reads as open bus.
func New(ppu PPUInterface, cart Cartridge) *Memory {
	m := &Memory{
		ppuRegisters: ppu,
		cartridge:    cart,
	}
	m.Reset()
	return m
}

// Reset fills RAM with the $FF power-on pattern.
func (m *Memory) Reset() {
	for i := range m.ram {
		m.ram[i] = 0xFF
	}
	m.bidirectionalIO = [2]uint8{0xFF, 0xFF}
	m.openBus[0] = 0
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback sets the handler for writes to the OAM DMA register.
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// SetCartridge swaps the cartridge seen by the decoder.
func (m *Memory) SetCartridge(cart Cartridge) {
	m.cartridge = cart
}

func (m *Memory) inCartridge(address uint16) bool {
	if m.cartridge == nil {
		return false
	}
	start, end := m.cartridge.CPURange()
	return address >= start && address <= end
}

// Decode selects the region owning address. The window is meaningful for
// memory-backed regions and for open bus; mapper and register regions are
// dispatched by Read and Write.
func (m *Memory) Decode(address uint16) (Region, Window) {
	switch {
	case m.inCartridge(address):
		return RegionMapper, Window{}
	case address <= 0x0001:
		return RegionBidirectionalIO, NewWindow(m.bidirectionalIO[:], 0, true)
	case address < 0x2000:
		return RegionWorkingRAM, NewWindow(m.ram[:], 0, true).Repeat(ramSize)
	case address < 0x4000:
		if m.ppuRegisters == nil {
			return RegionOpenBus, NewWindow(m.openBus[:], address, false)
		}
		return RegionPPURegisters, Window{}
	case address == oamDMARegister, address == joypad1, address == joypad2:
		return RegionIORegisters, Window{}
	default:
		// APU registers, test mode space and unmapped cartridge space
		return RegionOpenBus, NewWindow(m.openBus[:], address, false)
	}
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	region, window := m.Decode(address)
	switch region {
	case RegionMapper:
		value = m.cartridge.CPURead(address)
	case RegionPPURegisters:
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))
	case RegionIORegisters:
		value = m.readIO(address)
	default:
		value = window.Read(address)
	}

	m.openBus[0] = value
	return value
}

func (m *Memory) readIO(address uint16) uint8 {
	if address == oamDMARegister || m.inputSystem == nil {
		return m.openBus[0]
	}
	// Only the low bits are driven by the controller; the rest float.
	return m.inputSystem.Read(address)&0x1F | m.openBus[0]&0xE0
}

// ReadWord reads a little-endian word. Register ports have no 16-bit
// access and escalate.
func (m *Memory) ReadWord(address uint16) uint16 {
	region, window := m.Decode(address)
	switch region {
	case RegionPPURegisters, RegionIORegisters:
		fault(BusCPU, address, ErrRegisterWordRead)
	case RegionMapper:
		low := uint16(m.cartridge.CPURead(address))
		high := uint16(m.Read(address + 1))
		return high<<8 | low
	case RegionWorkingRAM, RegionBidirectionalIO:
		if next, _ := m.Decode(address + 1); next == region {
			return window.ReadWord(address)
		}
	}
	low := uint16(m.Read(address))
	high := uint16(m.Read(address + 1))
	return high<<8 | low
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	m.openBus[0] = value

	region, window := m.Decode(address)
	switch region {
	case RegionMapper:
		m.cartridge.CPUWrite(address, value)
	case RegionPPURegisters:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)
	case RegionIORegisters:
		m.writeIO(address, value)
	default:
		window.Write(address, value)
	}
}

func (m *Memory) writeIO(address uint16, value uint8) {
	switch address {
	case oamDMARegister:
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		}
	case joypad1:
		if m.inputSystem != nil {
			m.inputSystem.Write(address, value)
		}
	}
	// $4017 writes belong to the APU frame counter and are dropped.
}

// Peek reads without side effects: register ports return the latched open
// bus value and the latch is left untouched.
func (m *Memory) Peek(address uint16) uint8 {
	region, window := m.Decode(address)
	switch region {
	case RegionMapper:
		return m.cartridge.CPURead(address)
	case RegionPPURegisters, RegionIORegisters:
		return m.openBus[0]
	default:
		return window.Read(address)
	}
}

// OpenBus returns the value last driven on the data bus.
func (m *Memory) OpenBus() uint8 {
	return m.openBus[0]
}

package memory

const (
	nametableSize = 0x400
	paletteSize   = 0x20
)

// PPUMemory is the PPU-side address decoder. It owns nametable VRAM and
// palette RAM and forwards the cartridge range to the mapper.
type PPUMemory struct {
	vram       [4 * nametableSize]uint8 // 2KB on the board, 4KB for four-screen carts
	paletteRAM [paletteSize]uint8
	cartridge  Cartridge

	// Open bus - last value latched by a read
	openBus [1]uint8
}

// NewPPUMemory creates a new PPU memory instance
func NewPPUMemory(cart Cartridge) *PPUMemory {
	pm := &PPUMemory{cartridge: cart}
	pm.Reset()
	return pm
}

// Reset clears VRAM and palette RAM.
func (pm *PPUMemory) Reset() {
	pm.vram = [4 * nametableSize]uint8{}
	pm.paletteRAM = [paletteSize]uint8{}
	pm.openBus[0] = 0
}

// SetCartridge swaps the cartridge seen by the decoder.
func (pm *PPUMemory) SetCartridge(cart Cartridge) {
	pm.cartridge = cart
}

// Mirroring reports the mirroring currently selected by the cartridge.
func (pm *PPUMemory) Mirroring() MirrorMode {
	if pm.cartridge == nil {
		return MirrorHorizontal
	}
	return pm.cartridge.Mirroring()
}

func (pm *PPUMemory) inCartridge(address uint16) bool {
	if pm.cartridge == nil {
		return false
	}
	start, end := pm.cartridge.PPURange()
	return address >= start && address <= end
}

// Decode selects the region owning address. Addresses above $3FFF are
// outside the 14-bit PPU space and escalate.
func (pm *PPUMemory) Decode(address uint16) (Region, Window) {
	switch {
	case address > 0x3FFF:
		fault(BusPPU, address, ErrUnmapped)
	case pm.inCartridge(address):
		return RegionMapper, Window{}
	case address < 0x2000:
		// No cartridge pattern tables
		return RegionOpenBus, NewWindow(pm.openBus[:], address, false)
	case address < 0x3F00:
		page := pm.nametablePage(address)
		return RegionVRAM, NewWindow(pm.vram[page*nametableSize:(page+1)*nametableSize], 0, true).Repeat(nametableSize)
	}
	return RegionPalette, NewWindow(pm.paletteRAM[:], 0, true).Repeat(paletteSize)
}

// nametablePage maps one of the four logical nametables onto a physical
// 1KB page according to the cartridge mirroring.
func (pm *PPUMemory) nametablePage(address uint16) int {
	nametable := int(address>>10) & 3

	switch pm.Mirroring() {
	case MirrorHorizontal:
		// $2000/$2400 share page 0, $2800/$2C00 share page 1
		return nametable >> 1
	case MirrorVertical:
		// $2000/$2800 share page 0, $2400/$2C00 share page 1
		return nametable & 1
	case MirrorSingleScreen0:
		return 0
	case MirrorSingleScreen1:
		return 1
	case MirrorFourScreen:
		return nametable
	default:
		return 0
	}
}

// paletteAddress folds the sprite backdrop entries onto the background ones.
func paletteAddress(address uint16) uint16 {
	index := address & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	var value uint8

	region, window := pm.Decode(address)
	switch region {
	case RegionMapper:
		value = pm.cartridge.PPURead(address)
	case RegionPalette:
		value = window.Read(paletteAddress(address))
	default:
		value = window.Read(address)
	}

	pm.openBus[0] = value
	return value
}

// ReadWord reads a little-endian word from PPU memory.
func (pm *PPUMemory) ReadWord(address uint16) uint16 {
	low := uint16(pm.Read(address))
	high := uint16(pm.Read(address + 1))
	return high<<8 | low
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	region, window := pm.Decode(address)
	switch region {
	case RegionMapper:
		pm.cartridge.PPUWrite(address, value)
	case RegionPalette:
		window.Write(paletteAddress(address), value)
	default:
		window.Write(address, value)
	}
}

// Palette returns a copy of palette RAM.
func (pm *PPUMemory) Palette() [paletteSize]uint8 {
	return pm.paletteRAM
}

package cartridge

import "github.com/AndrewNeo/nessharp/internal/memory"

// Mapper004 implements MMC3 (mapper 4).
// Register writes are decoded by address & $E001:
//
//	$8000 bank select     $8001 bank data
//	$A000 mirroring       $A001 PRG RAM protect
//	$C000 IRQ latch       $C001 IRQ reload
//	$E000 IRQ disable     $E001 IRQ enable
//
// PRG is four 8KB windows and CHR is two 2KB plus four 1KB windows. The
// scanline counter is clocked through OnScanline.
type Mapper004 struct {
	board

	registers    [8]uint8
	bankSelect   uint8
	prgMode      bool // swap $8000 and $C000
	chrInversion bool // swap $0000-$0FFF and $1000-$1FFF
	mirroring    memory.MirrorMode

	prgRAMEnabled bool
	prgRAMProtect bool

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	irqPending bool
}

func newMapper004(cart *Cartridge) Mapper {
	return &Mapper004{
		board:         newBoard(cart, 4, "MMC3"),
		mirroring:     cart.Header.Mirroring,
		prgRAMEnabled: true,
	}
}

// Mirroring returns the mirroring selected through $A000, or four-screen
// when the board carries its own VRAM.
func (m *Mapper004) Mirroring() memory.MirrorMode {
	if m.cart.Header.FourScreen {
		return memory.MirrorFourScreen
	}
	return m.mirroring
}

func (m *Mapper004) writeRegister(address uint16, value uint8) {
	switch address & 0xE001 {
	case 0x8000:
		m.bankSelect = value & 0x07
		m.prgMode = value&0x40 != 0
		m.chrInversion = value&0x80 != 0
	case 0x8001:
		m.registers[m.bankSelect] = value
		m.log.Debug("bank write", "register", m.bankSelect, "value", value)
	case 0xA000:
		if value&1 == 0 {
			m.mirroring = memory.MirrorVertical
		} else {
			m.mirroring = memory.MirrorHorizontal
		}
	case 0xA001:
		m.prgRAMProtect = value&0x40 != 0
		m.prgRAMEnabled = value&0x80 != 0
	case 0xC000:
		m.irqLatch = value
	case 0xC001:
		m.irqCounter = 0
		m.irqReload = true
	case 0xE000:
		m.irqEnabled = false
		m.irqPending = false
	case 0xE001:
		m.irqEnabled = true
	}
}

// OnScanline clocks the IRQ counter. A zero counter (or a pending reload)
// loads the latch, otherwise the counter decrements; reaching zero while
// enabled asserts IRQ.
func (m *Mapper004) OnScanline() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}

	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

// IRQ reports whether the counter has fired and not been acknowledged.
func (m *Mapper004) IRQ() bool {
	return m.irqPending
}

func (m *Mapper004) mapCPU(address uint16) memory.Window {
	if address < 0x8000 {
		return m.lowWindow(address)
	}

	last := m.prgBankCount(bank8K) - 1
	var bank int
	switch {
	case address < 0xA000:
		if m.prgMode {
			bank = last - 1
		} else {
			bank = int(m.registers[6] & 0x3F)
		}
	case address < 0xC000:
		bank = int(m.registers[7] & 0x3F)
	case address < 0xE000:
		if m.prgMode {
			bank = int(m.registers[6] & 0x3F)
		} else {
			bank = last - 1
		}
	default:
		bank = last
	}
	return m.prgWindow(bank, bank8K, address&0xE000)
}

func (m *Mapper004) mapPPU(address uint16) memory.Window {
	// Fold A12 inversion so the 2KB banks always decode at $0000-$0FFF
	folded := address
	if m.chrInversion {
		folded ^= 0x1000
	}
	base := address &^ 0x03FF

	switch {
	case folded < 0x0800:
		return m.chrWindow(int(m.registers[0]>>1), bank2K, address&^0x07FF)
	case folded < 0x1000:
		return m.chrWindow(int(m.registers[1]>>1), bank2K, address&^0x07FF)
	default:
		slot := (folded - 0x1000) >> 10
		return m.chrWindow(int(m.registers[2+slot]), bank1K, base)
	}
}

// CPURead reads PRG ROM or PRG RAM. PRG RAM reads are not gated.
func (m *Mapper004) CPURead(address uint16) uint8 {
	return m.mapCPU(address).Read(address)
}

// CPUWrite decodes register writes above $8000. PRG RAM writes require the
// RAM to be enabled and not write-protected.
func (m *Mapper004) CPUWrite(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.writeRegister(address, value)
	case address >= 0x6000:
		if m.prgRAMEnabled && !m.prgRAMProtect {
			m.mapCPU(address).Write(address, value)
		}
	default:
		m.mapCPU(address).Write(address, value)
	}
}

// PPURead reads the selected CHR banks.
func (m *Mapper004) PPURead(address uint16) uint8 {
	return m.mapPPU(address).Read(address)
}

// PPUWrite writes CHR when it is RAM.
func (m *Mapper004) PPUWrite(address uint16, value uint8) {
	m.mapPPU(address).Write(address, value)
}

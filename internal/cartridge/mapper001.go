package cartridge

import "github.com/AndrewNeo/nessharp/internal/memory"

// Mapper001 implements MMC1 (mapper 1).
// Registers are loaded serially: five writes to $8000-$FFFF each shift in
// bit 0, and the fifth write latches the value into the register selected
// by address bits 13-14. A write with bit 7 set resets the shift register.
//
//	reg 0 ($8000) control: mirroring (bits 0-1), PRG mode (2-3), CHR mode (4)
//	reg 1 ($A000) CHR bank 0
//	reg 2 ($C000) CHR bank 1
//	reg 3 ($E000) PRG bank
type Mapper001 struct {
	board

	registers [4]uint8
	shift     uint8
	writes    uint8
}

func newMapper001(cart *Cartridge) Mapper {
	m := &Mapper001{board: newBoard(cart, 1, "MMC1")}
	// Power-on: PRG mode 3 (fixed last bank at $C000)
	m.registers[0] = 0x0C
	return m
}

// Registers returns the four internal registers.
func (m *Mapper001) Registers() [4]uint8 {
	return m.registers
}

func (m *Mapper001) writeRegister(address uint16, value uint8) {
	if value&0x80 != 0 {
		m.shift = 0
		m.writes = 0
		m.registers[0] |= 0x0C
		return
	}

	m.shift = (value&1)<<4 | m.shift>>1
	m.writes++
	if m.writes < 5 {
		return
	}

	index := (address >> 13) & 3
	m.registers[index] = m.shift
	m.log.Debug("register write", "register", index, "value", m.shift)
	m.shift = 0
	m.writes = 0
}

// Mirroring returns the mirroring selected by the control register.
func (m *Mapper001) Mirroring() memory.MirrorMode {
	switch m.registers[0] & 3 {
	case 0:
		return memory.MirrorSingleScreen0
	case 1:
		return memory.MirrorSingleScreen1
	case 2:
		return memory.MirrorVertical
	default:
		return memory.MirrorHorizontal
	}
}

func (m *Mapper001) mapCPU(address uint16) memory.Window {
	if address < 0x8000 {
		return m.lowWindow(address)
	}

	bank := int(m.registers[3] & 0x0F)
	switch (m.registers[0] >> 2) & 3 {
	case 0, 1:
		// 32KB mode ignores the low bit of the bank number
		if address < 0xC000 {
			return m.prgWindow(bank&^1, bank16K, 0x8000)
		}
		return m.prgWindow(bank|1, bank16K, 0xC000)
	case 2:
		// First bank fixed at $8000
		if address < 0xC000 {
			return m.prgWindow(0, bank16K, 0x8000)
		}
		return m.prgWindow(bank, bank16K, 0xC000)
	default:
		// Last bank fixed at $C000
		if address < 0xC000 {
			return m.prgWindow(bank, bank16K, 0x8000)
		}
		return m.prgWindow(m.prgBankCount(bank16K)-1, bank16K, 0xC000)
	}
}

func (m *Mapper001) mapPPU(address uint16) memory.Window {
	if m.registers[0]&0x10 == 0 {
		// 8KB mode ignores the low bit of CHR bank 0
		return m.chrWindow(int(m.registers[1]>>1), bank8K, 0)
	}
	if address < 0x1000 {
		return m.chrWindow(int(m.registers[1]), bank4K, 0)
	}
	return m.chrWindow(int(m.registers[2]), bank4K, 0x1000)
}

// CPURead reads PRG ROM or PRG RAM.
func (m *Mapper001) CPURead(address uint16) uint8 {
	return m.mapCPU(address).Read(address)
}

// CPUWrite feeds the serial port above $8000 and writes PRG RAM below.
func (m *Mapper001) CPUWrite(address uint16, value uint8) {
	if address >= 0x8000 {
		m.writeRegister(address, value)
		return
	}
	m.mapCPU(address).Write(address, value)
}

// PPURead reads the selected CHR banks.
func (m *Mapper001) PPURead(address uint16) uint8 {
	return m.mapPPU(address).Read(address)
}

// PPUWrite writes CHR when it is RAM.
func (m *Mapper001) PPUWrite(address uint16, value uint8) {
	m.mapPPU(address).Write(address, value)
}

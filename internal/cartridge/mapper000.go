package cartridge

import "github.com/AndrewNeo/nessharp/internal/memory"

// Mapper000 implements NROM (mapper 0).
// NROM has no bank switching:
//   - 16KB or 32KB PRG ROM (a single 16KB page appears at both $8000 and $C000)
//   - 8KB CHR ROM or CHR RAM
//   - 8KB PRG RAM at $6000-$7FFF
type Mapper000 struct {
	board
}

func newMapper000(cart *Cartridge) Mapper {
	return &Mapper000{board: newBoard(cart, 0, "NROM")}
}

func (m *Mapper000) mapCPU(address uint16) memory.Window {
	switch {
	case address < 0x8000:
		return m.lowWindow(address)
	case address < 0xC000:
		return m.prgWindow(0, bank16K, 0x8000)
	default:
		// Last page; the only page on 16KB carts
		return m.prgWindow(m.prgBankCount(bank16K)-1, bank16K, 0xC000)
	}
}

// CPURead reads PRG ROM or PRG RAM.
func (m *Mapper000) CPURead(address uint16) uint8 {
	return m.mapCPU(address).Read(address)
}

// CPUWrite writes PRG RAM. ROM writes are dropped.
func (m *Mapper000) CPUWrite(address uint16, value uint8) {
	m.mapCPU(address).Write(address, value)
}

// PPURead reads pattern memory.
func (m *Mapper000) PPURead(address uint16) uint8 {
	return m.chrWindow(0, bank8K, 0).Read(address)
}

// PPUWrite writes pattern memory when it is RAM.
func (m *Mapper000) PPUWrite(address uint16, value uint8) {
	m.chrWindow(0, bank8K, 0).Write(address, value)
}

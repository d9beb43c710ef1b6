package cartridge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/AndrewNeo/nessharp/internal/memory"
)

// ErrUnsupportedMapper is wrapped by MapperError.
var ErrUnsupportedMapper = errors.New("unsupported mapper")

// MapperError reports a header naming a board with no registered variant.
type MapperError struct {
	Number uint8
}

func (e *MapperError) Error() string {
	return fmt.Sprintf("unsupported mapper: %d", e.Number)
}

func (e *MapperError) Unwrap() error {
	return ErrUnsupportedMapper
}

// Mapper is a cartridge board: the bank-switching logic sitting between the
// buses and the cartridge buffers.
type Mapper interface {
	memory.Cartridge

	Number() uint8
	Name() string

	// OnScanline is clocked once per rendered scanline.
	OnScanline()
	// IRQ reports whether the board is asserting the CPU IRQ line.
	IRQ() bool
}

type mapperConstructor func(*Cartridge) Mapper

type mapperEntry struct {
	name string
	new  mapperConstructor
}

// registry maps iNES mapper numbers to board constructors.
var registry = map[uint8]mapperEntry{
	0: {"NROM", newMapper000},
	1: {"MMC1", newMapper001},
	4: {"MMC3", newMapper004},
}

// Supported returns whether a mapper number has a registered board.
func Supported(number uint8) bool {
	_, ok := registry[number]
	return ok
}

func newMapper(cart *Cartridge) (Mapper, error) {
	entry, ok := registry[cart.Header.MapperNumber]
	if !ok {
		return nil, &MapperError{Number: cart.Header.MapperNumber}
	}
	return entry.new(cart), nil
}

const (
	bank1K  = 0x0400
	bank2K  = 0x0800
	bank4K  = 0x1000
	bank8K  = 0x2000
	bank16K = 0x4000
)

// bankSlice returns bank index of the given size within buf. The index wraps
// modulo the number of banks present so oversized bank numbers from a
// malformed header or game stay in range.
func bankSlice(buf []uint8, index, size int) []uint8 {
	count := len(buf) / size
	if count == 0 {
		return buf
	}
	index %= count
	if index < 0 {
		index += count
	}
	return buf[index*size : (index+1)*size]
}

// board holds what every mapper variant shares: the cartridge buffers, the
// declared bus ranges, and the expansion/PRG-RAM windows below $8000.
type board struct {
	cart   *Cartridge
	number uint8
	name   string
	log    *slog.Logger
}

func newBoard(cart *Cartridge, number uint8, name string) board {
	logger := cart.log
	if logger == nil {
		logger = slog.Default()
	}
	return board{
		cart:   cart,
		number: number,
		name:   name,
		log:    logger.With("mapper", name),
	}
}

func (b *board) Number() uint8 { return b.number }
func (b *board) Name() string  { return b.name }

// CPURange returns the CPU addresses owned by the cartridge.
func (b *board) CPURange() (uint16, uint16) { return expansionStart, 0xFFFF }

// PPURange returns the PPU addresses owned by the cartridge.
func (b *board) PPURange() (uint16, uint16) { return 0x0000, 0x1FFF }

// Mirroring returns the header mirroring.
func (b *board) Mirroring() memory.MirrorMode { return b.cart.Header.Mirroring }

func (b *board) OnScanline() {}
func (b *board) IRQ() bool   { return false }

// lowWindow maps $4020-$7FFF, the range below the PRG ROM.
func (b *board) lowWindow(address uint16) memory.Window {
	if address < 0x6000 {
		return memory.NewWindow(b.cart.expansion, expansionStart, true)
	}
	return memory.NewWindow(b.cart.prgRAM, 0x6000, true)
}

// prgWindow maps PRG ROM bank index of size bytes at base.
func (b *board) prgWindow(index, size int, base uint16) memory.Window {
	return memory.NewWindow(bankSlice(b.cart.prgROM, index, size), base, false)
}

// chrWindow maps CHR bank index of size bytes at base. CHR RAM is writable.
func (b *board) chrWindow(index, size int, base uint16) memory.Window {
	return memory.NewWindow(bankSlice(b.cart.chrROM, index, size), base, b.cart.chrRAM)
}

func (b *board) prgBankCount(size int) int {
	return len(b.cart.prgROM) / size
}

package ppu

import (
	"io"
	"log/slog"
	"testing"

	"github.com/AndrewNeo/nessharp/internal/cartridge"
	"github.com/AndrewNeo/nessharp/internal/memory"
	"github.com/stretchr/testify/require"
)

const frameDots = DotsPerScanline * ScanlinesPerFrame

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPPU wires a PPU to real video memory backed by an 8KB CHR RAM
// NROM cartridge.
func newTestPPU(t *testing.T) (*PPU, *memory.PPUMemory) {
	t.Helper()
	cart, err := cartridge.NewROMBuilder().
		WithCHRRAM().
		WithMirroring(memory.MirrorVertical).
		BuildCartridge(cartridge.WithLogger(discardLogger()))
	require.NoError(t, err)

	mem := memory.NewPPUMemory(cart.Mapper())
	return New(mem, WithLogger(discardLogger())), mem
}

// setAddress points v at address through $2006.
func setAddress(p *PPU, address uint16) {
	p.ReadRegister(0x2002)
	p.WriteRegister(0x2006, uint8(address>>8))
	p.WriteRegister(0x2006, uint8(address))
}

// writeVRAM stores data starting at address through $2007.
func writeVRAM(p *PPU, address uint16, data ...uint8) {
	setAddress(p, address)
	for _, b := range data {
		p.WriteRegister(0x2007, b)
	}
}

func fill(n int, value uint8) []uint8 {
	data := make([]uint8, n)
	for i := range data {
		data[i] = value
	}
	return data
}

// stepTo advances until the next dot to execute is (scanline, dot).
func stepTo(t *testing.T, p *PPU, scanline, dot int) {
	t.Helper()
	for i := 0; i <= 2*frameDots; i++ {
		if p.scanline == scanline && p.dot == dot {
			return
		}
		p.Step()
	}
	t.Fatalf("never reached %d,%d", scanline, dot)
}

// runFrames steps until n more frames have been published and returns the
// number of dots that took.
func runFrames(t *testing.T, p *PPU, n int) int {
	t.Helper()
	target := p.Frames().Seq() + uint64(n)
	dots := 0
	for p.Frames().Seq() < target {
		p.Step()
		dots++
		require.Less(t, dots, (n+1)*frameDots, "frame never published")
	}
	return dots
}

// hideSprites moves every OAM entry below the screen.
func hideSprites(p *PPU) {
	p.WriteRegister(0x2003, 0)
	for i := 0; i < 64; i++ {
		p.WriteOAM(0xFF)
		p.WriteOAM(0)
		p.WriteOAM(0)
		p.WriteOAM(0)
	}
}

// setSprite writes OAM entry index.
func setSprite(p *PPU, index int, y, tile, attr, x uint8) {
	p.WriteRegister(0x2003, uint8(index*4))
	p.WriteOAM(y)
	p.WriteOAM(tile)
	p.WriteOAM(attr)
	p.WriteOAM(x)
}

// resetScroll zeroes t so the next pre-render line starts at the top left
// of nametable 0.
func resetScroll(p *PPU) {
	p.ReadRegister(0x2002)
	p.WriteRegister(0x2000, 0)
	p.WriteRegister(0x2005, 0)
	p.WriteRegister(0x2005, 0)
}

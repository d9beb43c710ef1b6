package cartridge

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AndrewNeo/nessharp/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		wantErr error
		check   func(t *testing.T, h Header)
	}{
		{
			name: "NROM vertical",
			raw:  []byte{'N', 'E', 'S', 0x1A, 2, 1, 0x01, 0x00, 0, 0, 0, 0, 0, 0, 0, 0},
			check: func(t *testing.T, h Header) {
				assert.Equal(t, uint8(2), h.PRGPages)
				assert.Equal(t, uint8(1), h.CHRPages)
				assert.Equal(t, uint8(0), h.MapperNumber)
				assert.Equal(t, memory.MirrorVertical, h.Mirroring)
			},
		},
		{
			name: "mapper nibbles and flags",
			raw:  []byte{'N', 'E', 'S', 0x1A, 8, 0, 0x4E, 0x00, 1, 0, 0, 0, 0, 0, 0, 0},
			check: func(t *testing.T, h Header) {
				assert.Equal(t, uint8(4), h.MapperNumber)
				assert.True(t, h.HasPRGRAM)
				assert.True(t, h.HasTrainer)
				assert.True(t, h.FourScreen)
				assert.Equal(t, memory.MirrorFourScreen, h.Mirroring)
				assert.Equal(t, uint8(1), h.PRGRAMPages)
			},
		},
		{
			name: "high mapper nibble",
			raw:  []byte{'N', 'E', 'S', 0x1A, 1, 1, 0x10, 0x40, 0, 0, 0, 0, 0, 0, 0, 0},
			check: func(t *testing.T, h Header) {
				assert.Equal(t, uint8(0x41), h.MapperNumber)
			},
		},
		{
			name:    "bad magic",
			raw:     []byte{'N', 'E', 'Z', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			wantErr: ErrInvalidMagic,
		},
		{
			name:    "NES 2.0",
			raw:     []byte{'N', 'E', 'S', 0x1A, 1, 1, 0, 0x08, 0, 0, 0, 0, 0, 0, 0, 0},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "short header",
			raw:     []byte{'N', 'E', 'S'},
			wantErr: ErrTruncated,
		},
		{
			name:    "zero PRG",
			raw:     []byte{'N', 'E', 'S', 0x1A, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			wantErr: ErrNoPRG,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, h)
		})
	}
}

func TestLoadFromBytes(t *testing.T) {
	cart, err := NewROMBuilder().
		WithPRGPages(2).
		WithCHR([]uint8{0xAA, 0xBB}).
		WithMirroring(memory.MirrorVertical).
		WithProgram([]uint8{0xEA, 0x4C, 0x00, 0x80}).
		BuildCartridge()
	require.NoError(t, err)

	assert.Len(t, cart.PRGROM(), 2*prgPageSize)
	assert.Len(t, cart.CHRROM(), chrPageSize)
	assert.False(t, cart.HasCHRRAM())
	assert.Len(t, cart.PRGRAM(), prgRAMSize)
	assert.Equal(t, "NROM", cart.Mapper().Name())
	assert.Equal(t, memory.MirrorVertical, cart.Mapper().Mirroring())
	assert.Equal(t, uint8(0xEA), cart.Mapper().CPURead(0x8000))
	assert.Equal(t, uint8(0xBB), cart.Mapper().PPURead(0x0001))
}

func TestLoadFromBytes_Mappers(t *testing.T) {
	tests := []struct {
		number uint8
		name   string
	}{
		{0, "NROM"},
		{1, "MMC1"},
		{4, "MMC3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			image, err := NewROMBuilder().WithMapper(tt.number).WithPRGPages(2).Build()
			require.NoError(t, err)

			cart, err := LoadFromBytes(image)
			require.NoError(t, err)
			assert.Equal(t, tt.number, cart.Mapper().Number())
			assert.Equal(t, tt.name, cart.Mapper().Name())
		})
	}
}

func TestLoadTrainer(t *testing.T) {
	trainer := bytes.Repeat([]uint8{0x5A}, trainerSize)
	cart, err := NewROMBuilder().WithTrainer(trainer).BuildCartridge()
	require.NoError(t, err)

	assert.Equal(t, uint8(0x00), cart.Mapper().CPURead(0x6FFF))
	assert.Equal(t, uint8(0x5A), cart.Mapper().CPURead(0x7000))
	assert.Equal(t, uint8(0x5A), cart.Mapper().CPURead(0x71FF))
	assert.Equal(t, uint8(0x00), cart.Mapper().CPURead(0x7200))
}

func TestLoadCHRRAM(t *testing.T) {
	cart, err := NewROMBuilder().WithCHRRAM().BuildCartridge()
	require.NoError(t, err)

	require.True(t, cart.HasCHRRAM())
	assert.Len(t, cart.CHRROM(), chrPageSize)

	cart.Mapper().PPUWrite(0x1FFF, 0x77)
	assert.Equal(t, uint8(0x77), cart.Mapper().PPURead(0x1FFF))
}

func TestCHRROMIsReadOnly(t *testing.T) {
	cart, err := NewROMBuilder().WithCHR([]uint8{0x12}).BuildCartridge()
	require.NoError(t, err)

	cart.Mapper().PPUWrite(0x0000, 0xFF)
	assert.Equal(t, uint8(0x12), cart.Mapper().PPURead(0x0000))
}

func TestLoadTruncated(t *testing.T) {
	image, err := NewROMBuilder().WithPRGPages(2).Build()
	require.NoError(t, err)

	_, err = LoadFromBytes(image[:headerSize+prgPageSize])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestLoadUnsupportedMapper(t *testing.T) {
	_, err := NewROMBuilder().WithMapper(7).BuildCartridge()
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnsupportedMapper)
	var mapperErr *MapperError
	require.True(t, errors.As(err, &mapperErr))
	assert.Equal(t, uint8(7), mapperErr.Number)
	assert.False(t, Supported(7))
	assert.True(t, Supported(4))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.nes")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = NewROMBuilder().WithMapper(1).WithPRGPages(4).WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cart, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MMC1", cart.Mapper().Name())

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.nes"))
	assert.Error(t, err)
}

func TestBankSliceWraps(t *testing.T) {
	buf := make([]uint8, 4*bank8K)
	for i := range buf {
		buf[i] = uint8(i / bank8K)
	}

	assert.Equal(t, uint8(1), bankSlice(buf, 1, bank8K)[0])
	assert.Equal(t, uint8(1), bankSlice(buf, 5, bank8K)[0])
	assert.Equal(t, uint8(3), bankSlice(buf, -1, bank8K)[0])
	assert.Len(t, bankSlice(buf, 2, bank16K), bank16K)
}

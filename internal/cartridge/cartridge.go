// Package cartridge implements ROM loading and the mapper boards of NES cartridges.
package cartridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AndrewNeo/nessharp/internal/memory"
)

const (
	headerSize     = 16
	trainerSize    = 512
	prgPageSize    = 0x4000
	chrPageSize    = 0x2000
	prgRAMSize     = 0x2000
	expansionStart = 0x4020
	expansionSize  = 0x6000 - expansionStart
	trainerOffset  = 0x1000 // $7000 within PRG RAM
)

var (
	// ErrInvalidMagic is returned when the image does not start with "NES\x1A".
	ErrInvalidMagic = errors.New("invalid iNES file")
	// ErrUnsupportedFormat is returned for NES 2.0 headers.
	ErrUnsupportedFormat = errors.New("unsupported header format")
	// ErrTruncated is returned when the image is shorter than its header claims.
	ErrTruncated = errors.New("truncated ROM image")
	// ErrNoPRG is returned for a header declaring zero PRG pages.
	ErrNoPRG = errors.New("PRG ROM size cannot be zero")
)

// Header is the decoded 16-byte iNES header.
type Header struct {
	PRGPages     uint8 // 16KB units
	CHRPages     uint8 // 8KB units, 0 means CHR RAM
	MapperNumber uint8
	Mirroring    memory.MirrorMode
	HasPRGRAM    bool
	HasTrainer   bool
	FourScreen   bool
	PRGRAMPages  uint8
	TVSystem     [2]uint8
}

// ParseHeader decodes and validates an iNES header.
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) < headerSize {
		return Header{}, fmt.Errorf("%w: header is %d bytes", ErrTruncated, len(raw))
	}
	if !bytes.Equal(raw[0:4], []byte("NES\x1A")) {
		return Header{}, fmt.Errorf("%w: magic % X", ErrInvalidMagic, raw[0:4])
	}

	flags6, flags7 := raw[6], raw[7]
	if flags7&0x0C == 0x08 {
		return Header{}, fmt.Errorf("%w: NES 2.0", ErrUnsupportedFormat)
	}

	h := Header{
		PRGPages:     raw[4],
		CHRPages:     raw[5],
		MapperNumber: flags6>>4 | flags7&0xF0,
		HasPRGRAM:    flags6&0x02 != 0,
		HasTrainer:   flags6&0x04 != 0,
		FourScreen:   flags6&0x08 != 0,
		PRGRAMPages:  raw[8],
		TVSystem:     [2]uint8{raw[9], raw[10]},
	}

	switch {
	case h.FourScreen:
		h.Mirroring = memory.MirrorFourScreen
	case flags6&0x01 != 0:
		h.Mirroring = memory.MirrorVertical
	default:
		h.Mirroring = memory.MirrorHorizontal
	}

	if h.PRGPages == 0 {
		return Header{}, ErrNoPRG
	}
	return h, nil
}

// Cartridge represents a NES cartridge
type Cartridge struct {
	Header Header

	// ROM data
	prgROM []uint8
	chrROM []uint8
	chrRAM bool

	// Board RAM
	prgRAM    []uint8
	expansion []uint8

	mapper Mapper
	log    *slog.Logger
}

// Option configures cartridge loading.
type Option func(*Cartridge)

// WithLogger sets the logger used by the cartridge and its mapper.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cartridge) {
		c.log = logger
	}
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string, opts ...Option) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cart, err := LoadFromReader(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return cart, nil
}

// LoadFromBytes loads a cartridge from an in-memory iNES image.
func LoadFromBytes(data []byte, opts ...Option) (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(data), opts...)
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader, opts ...Option) (*Cartridge, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	header, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	cart := &Cartridge{
		Header:    header,
		prgRAM:    make([]uint8, prgRAMSize),
		expansion: make([]uint8, expansionSize),
	}
	for _, opt := range opts {
		opt(cart)
	}
	if cart.log == nil {
		cart.log = slog.Default()
	}

	if header.HasTrainer {
		if _, err := io.ReadFull(r, cart.prgRAM[trainerOffset:trainerOffset+trainerSize]); err != nil {
			return nil, fmt.Errorf("%w: trainer: %v", ErrTruncated, err)
		}
	}

	cart.prgROM = make([]uint8, int(header.PRGPages)*prgPageSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: PRG ROM: %v", ErrTruncated, err)
	}

	if header.CHRPages == 0 {
		cart.chrROM = make([]uint8, chrPageSize)
		cart.chrRAM = true
	} else {
		cart.chrROM = make([]uint8, int(header.CHRPages)*chrPageSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, fmt.Errorf("%w: CHR ROM: %v", ErrTruncated, err)
		}
	}

	mapper, err := newMapper(cart)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper

	cart.log.Info("cartridge loaded", "cart", cart)
	return cart, nil
}

// Mapper returns the board selected by the header.
func (c *Cartridge) Mapper() Mapper {
	return c.mapper
}

// PRGROM returns the program ROM.
func (c *Cartridge) PRGROM() []uint8 {
	return c.prgROM
}

// CHRROM returns pattern memory (RAM when the header declares no CHR pages).
func (c *Cartridge) CHRROM() []uint8 {
	return c.chrROM
}

// HasCHRRAM reports whether pattern memory is writable.
func (c *Cartridge) HasCHRRAM() bool {
	return c.chrRAM
}

// PRGRAM returns the 8KB work RAM at $6000-$7FFF.
func (c *Cartridge) PRGRAM() []uint8 {
	return c.prgRAM
}

// LogValue implements slog.LogValuer.
func (c *Cartridge) LogValue() slog.Value {
	name := "unknown"
	if c.mapper != nil {
		name = c.mapper.Name()
	}
	return slog.GroupValue(
		slog.Int("mapper", int(c.Header.MapperNumber)),
		slog.String("board", name),
		slog.Int("prg_kb", len(c.prgROM)/1024),
		slog.Int("chr_kb", len(c.chrROM)/1024),
		slog.Bool("chr_ram", c.chrRAM),
		slog.String("mirroring", c.Header.Mirroring.String()),
		slog.Bool("trainer", c.Header.HasTrainer),
	)
}

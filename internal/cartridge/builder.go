package cartridge

import (
	"fmt"
	"io"

	"github.com/AndrewNeo/nessharp/internal/memory"
)

// ROMConfig describes an iNES image assembled by ROMBuilder.
type ROMConfig struct {
	PRGPages    uint8 // 16KB units
	CHRPages    uint8 // 8KB units, 0 means CHR RAM
	Mapper      uint8
	Mirroring   memory.MirrorMode
	HasPRGRAM   bool
	Trainer     []uint8
	Program     []uint8       // copied to the start of PRG ROM
	Data        map[int]uint8 // PRG ROM offset -> byte
	CHR         []uint8       // copied to the start of CHR ROM
	Vectors     [3]uint16     // NMI, reset, IRQ/BRK
	Description string
}

// ROMBuilder assembles iNES images for tests and tooling.
type ROMBuilder struct {
	config ROMConfig
}

// NewROMBuilder returns a builder for a single-page NROM image whose vectors
// all point at $8000.
func NewROMBuilder() *ROMBuilder {
	return &ROMBuilder{
		config: ROMConfig{
			PRGPages:  1,
			CHRPages:  1,
			Mirroring: memory.MirrorHorizontal,
			Data:      make(map[int]uint8),
			Vectors:   [3]uint16{0x8000, 0x8000, 0x8000},
		},
	}
}

// WithPRGPages sets the PRG ROM size in 16KB units
func (b *ROMBuilder) WithPRGPages(pages uint8) *ROMBuilder {
	b.config.PRGPages = pages
	return b
}

// WithCHRPages sets the CHR ROM size in 8KB units (0 = CHR RAM)
func (b *ROMBuilder) WithCHRPages(pages uint8) *ROMBuilder {
	b.config.CHRPages = pages
	return b
}

// WithCHRRAM configures the ROM to use CHR RAM instead of CHR ROM
func (b *ROMBuilder) WithCHRRAM() *ROMBuilder {
	b.config.CHRPages = 0
	return b
}

// WithMapper sets the mapper number
func (b *ROMBuilder) WithMapper(number uint8) *ROMBuilder {
	b.config.Mapper = number
	return b
}

// WithMirroring sets the nametable mirroring mode
func (b *ROMBuilder) WithMirroring(mode memory.MirrorMode) *ROMBuilder {
	b.config.Mirroring = mode
	return b
}

// WithPRGRAM sets the battery/PRG-RAM flag
func (b *ROMBuilder) WithPRGRAM() *ROMBuilder {
	b.config.HasPRGRAM = true
	return b
}

// WithTrainer adds a 512-byte trainer
func (b *ROMBuilder) WithTrainer(data []uint8) *ROMBuilder {
	b.config.Trainer = make([]uint8, trainerSize)
	copy(b.config.Trainer, data)
	return b
}

// WithProgram places code at the start of PRG ROM
func (b *ROMBuilder) WithProgram(code []uint8) *ROMBuilder {
	b.config.Program = append([]uint8(nil), code...)
	return b
}

// WithData places bytes at a PRG ROM offset
func (b *ROMBuilder) WithData(offset int, data []uint8) *ROMBuilder {
	for i, value := range data {
		b.config.Data[offset+i] = value
	}
	return b
}

// WithResetVector sets the reset vector
func (b *ROMBuilder) WithResetVector(address uint16) *ROMBuilder {
	b.config.Vectors[1] = address
	return b
}

// WithIRQVector sets the IRQ/BRK vector
func (b *ROMBuilder) WithIRQVector(address uint16) *ROMBuilder {
	b.config.Vectors[2] = address
	return b
}

// WithNMIVector sets the NMI vector
func (b *ROMBuilder) WithNMIVector(address uint16) *ROMBuilder {
	b.config.Vectors[0] = address
	return b
}

// WithCHR sets the initial CHR ROM contents
func (b *ROMBuilder) WithCHR(data []uint8) *ROMBuilder {
	b.config.CHR = append([]uint8(nil), data...)
	return b
}

// WithDescription sets the description
func (b *ROMBuilder) WithDescription(description string) *ROMBuilder {
	b.config.Description = description
	return b
}

// Config returns the configuration built so far.
func (b *ROMBuilder) Config() ROMConfig {
	return b.config
}

// Build generates the iNES image.
func (b *ROMBuilder) Build() ([]byte, error) {
	return Generate(b.config)
}

// BuildCartridge generates and loads the image.
func (b *ROMBuilder) BuildCartridge(opts ...Option) (*Cartridge, error) {
	image, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadFromBytes(image, opts...)
}

// WriteTo writes the generated image to w.
func (b *ROMBuilder) WriteTo(w io.Writer) (int64, error) {
	image, err := b.Build()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(image)
	return int64(n), err
}

// Generate assembles an iNES image from config. Vectors are written to the
// last six bytes of PRG ROM, which every supported board maps at $FFFA.
func Generate(config ROMConfig) ([]byte, error) {
	if config.PRGPages == 0 {
		return nil, ErrNoPRG
	}

	image := append([]byte{}, header(config)...)
	if config.Trainer != nil {
		trainer := make([]uint8, trainerSize)
		copy(trainer, config.Trainer)
		image = append(image, trainer...)
	}

	prg := make([]byte, int(config.PRGPages)*prgPageSize)
	if len(config.Program) > len(prg) {
		return nil, fmt.Errorf("program is %d bytes, PRG ROM holds %d", len(config.Program), len(prg))
	}
	copy(prg, config.Program)
	for offset, value := range config.Data {
		if offset >= 0 && offset < len(prg) {
			prg[offset] = value
		}
	}
	vectors := len(prg) - 6
	for i, address := range config.Vectors {
		prg[vectors+2*i] = uint8(address)
		prg[vectors+2*i+1] = uint8(address >> 8)
	}
	image = append(image, prg...)

	if config.CHRPages > 0 {
		chr := make([]byte, int(config.CHRPages)*chrPageSize)
		copy(chr, config.CHR)
		image = append(image, chr...)
	}
	return image, nil
}

func header(config ROMConfig) []byte {
	h := make([]byte, headerSize)
	copy(h[0:4], "NES\x1A")
	h[4] = config.PRGPages
	h[5] = config.CHRPages

	flags6 := (config.Mapper & 0x0F) << 4
	switch config.Mirroring {
	case memory.MirrorVertical:
		flags6 |= 0x01
	case memory.MirrorFourScreen:
		flags6 |= 0x08
	}
	if config.HasPRGRAM {
		flags6 |= 0x02
	}
	if config.Trainer != nil {
		flags6 |= 0x04
	}
	h[6] = flags6
	h[7] = config.Mapper & 0xF0
	return h
}

package ppu

// Control is PPUCTRL ($2000).
type Control uint8

const (
	CtrlNametable       Control = 0x03
	CtrlIncrement32     Control = 0x04
	CtrlSpriteTable     Control = 0x08
	CtrlBackgroundTable Control = 0x10
	CtrlTallSprites     Control = 0x20
	CtrlMasterSlave     Control = 0x40
	CtrlNMI             Control = 0x80
)

// Nametable returns the base nametable select (0-3).
func (c Control) Nametable() uint16 { return uint16(c & CtrlNametable) }

// Increment returns the VRAM address step applied after each $2007 access.
func (c Control) Increment() uint16 {
	if c&CtrlIncrement32 != 0 {
		return 32
	}
	return 1
}

// SpriteTable returns the pattern table base for 8x8 sprites.
func (c Control) SpriteTable() uint16 {
	if c&CtrlSpriteTable != 0 {
		return 0x1000
	}
	return 0
}

// BackgroundTable returns the pattern table base for background tiles.
func (c Control) BackgroundTable() uint16 {
	if c&CtrlBackgroundTable != 0 {
		return 0x1000
	}
	return 0
}

// SpriteHeight is 8 or 16.
func (c Control) SpriteHeight() int {
	if c&CtrlTallSprites != 0 {
		return 16
	}
	return 8
}

// NMIEnabled reports whether vblank raises NMI.
func (c Control) NMIEnabled() bool { return c&CtrlNMI != 0 }

// Mask is PPUMASK ($2001).
type Mask uint8

const (
	MaskGreyscale      Mask = 0x01
	MaskBackgroundLeft Mask = 0x02
	MaskSpritesLeft    Mask = 0x04
	MaskShowBackground Mask = 0x08
	MaskShowSprites    Mask = 0x10
	MaskEmphasizeRed   Mask = 0x20
	MaskEmphasizeGreen Mask = 0x40
	MaskEmphasizeBlue  Mask = 0x80
)

// Rendering reports whether either layer is enabled.
func (m Mask) Rendering() bool { return m&(MaskShowBackground|MaskShowSprites) != 0 }

func (m Mask) background(x int) bool {
	return m&MaskShowBackground != 0 && (x >= 8 || m&MaskBackgroundLeft != 0)
}

func (m Mask) sprites(x int) bool {
	return m&MaskShowSprites != 0 && (x >= 8 || m&MaskSpritesLeft != 0)
}

// Status is PPUSTATUS ($2002). Only the top three bits are driven.
type Status uint8

const (
	StatusSpriteOverflow Status = 0x20
	StatusSpriteZeroHit  Status = 0x40
	StatusVBlank         Status = 0x80
)

// Has reports whether flag is set.
func (s Status) Has(flag Status) bool { return s&flag != 0 }

func (s *Status) set(flag Status, on bool) {
	if on {
		*s |= flag
	} else {
		*s &^= flag
	}
}

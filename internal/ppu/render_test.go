package ppu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	black = NESColorToRGB(0x0F)
	white = NESColorToRGB(0x30)
	red   = NESColorToRGB(0x16)
	green = NESColorToRGB(0x2A)
)

// newScene builds a PPU whose nametable 0 is covered with an opaque tile.
//
//	tile 1: color 1 everywhere
//	tile 2: color 2 everywhere
//	tile 3: color 1 on row 0 only
//	tile 4: color 1 in column 0 only
func newScene(t *testing.T, background uint8) *PPU {
	t.Helper()
	p, _ := newTestPPU(t)

	writeVRAM(p, 0x0010, fill(8, 0xFF)...)
	writeVRAM(p, 0x0028, fill(8, 0xFF)...)
	writeVRAM(p, 0x0030, 0xFF)
	writeVRAM(p, 0x0040, fill(8, 0x80)...)

	writeVRAM(p, 0x2000, fill(960, background)...)
	writeVRAM(p, 0x23C0, fill(64, 0)...)
	writeVRAM(p, 0x3F00, 0x0F, 0x30)
	writeVRAM(p, 0x3F11, 0x16, 0x2A)

	hideSprites(p)
	resetScroll(p)
	return p
}

// render shows both layers and returns the second published frame, the
// first one that starts from a full pre-render line.
func render(t *testing.T, p *PPU, mask Mask) *Frame {
	t.Helper()
	p.WriteRegister(0x2001, uint8(mask))
	runFrames(t, p, 2)
	frame, _ := p.Frames().Latest()
	require.NotNil(t, frame)
	return frame
}

const showAll = MaskShowBackground | MaskShowSprites | MaskBackgroundLeft | MaskSpritesLeft

func TestBackgroundPixels(t *testing.T) {
	p := newScene(t, 1)
	frame := render(t, p, showAll)

	assert.Equal(t, white, frame.At(0, 0))
	assert.Equal(t, white, frame.At(255, 239))
	assert.False(t, p.status.Has(StatusSpriteZeroHit))
}

func TestBackgroundAttributes(t *testing.T) {
	p := newScene(t, 1)
	writeVRAM(p, 0x23C0, 0x01) // top-left quadrant uses palette 1
	writeVRAM(p, 0x3F05, 0x21)
	resetScroll(p)
	frame := render(t, p, showAll)

	assert.Equal(t, NESColorToRGB(0x21), frame.At(0, 0))
	assert.Equal(t, NESColorToRGB(0x21), frame.At(15, 15))
	assert.Equal(t, white, frame.At(16, 0))
	assert.Equal(t, white, frame.At(0, 16))
}

func TestFineXScroll(t *testing.T) {
	p := newScene(t, 0)
	writeVRAM(p, 0x2001, 1) // only tile column 1 is opaque
	resetScroll(p)
	p.WriteRegister(0x2005, 3)
	p.WriteRegister(0x2005, 0)
	frame := render(t, p, showAll)

	assert.Equal(t, black, frame.At(4, 0))
	assert.Equal(t, white, frame.At(5, 0))
	assert.Equal(t, white, frame.At(12, 0))
	assert.Equal(t, black, frame.At(13, 0))
	assert.Equal(t, black, frame.At(5, 8), "second tile row is empty")
}

func TestRenderingDisabledShowsBackdrop(t *testing.T) {
	p := newScene(t, 1)
	frame := render(t, p, 0)

	assert.Equal(t, black, frame.At(0, 0))
	assert.Equal(t, black, frame.At(128, 120))
}

func TestSpriteZeroHit(t *testing.T) {
	p := newScene(t, 1)
	setSprite(p, 0, 10, 1, 0, 20)
	frame := render(t, p, showAll)

	assert.True(t, p.status.Has(StatusSpriteZeroHit))

	// OAM Y is one less than the first row drawn.
	assert.Equal(t, white, frame.At(20, 10))
	assert.Equal(t, red, frame.At(20, 11))
	assert.Equal(t, red, frame.At(27, 18))
	assert.Equal(t, white, frame.At(19, 11))
	assert.Equal(t, white, frame.At(28, 11))
	assert.Equal(t, white, frame.At(20, 19))
}

func TestSpriteZeroHitNeedsOpaqueBackground(t *testing.T) {
	p := newScene(t, 0)
	setSprite(p, 0, 10, 1, 0, 20)
	frame := render(t, p, showAll)

	assert.False(t, p.status.Has(StatusSpriteZeroHit))
	assert.Equal(t, red, frame.At(20, 11))
	assert.Equal(t, black, frame.At(19, 11))
}

func TestSpriteZeroHitClearedOnPreRender(t *testing.T) {
	p := newScene(t, 1)
	setSprite(p, 0, 10, 1, 0, 20)
	render(t, p, showAll)
	require.True(t, p.status.Has(StatusSpriteZeroHit))

	stepTo(t, p, preRenderScanline, 2)
	assert.False(t, p.status.Has(StatusSpriteZeroHit))
}

func TestSpriteBehindBackground(t *testing.T) {
	p := newScene(t, 1)
	setSprite(p, 0, 10, 1, 0x20, 20)
	frame := render(t, p, showAll)

	assert.Equal(t, white, frame.At(20, 11))
	assert.True(t, p.status.Has(StatusSpriteZeroHit), "hidden sprites still collide")
}

func TestSpriteBehindTransparentBackground(t *testing.T) {
	p := newScene(t, 0)
	setSprite(p, 1, 10, 1, 0x20, 20)
	frame := render(t, p, showAll)

	assert.Equal(t, red, frame.At(20, 11))
}

func TestSpritePriorityByIndex(t *testing.T) {
	p := newScene(t, 1)
	setSprite(p, 1, 50, 2, 0, 100)
	setSprite(p, 2, 50, 1, 0, 100)
	setSprite(p, 3, 80, 0, 0, 100) // transparent
	setSprite(p, 4, 80, 1, 0, 100)
	frame := render(t, p, showAll)

	assert.Equal(t, green, frame.At(100, 51), "lower OAM index wins")
	assert.Equal(t, red, frame.At(100, 81), "transparent pixels do not win")
}

func TestSpriteFlips(t *testing.T) {
	p := newScene(t, 0)
	setSprite(p, 1, 100, 3, 0x00, 40)
	setSprite(p, 2, 100, 3, 0x80, 60)
	setSprite(p, 3, 150, 4, 0x00, 40)
	setSprite(p, 4, 150, 4, 0x40, 60)
	frame := render(t, p, showAll)

	assert.Equal(t, red, frame.At(40, 101))
	assert.Equal(t, black, frame.At(40, 108))
	assert.Equal(t, black, frame.At(60, 101))
	assert.Equal(t, red, frame.At(60, 108), "vertical flip")

	assert.Equal(t, red, frame.At(40, 151))
	assert.Equal(t, black, frame.At(47, 151))
	assert.Equal(t, black, frame.At(60, 151))
	assert.Equal(t, red, frame.At(67, 151), "horizontal flip")
}

func TestTallSprites(t *testing.T) {
	tests := []struct {
		name string
		tile uint8
		attr uint8
		rows map[int]uint32
	}{
		{
			name: "even tile reads $0000",
			tile: 0x02, // tiles 2 (solid color 2) and 3 (row 0 only)
			rows: map[int]uint32{-1: black, 0: green, 7: green, 8: red, 9: black, 15: black, 16: black},
		},
		{
			name: "vertical flip swaps halves",
			tile: 0x02,
			attr: 0x80,
			rows: map[int]uint32{0: black, 6: black, 7: red, 8: green, 15: green, 16: black},
		},
		{
			name: "odd tile reads $1000",
			tile: 0x03, // $1000 tiles 2 (solid color 1) and 3 (empty)
			rows: map[int]uint32{-1: black, 0: red, 7: red, 8: black, 15: black},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newScene(t, 0)
			writeVRAM(p, 0x1020, fill(8, 0xFF)...)
			resetScroll(p)
			p.WriteRegister(0x2000, uint8(CtrlTallSprites))
			setSprite(p, 1, 120, tt.tile, tt.attr, 40)
			frame := render(t, p, showAll)

			for row, want := range tt.rows {
				assert.Equal(t, want, frame.At(40, 121+row), "row %d", row)
			}
		})
	}
}

func TestSpriteVerticalFlipRows(t *testing.T) {
	tests := []struct {
		name    string
		attr    uint8
		flipped bool
	}{
		{"upright", 0x00, false},
		{"vertical flip", 0x80, true},
		{"both flips", 0xC0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newScene(t, 0)
			// tile 5: row r has only column r set
			diagonal := make([]uint8, 8)
			for r := range diagonal {
				diagonal[r] = 0x80 >> r
			}
			writeVRAM(p, 0x0050, diagonal...)
			resetScroll(p)
			setSprite(p, 1, 100, 5, tt.attr, 40)
			frame := render(t, p, showAll)

			for row := 0; row < 8; row++ {
				col := row
				if tt.flipped {
					col = 7 - row
				}
				if tt.attr&0x40 != 0 {
					// Horizontal flip mirrors the column back.
					col = 7 - col
				}
				assert.Equal(t, red, frame.At(40+col, 101+row), "row %d", row)
				assert.Equal(t, black, frame.At(40+(col+4)%8, 101+row), "row %d", row)
			}
		})
	}
}

func TestLeftEdgeMasking(t *testing.T) {
	p := newScene(t, 1)
	setSprite(p, 0, 10, 1, 0, 0)
	setSprite(p, 1, 30, 1, 0, 4)
	frame := render(t, p, MaskShowBackground|MaskShowSprites)

	assert.Equal(t, black, frame.At(0, 0))
	assert.Equal(t, black, frame.At(7, 0))
	assert.Equal(t, white, frame.At(8, 0))
	assert.Equal(t, black, frame.At(5, 31))
	assert.Equal(t, red, frame.At(8, 31))
	assert.False(t, p.status.Has(StatusSpriteZeroHit), "masked pixels cannot collide")
}

func TestSpriteOverflow(t *testing.T) {
	tests := []struct {
		name     string
		sprites  int
		lastY    uint8
		overflow bool
	}{
		{"eight sprites", 8, 60, false},
		{"nine sprites", 9, 60, true},
		{"nine sprites on two lines", 9, 90, false},
		{"ninth overlaps by one row", 9, 67, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newScene(t, 0)
			for i := 0; i < tt.sprites; i++ {
				y := uint8(60)
				if i == tt.sprites-1 {
					y = tt.lastY
				}
				setSprite(p, i+1, y, 1, 0, uint8(i*16))
			}
			frame := render(t, p, showAll)

			assert.Equal(t, tt.overflow, p.status.Has(StatusSpriteOverflow))
			assert.Equal(t, red, frame.At(7*16, 61), "first eight are drawn")
			switch {
			case tt.overflow:
				assert.Equal(t, black, frame.At(8*16, 68), "ninth is dropped where the lines overlap")
			case tt.sprites == 9:
				assert.Equal(t, red, frame.At(8*16, int(tt.lastY)+1))
			}

			stepTo(t, p, preRenderScanline, 2)
			assert.False(t, p.status.Has(StatusSpriteOverflow), "cleared on the pre-render line")
		})
	}
}

func TestGreyscale(t *testing.T) {
	p := newScene(t, 1)
	writeVRAM(p, 0x3F01, 0x16)
	resetScroll(p)
	frame := render(t, p, showAll|MaskGreyscale)

	assert.Equal(t, NESColorToRGB(0x10), frame.At(0, 0))
}

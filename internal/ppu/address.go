package ppu

// Address is the 15-bit loopy VRAM address shared by v and t:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type Address uint16

const (
	coarseXMask   Address = 0x001F
	coarseYMask   Address = 0x03E0
	nametableMask Address = 0x0C00
	fineYMask     Address = 0x7000

	horizontalBits = coarseXMask | 0x0400
	verticalBits   = coarseYMask | 0x0800 | fineYMask
)

func (a Address) CoarseX() uint16 { return uint16(a & coarseXMask) }
func (a Address) CoarseY() uint16 { return uint16(a&coarseYMask) >> 5 }
func (a Address) Nametable() uint16 { return uint16(a&nametableMask) >> 10 }
func (a Address) FineY() uint16 { return uint16(a&fineYMask) >> 12 }

func (a *Address) setCoarseX(v uint8) { *a = *a&^coarseXMask | Address(v)&0x1F }
func (a *Address) setCoarseY(v uint8) { *a = *a&^coarseYMask | (Address(v)&0x1F)<<5 }
func (a *Address) setFineY(v uint8) { *a = *a&^fineYMask | (Address(v)&0x07)<<12 }

func (a *Address) setNametable(n uint16) {
	*a = *a&^nametableMask | Address(n&0x03)<<10
}

// VRAM returns the 14-bit bus address.
func (a Address) VRAM() uint16 { return uint16(a) & 0x3FFF }

// increment advances v for a $2007 access. The register is 15 bits wide, so
// a carry out of bit 13 lands in fine Y.
func (a *Address) increment(step uint16) {
	*a = (*a + Address(step)) & 0x7FFF
}

// incrementX moves to the next tile column, switching horizontal nametable
// after column 31.
func (a *Address) incrementX() {
	if a.CoarseX() == 31 {
		*a ^= 0x041F
	} else {
		*a++
	}
}

// incrementY moves to the next pixel row. Row 29 is the last tile row of a
// nametable so it wraps and flips the vertical nametable; rows 30 and 31 sit
// in attribute memory and wrap without flipping.
func (a *Address) incrementY() {
	if a.FineY() < 7 {
		*a += 0x1000
		return
	}
	*a &^= fineYMask
	switch y := a.CoarseY(); y {
	case 29:
		a.setCoarseY(0)
		*a ^= 0x0800
	case 31:
		a.setCoarseY(0)
	default:
		a.setCoarseY(uint8(y + 1))
	}
}

// copyX loads the horizontal scroll bits from t.
func (a *Address) copyX(t Address) { *a = *a&^horizontalBits | t&horizontalBits }

// copyY loads the vertical scroll bits from t.
func (a *Address) copyY(t Address) { *a = *a&^verticalBits | t&verticalBits }

// tileAddress is the nametable byte for the current tile.
func (a Address) tileAddress() uint16 { return 0x2000 | uint16(a)&0x0FFF }

// attributeAddress is the attribute byte covering the current tile.
func (a Address) attributeAddress() uint16 {
	return 0x23C0 | uint16(a)&0x0C00 | (a.CoarseY()>>2)<<3 | a.CoarseX()>>2
}

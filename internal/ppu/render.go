package ppu

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	p.tick()

	p.dot++
	if p.dot > lastDot {
		p.dot -= DotsPerScanline
		p.scanline++
		if p.scanline == ScanlinesPerFrame {
			p.scanline = 0
			p.odd = !p.odd
		}
	}
}

func (p *PPU) tick() {
	switch {
	case p.scanline == postRenderScanline && p.dot == 0:
		p.publish()
	case p.scanline == vblankScanline && p.dot == 1:
		p.status.set(StatusVBlank, true)
		if p.ctrl.NMIEnabled() {
			p.raiseNMI()
		}
	case p.scanline < postRenderScanline || p.scanline == preRenderScanline:
		p.renderDot()
	}
}

func (p *PPU) publish() {
	p.back.Number = p.frames
	p.handle.Publish(p.back)
	p.back = &Frame{}
	p.frames++
}

func (p *PPU) renderDot() {
	pre := p.scanline == preRenderScanline
	rendering := p.mask.Rendering()

	switch p.dot {
	case 1:
		p.clearSecondary()
		if pre {
			p.status.set(StatusVBlank|StatusSpriteOverflow|StatusSpriteZeroHit, false)
		}
	case 257:
		p.evaluateSprites()
	case 321:
		p.loadSprites()
	}

	switch d := p.dot; {
	case d >= 2 && d <= 255, d >= 322 && d <= 337:
		p.pixel()
		switch d % 8 {
		case 1:
			p.fetchAddr = p.v.tileAddress()
			p.reloadShifters()
		case 2:
			p.tile = p.memory.Read(p.fetchAddr)
		case 3:
			p.fetchAddr = p.v.attributeAddress()
		case 4:
			p.attribute = p.memory.Read(p.fetchAddr)
			if p.v.CoarseY()&2 != 0 {
				p.attribute >>= 4
			}
			if p.v.CoarseX()&2 != 0 {
				p.attribute >>= 2
			}
		case 5:
			p.fetchAddr = p.patternAddress()
		case 6:
			p.patternLow = p.memory.Read(p.fetchAddr)
		case 7:
			p.fetchAddr += 8
		case 0:
			p.patternHigh = p.memory.Read(p.fetchAddr)
			if rendering {
				p.v.incrementX()
			}
		}
	case d == 256:
		p.pixel()
		p.patternHigh = p.memory.Read(p.fetchAddr)
		if rendering {
			p.v.incrementY()
		}
	case d == 257:
		p.pixel()
		p.reloadShifters()
		if rendering {
			p.v.copyX(p.t)
		}
	case d >= 280 && d <= 304:
		if pre && rendering {
			p.v.copyY(p.t)
		}
	case d == 1, d == 321, d == 339:
		p.fetchAddr = p.v.tileAddress()
	case d == 338:
		p.tile = p.memory.Read(p.fetchAddr)
	case d == lastDot:
		p.tile = p.memory.Read(p.fetchAddr)
		// Odd frames skip dot 0 of scanline 0.
		if pre && rendering && p.odd {
			p.dot++
		}
	}

	if p.dot == scanlineIRQAt && rendering && p.scanlineCallback != nil {
		p.scanlineCallback()
	}
}

func (p *PPU) patternAddress() uint16 {
	return p.ctrl.BackgroundTable() + uint16(p.tile)*16 + p.v.FineY()
}

func (p *PPU) reloadShifters() {
	p.bgShiftLow = p.bgShiftLow&0xFF00 | uint16(p.patternLow)
	p.bgShiftHigh = p.bgShiftHigh&0xFF00 | uint16(p.patternHigh)
	p.atLatchLow = p.attribute & 1
	p.atLatchHigh = (p.attribute >> 1) & 1
}

func (p *PPU) clearSecondary() {
	for i := range p.secondary {
		p.secondary[i] = sprite{id: noSprite, y: 0xFF, tile: 0xFF, attr: 0xFF, x: 0xFF}
	}
}

// evaluateSprites selects the sprites visible on the next scanline. OAM Y
// is the sprite's top row minus one, so sprites found here are drawn one
// line later.
func (p *PPU) evaluateSprites() {
	line := p.scanline
	if line == preRenderScanline {
		line = -1
	}
	height := p.ctrl.SpriteHeight()

	n := 0
	for i := 0; i < 64; i++ {
		entry := p.oam[i*4 : i*4+4]
		row := line - int(entry[0])
		if row < 0 || row >= height {
			continue
		}
		if n == spriteSlots {
			p.status.set(StatusSpriteOverflow, true)
			break
		}
		p.secondary[n] = sprite{id: uint8(i), y: entry[0], tile: entry[1], attr: entry[2], x: entry[3]}
		n++
	}
}

// loadSprites fetches pattern rows for the evaluated sprites.
func (p *PPU) loadSprites() {
	height := p.ctrl.SpriteHeight()
	for i := range p.secondary {
		s := p.secondary[i]
		if s.id != noSprite {
			var address uint16
			if height == 16 {
				address = uint16(s.tile&1)*0x1000 + uint16(s.tile&^1)*16
			} else {
				address = p.ctrl.SpriteTable() + uint16(s.tile)*16
			}

			row := uint16((p.scanline - int(s.y)) % height)
			if s.attr&0x80 != 0 {
				row ^= uint16(height - 1)
			}
			// Rows 8-15 of a tall sprite live in the next tile.
			address += row + row&8

			s.low = p.memory.Read(address)
			s.high = p.memory.Read(address + 8)
		}
		p.active[i] = s
	}
}

// pixel composes one output pixel and shifts the background registers.
func (p *PPU) pixel() {
	x := p.dot - 2
	if p.scanline < postRenderScanline && x >= 0 && x < ScreenWidth {
		var bg, obj uint8
		behind := false

		if p.mask.background(x) {
			shift := 15 - p.fineX
			bg = uint8(p.bgShiftHigh>>shift&1)<<1 | uint8(p.bgShiftLow>>shift&1)
			if bg != 0 {
				shift = 7 - p.fineX
				bg |= (p.atShiftHigh>>shift&1<<1 | p.atShiftLow>>shift&1) << 2
			}
		}

		if p.mask.sprites(x) {
			// Walk backwards so the lowest index wins.
			for i := spriteSlots - 1; i >= 0; i-- {
				s := &p.active[i]
				if s.id == noSprite {
					continue
				}
				col := x - int(s.x)
				if col < 0 || col >= 8 {
					continue
				}
				if s.attr&0x40 != 0 {
					col ^= 7
				}
				shift := 7 - col
				color := (s.high>>shift&1)<<1 | s.low>>shift&1
				if color == 0 {
					continue
				}
				if s.id == 0 && bg != 0 && x != 255 {
					p.status.set(StatusSpriteZeroHit, true)
				}
				obj = 16 | (s.attr&3)<<2 | color
				behind = s.attr&0x20 != 0
			}
		}

		index := bg
		if obj != 0 && (bg == 0 || !behind) {
			index = obj
		}
		if !p.mask.Rendering() {
			index = 0
		}

		entry := p.memory.Read(paletteBase + uint16(index))
		if p.mask&MaskGreyscale != 0 {
			entry &= 0x30
		}
		p.back.Pixels[p.scanline*ScreenWidth+x] = NESColorToRGB(entry)
	}

	p.bgShiftLow <<= 1
	p.bgShiftHigh <<= 1
	p.atShiftLow = p.atShiftLow<<1 | p.atLatchLow
	p.atShiftHigh = p.atShiftHigh<<1 | p.atLatchHigh
}

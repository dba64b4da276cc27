package ppu

// spriteEntry is a decoded OAM entry: the raw attribute byte is kept as a
// single byte with accessor masks rather than an order-dependent bitfield
// (spec §9: "Boolean in bitfields").
type spriteEntry struct {
	y, x   byte
	tile   byte
	attr   byte
	oamIdx int
}

func (s spriteEntry) xFlip() bool    { return s.attr&0x20 != 0 }
func (s spriteEntry) yFlip() bool    { return s.attr&0x40 != 0 }
func (s spriteEntry) bgPriority() bool { return s.attr&0x80 != 0 }
func (s spriteEntry) obp1() bool     { return s.attr&0x10 != 0 }

// spritePixel is the resolved sprite contribution for a single screen
// column, precomputed once per scanline entry into Draw mode.
type spritePixel struct {
	present     bool
	colorIdx    byte
	paletteOBP1 bool
	bgPriority  bool
}

// scanOAM walks all 40 OAM entries selecting up to 10 whose Y range covers
// ly, sorted by ascending X with OAM index as tiebreak (spec §4.3).
func scanOAM(oam *[0xA0]byte, ly byte, height int) []spriteEntry {
	var found []spriteEntry
	for i := 0; i < 40 && len(found) < 10; i++ {
		base := i * 4
		sy := oam[base+0]
		sx := oam[base+1]
		tile := oam[base+2]
		attr := oam[base+3]
		top := int(sy) - 16
		if int(ly) < top || int(ly) >= top+height {
			continue
		}
		found = append(found, spriteEntry{y: sy, x: sx, tile: tile, attr: attr, oamIdx: i})
	}
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].x < found[j-1].x; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	return found
}

// buildSpriteLine resolves, for every screen column, the topmost
// non-transparent sprite pixel (earliest in the ascending-X/OAM-index
// ordering wins, per spec §8's sprite-priority property).
func (p *PPU) buildSpriteLine() {
	for i := range p.spriteLine {
		p.spriteLine[i] = spritePixel{}
	}
	height := p.spriteHeight()
	for _, s := range p.sprites {
		row := int(p.ly) - (int(s.y) - 16)
		if s.yFlip() {
			row = height - 1 - row
		}
		tile := s.tile
		if height == 16 {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}
		addr := 0x8000 + uint16(tile)*16 + uint16(row)*2
		lo := p.vram[addr-0x8000]
		hi := p.vram[addr+1-0x8000]
		for col := 0; col < 8; col++ {
			screenX := int(s.x) - 8 + col
			if screenX < 0 || screenX >= ScreenW {
				continue
			}
			if p.spriteLine[screenX].present {
				continue // earlier sprite (by X/OAM order) already claimed this column
			}
			bit := 7 - col
			if s.xFlip() {
				bit = col
			}
			ci := ((hi>>uint(bit))&1)<<1 | ((lo >> uint(bit)) & 1)
			if ci == 0 {
				continue // transparent
			}
			p.spriteLine[screenX] = spritePixel{
				present:     true,
				colorIdx:    ci,
				paletteOBP1: s.obp1(),
				bgPriority:  s.bgPriority(),
			}
		}
	}
}

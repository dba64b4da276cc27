package ppu

// fifoCap holds up to two tiles' worth of background/window color indices.
const fifoCap = 16

// pixFIFO is a small ring buffer of 2-bit background/window color indices,
// grounded on the teacher's internal/ppu/fetcher.go `fifo` type.
type pixFIFO struct {
	buf  [fifoCap]byte
	head int
	size int
}

func (q *pixFIFO) clear()   { q.head, q.size = 0, 0 }
func (q *pixFIFO) len() int { return q.size }
func (q *pixFIFO) push(ci byte) {
	q.buf[(q.head+q.size)%fifoCap] = ci & 0x03
	q.size++
}
func (q *pixFIFO) pop() byte {
	v := q.buf[q.head]
	q.head = (q.head + 1) % fifoCap
	q.size--
	return v
}

// fetchStage names the five-state pixel-fetcher pipeline (spec §4.3).
type fetchStage int

const (
	stageTileNumber fetchStage = iota
	stageDataLow
	stageDataHigh
	stageSleep
	stagePush
)

type fetcher struct {
	fifo pixFIFO

	stage    fetchStage
	subDot   int // 0 or 1 within the current two-dot stage
	fetcherX int // tile column being fetched, in units of 8 pixels
	pushedX  int // pixels already pushed to the frame buffer this scanline
	discard  int // SCX%8 pixels still to discard at line start

	tileNum byte
	lo, hi  byte

	inWindow bool
}

func (f *fetcher) reset(scx byte) {
	f.fifo.clear()
	f.stage = stageTileNumber
	f.subDot = 0
	f.fetcherX = 0
	f.pushedX = 0
	f.discard = int(scx % 8)
	f.inWindow = false
}

// stepFetcher advances the pipeline by one dot; each of the first four
// stages (tile number, data low, data high, sleep) spans two dots (spec: "every second dot advance the fetcher").
func (p *PPU) stepFetcher() {
	f := &p.fetch

	useWindow := p.windowVisibleAt(f.pushedX)
	if useWindow && !f.inWindow {
		f.inWindow = true
		f.fifo.clear()
		f.stage = stageTileNumber
		f.subDot = 0
		f.fetcherX = 0
	}

	switch f.stage {
	case stageTileNumber:
		f.subDot++
		if f.subDot >= 2 {
			f.subDot = 0
			f.tileNum = p.fetchTileNumber(f)
			f.stage = stageDataLow
		}
	case stageDataLow:
		f.subDot++
		if f.subDot >= 2 {
			f.subDot = 0
			f.lo = p.fetchTileRowByte(f, false)
			f.stage = stageDataHigh
		}
	case stageDataHigh:
		f.subDot++
		if f.subDot >= 2 {
			f.subDot = 0
			f.hi = p.fetchTileRowByte(f, true)
			f.stage = stageSleep
		}
	case stageSleep:
		f.subDot++
		if f.subDot >= 2 {
			f.subDot = 0
			f.stage = stagePush
		}
	case stagePush:
		if f.fifo.len() == 0 {
			for px := 0; px < 8; px++ {
				bit := 7 - byte(px)
				ci := ((f.hi>>bit)&1)<<1 | ((f.lo >> bit) & 1)
				f.fifo.push(ci)
			}
			f.fetcherX++
		}
		f.stage = stageTileNumber
	}
}

// windowVisibleAt reports whether the window layer covers screen column x
// on the current scanline.
func (p *PPU) windowVisibleAt(x int) bool {
	if p.lcdc&0x20 == 0 { // window disabled
		return false
	}
	if p.ly < p.wy {
		return false
	}
	wxStart := int(p.wx) - 7
	if x < wxStart {
		return false
	}
	p.winActive = true
	return true
}

func (p *PPU) fetchTileNumber(f *fetcher) byte {
	var mapBase uint16
	var mapX, mapY uint16
	if f.inWindow {
		if p.lcdc&0x40 != 0 {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		mapX = uint16(f.fetcherX) & 31
		mapY = uint16(p.winLine>>3) & 31
	} else {
		if p.lcdc&0x08 != 0 {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		bgX := (uint16(p.scx)>>3 + uint16(f.fetcherX)) & 31
		bgY := uint16(p.ly) + uint16(p.scy)
		mapX = bgX
		mapY = (bgY >> 3) & 31
	}
	addr := mapBase + mapY*32 + mapX
	return p.vram[addr-0x8000]
}

func (p *PPU) tileRowAddr(f *fetcher) uint16 {
	var fineY uint16
	if f.inWindow {
		fineY = uint16(p.winLine) & 7
	} else {
		fineY = (uint16(p.ly) + uint16(p.scy)) & 7
	}
	if p.lcdc&0x10 != 0 {
		return 0x8000 + uint16(f.tileNum)*16 + fineY*2
	}
	return 0x9000 + uint16(int8(f.tileNum))*16 + fineY*2
}

func (p *PPU) fetchTileRowByte(f *fetcher, high bool) byte {
	addr := p.tileRowAddr(f)
	if high {
		addr++
	}
	return p.vram[addr-0x8000]
}

// tryPush shifts one composited pixel from the BG FIFO to the frame buffer,
// discarding the scroll-fraction pixels at the start of the line and
// overlaying the topmost sprite pixel per spec §4.3.
func (p *PPU) tryPush() {
	f := &p.fetch
	if f.fifo.len() == 0 || f.pushedX >= ScreenW {
		return
	}
	ci := f.fifo.pop()
	if f.discard > 0 {
		f.discard--
		return
	}
	bgEnabled := p.lcdc&0x01 != 0
	if !bgEnabled {
		ci = 0
	}
	color := ci
	palette := p.bgp
	if p.lcdc&0x02 != 0 { // sprites enabled
		sp := p.spriteLine[f.pushedX]
		if sp.present && (!sp.bgPriority || ci == 0) {
			color = sp.colorIdx
			if sp.paletteOBP1 {
				palette = p.obp1
			} else {
				palette = p.obp0
			}
		}
	}
	shade := (palette >> (color * 2)) & 0x03
	p.writePixel(f.pushedX, int(p.ly), shade)
	f.pushedX++
}

var dmgShades = [4]uint32{0xFFFFFFFF, 0xFFAAAAAA, 0xFF555555, 0xFF000000}

func (p *PPU) writePixel(x int, y int, shade byte) {
	c := dmgShades[shade&0x03]
	i := (y*ScreenW + x) * 4
	p.fb[i+0] = byte(c >> 16) // R
	p.fb[i+1] = byte(c >> 8)  // G
	p.fb[i+2] = byte(c)       // B
	p.fb[i+3] = byte(c >> 24) // A
}

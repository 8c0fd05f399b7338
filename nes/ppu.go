package nes

/*
Timing: 262 scanlines of 341 dots per frame, one dot per PPU clock and
three PPU clocks per CPU cycle.

  0-239   visible, dots 1-256 output pixels
  240     post-render, idle
  241-260 vblank, set at 241 dot 1
  261     pre-render, refills the shifters for line 0

On render lines every 8 dots fetch one tile row:
  dot 1 nametable byte, 3 attribute byte, 5 pattern low, 7 pattern high,
  and the shifters reload on the 8th dot.
*/

// PPU is the 2C02 picture processor. Memory is the PPU bus below the
// palette; palette RAM lives here.
type PPU struct {
	Memory
	Cycle    int
	ScanLine int
	Frame    int

	paletteData [32]byte
	oamData     [256]byte
	frame       *Frame

	// last value written to any register, read back as open bus
	register byte

	ctrl        ppuCtrl
	mask        ppuMask
	status      ppuStatus
	nmiPrevious bool

	v uint16 // current VRAM address, 15 bit
	t uint16 // temporary VRAM address, 15 bit
	x byte   // fine x scroll, 3 bit
	w byte   // write toggle for $2005/$2006
	f byte   // odd frame

	nameTableByte      byte
	attributeTableByte byte
	lowTileByte        byte
	highTileByte       byte

	// background shifters, high byte is the tile being drawn
	patternLo uint16
	patternHi uint16
	attribLo  uint16
	attribHi  uint16

	spriteCount      int
	spritePatterns   [8]uint32 // 8 pixels of 4 bits
	spritePositions  [8]byte
	spritePriorities [8]byte
	spriteIndexes    [8]byte

	oamAddress   byte
	bufferedData byte

	Debug DebugFeatures

	triggerNMI   func()
	frameSink    func(*Frame)
	scanlineHook func()
}

// PPUState is everything needed to resume a PPU mid-frame.
type PPUState struct {
	Cycle, ScanLine, Frame int

	Palette [32]byte
	OAM     [256]byte
	Pixels  []uint32

	Register    byte
	Ctrl        byte
	Mask        byte
	Status      byte
	NMIPrevious bool

	V, T    uint16
	X, W, F byte

	NameTableByte, AttributeTableByte, LowTileByte, HighTileByte byte
	PatternLo, PatternHi, AttribLo, AttribHi                     uint16

	SpriteCount      int
	SpritePatterns   [8]uint32
	SpritePositions  [8]byte
	SpritePriorities [8]byte
	SpriteIndexes    [8]byte

	OAMAddress   byte
	BufferedData byte
}

// NewPPU wires a PPU to its bus. nmi is called on every rising NMI edge and
// sink receives each finished frame.
func NewPPU(mem Memory, nmi func(), sink func(*Frame)) *PPU {
	ppu := PPU{Memory: mem, triggerNMI: nmi, frameSink: sink}
	ppu.frame = newFrame()
	ppu.Reset()
	return &ppu
}

// Reset starts the raster at the top of the first visible line, so the
// first frame out is a completely drawn one.
func (ppu *PPU) Reset() {
	ppu.Cycle = 0
	ppu.ScanLine = 0
	ppu.Frame = 0
	ppu.f = 0
	ppu.ctrl = 0
	ppu.mask = 0
	ppu.status = 0
	ppu.nmiPrevious = false
	ppu.register = 0
	ppu.v, ppu.t, ppu.x, ppu.w = 0, 0, 0, 0
	ppu.oamAddress = 0
	ppu.bufferedData = 0
	ppu.spriteCount = 0
	ppu.patternLo, ppu.patternHi, ppu.attribLo, ppu.attribHi = 0, 0, 0, 0
	ppu.paletteData = [32]byte{}
	ppu.oamData = [256]byte{}
	ppu.frame = newFrame()
}

// readVRAM is the full PPU address space, palette included.
func (ppu *PPU) readVRAM(addr uint16) byte {
	addr %= 0x4000
	if addr >= 0x3f00 {
		return ppu.readPalette(addr % 32)
	}
	return ppu.Read(addr)
}

func (ppu *PPU) writeVRAM(addr uint16, value byte) {
	addr %= 0x4000
	if addr >= 0x3f00 {
		ppu.writePalette(addr%32, value)
		return
	}
	ppu.Write(addr, value)
}

// $3F10/$3F14/$3F18/$3F1C mirror the backdrop entries
func (ppu *PPU) readPalette(addr uint16) byte {
	if addr >= 16 && addr%4 == 0 {
		addr -= 16
	}
	return ppu.paletteData[addr]
}

func (ppu *PPU) writePalette(addr uint16, value byte) {
	if addr >= 16 && addr%4 == 0 {
		addr -= 16
	}
	ppu.paletteData[addr] = value
}

func (ppu *PPU) tick() {
	if ppu.mask.renderingEnabled() {
		// odd frames skip the last pre-render dot
		if ppu.f == 1 && ppu.ScanLine == 261 && ppu.Cycle == 339 {
			ppu.Cycle = 0
			ppu.ScanLine = 0
			ppu.Frame++
			ppu.f ^= 1
			return
		}
	}
	ppu.Cycle++
	if ppu.Cycle > 340 {
		ppu.Cycle = 0
		ppu.ScanLine++
		if ppu.ScanLine > 261 {
			ppu.ScanLine = 0
			ppu.Frame++
			ppu.f ^= 1
		}
	}
}

// Tick advances the PPU by one dot. It must be called three times per CPU
// cycle; nothing checks that.
func (ppu *PPU) Tick() {
	ppu.tick()

	renderEnable := ppu.mask.renderingEnabled()

	visibleLine := ppu.ScanLine < 240
	preLine := ppu.ScanLine == 261
	renderLine := visibleLine || preLine

	visibleCycle := ppu.Cycle > 0 && ppu.Cycle <= 256
	preFetchCycle := ppu.Cycle >= 321 && ppu.Cycle <= 336
	fetchCycle := preFetchCycle || visibleCycle

	if visibleLine && visibleCycle {
		if renderEnable {
			ppu.renderPixel()
		} else {
			ppu.frame.Pixels[ppu.ScanLine*FrameWidth+ppu.Cycle-1] = Palette[ppu.readPalette(0)&0x3f]
		}
	}

	if renderEnable {
		if renderLine && fetchCycle {
			ppu.shiftBackground()
			switch ppu.Cycle % 8 {
			case 1:
				ppu.fetchNameTableByte()
			case 3:
				ppu.fetchAttributeTableByte()
			case 5:
				ppu.fetchLowTileByte()
			case 7:
				ppu.fetchHighTileByte()
			case 0:
				ppu.loadBackground()
			}
		}

		if preLine && ppu.Cycle >= 280 && ppu.Cycle <= 304 {
			ppu.copyY()
		}

		if renderLine {
			if fetchCycle && ppu.Cycle%8 == 0 {
				ppu.incrementX()
			}
			if ppu.Cycle == 256 {
				ppu.incrementY()
			}
			if ppu.Cycle == 257 {
				ppu.copyX()
			}
			if ppu.Cycle == 260 && ppu.scanlineHook != nil {
				ppu.scanlineHook()
			}
		}

		if ppu.Cycle == 257 {
			if visibleLine {
				ppu.evaluateSprites()
			} else {
				ppu.spriteCount = 0
			}
		}
	}

	if ppu.ScanLine == 241 && ppu.Cycle == 1 {
		ppu.setVBlank()
	}

	if preLine && ppu.Cycle == 1 {
		ppu.status.set(statusVBlank|statusSpriteZeroHit|statusSpriteOverflow, false)
		ppu.nmiChange()
	}
}

func (ppu *PPU) renderPixel() {
	x := ppu.Cycle - 1
	y := ppu.ScanLine

	background := ppu.backgroundPixel()
	i, sprite := ppu.spritePixel()

	if x < 8 && !ppu.mask.showLeftBackground() {
		background = 0
	}
	if x < 8 && !ppu.mask.showLeftSprites() {
		sprite = 0
	}

	b := background%4 != 0
	s := sprite%4 != 0

	var color byte
	switch {
	case !b && !s:
		color = 0
	case !b && s:
		color = sprite | 0x10
	case b && !s:
		color = background
	default:
		if ppu.spriteIndexes[i] == 0 && x < 255 {
			ppu.status.set(statusSpriteZeroHit, true)
		}
		if ppu.spritePriorities[i] == 0 {
			color = sprite | 0x10
		} else {
			color = background
		}
	}

	index := ppu.readPalette(uint16(color)) & 0x3f
	if ppu.mask.grayscale() {
		index &= 0x30
	}
	ppu.frame.Pixels[y*FrameWidth+x] = Palette[index]
}

func (ppu *PPU) spritePixel() (byte, byte) {
	if !ppu.mask.showSprites() {
		return 0, 0
	}
	// lower OAM index wins, and the list is kept in OAM order
	for i := 0; i < ppu.spriteCount; i++ {
		offset := ppu.Cycle - 1 - int(ppu.spritePositions[i])
		if offset < 0 || offset > 7 {
			continue
		}
		offset = 7 - offset
		color := byte((ppu.spritePatterns[i] >> byte(offset*4)) & 0x0f)
		if color%4 == 0 {
			continue
		}
		return byte(i), color
	}
	return 0, 0
}

// evaluateSprites collects up to eight sprites covering the current line.
func (ppu *PPU) evaluateSprites() {
	h := ppu.ctrl.spriteHeight()
	count := 0
	for i := 0; i < 64; i++ {
		y := ppu.oamData[i*4+0]
		a := ppu.oamData[i*4+2]
		x := ppu.oamData[i*4+3]
		row := ppu.ScanLine - int(y)
		if row < 0 || row >= h {
			continue
		}
		if count < 8 {
			ppu.spritePatterns[count] = ppu.fetchSpritePattern(i, row)
			ppu.spritePositions[count] = x
			ppu.spritePriorities[count] = (a >> 5) & 1
			ppu.spriteIndexes[count] = byte(i)
		}
		count++
	}
	if count > 8 {
		count = 8
		ppu.status.set(statusSpriteOverflow, true)
	}
	ppu.spriteCount = count
}

// fetchSpritePattern returns row of sprite i as eight 4 bit pixels, flips applied.
func (ppu *PPU) fetchSpritePattern(i, row int) uint32 {
	tile := ppu.oamData[i*4+1]
	attribute := ppu.oamData[i*4+2]

	var address uint16
	if ppu.ctrl.spriteHeight() == 8 {
		if attribute&0x80 == 0x80 {
			row = 7 - row
		}
		address = ppu.ctrl.spriteTable() + uint16(tile)*16 + uint16(row)
	} else {
		if attribute&0x80 == 0x80 {
			row = 15 - row
		}
		// 8x16 sprites pick their table with bit 0 of the tile number
		table := uint16(tile & 1)
		tile &= 0xfe
		if row > 7 {
			tile++
			row -= 8
		}
		address = 0x1000*table + uint16(tile)*16 + uint16(row)
	}

	lowTileByte := ppu.Read(address)
	highTileByte := ppu.Read(address + 8)
	high := (attribute & 3) << 2

	var data uint32
	for i := 0; i < 8; i++ {
		var p1, p2 byte
		if attribute&0x40 == 0x40 {
			p1 = (lowTileByte & 1) << 0
			p2 = (highTileByte & 1) << 1
			lowTileByte >>= 1
			highTileByte >>= 1
		} else {
			p1 = (lowTileByte & 0x80) >> 7
			p2 = (highTileByte & 0x80) >> 6
			lowTileByte <<= 1
			highTileByte <<= 1
		}
		data <<= 4
		data |= uint32(high | p1 | p2)
	}
	return data
}

func (ppu *PPU) backgroundPixel() byte {
	if !ppu.mask.showBackground() {
		return 0
	}
	bit := 15 - uint16(ppu.x)
	p := byte((ppu.patternLo>>bit)&1) | byte((ppu.patternHi>>bit)&1)<<1
	a := byte((ppu.attribLo>>bit)&1) | byte((ppu.attribHi>>bit)&1)<<1
	return a<<2 | p
}

func (ppu *PPU) shiftBackground() {
	ppu.patternLo <<= 1
	ppu.patternHi <<= 1
	ppu.attribLo <<= 1
	ppu.attribHi <<= 1
}

// loadBackground moves the fetched tile row into the low byte of the shifters.
func (ppu *PPU) loadBackground() {
	ppu.patternLo = ppu.patternLo&0xff00 | uint16(ppu.lowTileByte)
	ppu.patternHi = ppu.patternHi&0xff00 | uint16(ppu.highTileByte)
	ppu.attribLo &= 0xff00
	ppu.attribHi &= 0xff00
	if ppu.attributeTableByte&1 != 0 {
		ppu.attribLo |= 0x00ff
	}
	if ppu.attributeTableByte&2 != 0 {
		ppu.attribHi |= 0x00ff
	}
}

func (ppu *PPU) fetchNameTableByte() {
	address := 0x2000 | (ppu.v & 0x0fff)
	ppu.nameTableByte = ppu.Read(address)
}

// each attribute byte covers 4x4 tiles, two bits per 2x2 quadrant
func (ppu *PPU) fetchAttributeTableByte() {
	v := ppu.v
	address := 0x23c0 | (v & 0x0c00) | ((v >> 4) & 0x38) | ((v >> 2) & 0x07)
	shift := ((v >> 4) & 4) | (v & 2)
	ppu.attributeTableByte = (ppu.Read(address) >> shift) & 3
}

func (ppu *PPU) fetchLowTileByte() {
	fineY := (ppu.v >> 12) & 7
	address := ppu.ctrl.backgroundTable() + uint16(ppu.nameTableByte)*16 + fineY
	ppu.lowTileByte = ppu.Read(address)
}

func (ppu *PPU) fetchHighTileByte() {
	fineY := (ppu.v >> 12) & 7
	address := ppu.ctrl.backgroundTable() + uint16(ppu.nameTableByte)*16 + fineY
	ppu.highTileByte = ppu.Read(address + 8)
}

// v: ....A.. ...BCDEF <- t: ....A.. ...BCDEF
func (ppu *PPU) copyX() {
	ppu.v = (ppu.v & 0xfbe0) | (ppu.t & 0x041f)
}

// v: GHIA.BC DEF..... <- t: GHIA.BC DEF.....
func (ppu *PPU) copyY() {
	ppu.v = (ppu.v & 0x841f) | (ppu.t & 0x7be0)
}

func (ppu *PPU) incrementX() {
	if ppu.v&0x001f == 31 {
		ppu.v &= 0xffe0
		ppu.v ^= 0x0400
	} else {
		ppu.v++
	}
}

func (ppu *PPU) incrementY() {
	if ppu.v&0x7000 != 0x7000 {
		ppu.v += 0x1000
		return
	}
	ppu.v &= 0x8fff
	y := (ppu.v & 0x03e0) >> 5
	switch y {
	case 29:
		y = 0
		ppu.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	ppu.v = (ppu.v & 0xfc1f) | (y << 5)
}

func (ppu *PPU) setVBlank() {
	ppu.emitFrame()
	ppu.status.set(statusVBlank, true)
	ppu.nmiChange()
}

// emitFrame hands the finished buffer to the sink and starts a fresh one.
func (ppu *PPU) emitFrame() {
	frame := ppu.frame
	frame.Number = ppu.Frame
	ppu.renderDebug(frame)
	ppu.frame = newFrame()
	if ppu.frameSink != nil {
		ppu.frameSink(frame)
	}
}

func (ppu *PPU) Snapshot() PPUState {
	return PPUState{
		Cycle:              ppu.Cycle,
		ScanLine:           ppu.ScanLine,
		Frame:              ppu.Frame,
		Palette:            ppu.paletteData,
		OAM:                ppu.oamData,
		Pixels:             append([]uint32(nil), ppu.frame.Pixels...),
		Register:           ppu.register,
		Ctrl:               byte(ppu.ctrl),
		Mask:               byte(ppu.mask),
		Status:             byte(ppu.status),
		NMIPrevious:        ppu.nmiPrevious,
		V:                  ppu.v,
		T:                  ppu.t,
		X:                  ppu.x,
		W:                  ppu.w,
		F:                  ppu.f,
		NameTableByte:      ppu.nameTableByte,
		AttributeTableByte: ppu.attributeTableByte,
		LowTileByte:        ppu.lowTileByte,
		HighTileByte:       ppu.highTileByte,
		PatternLo:          ppu.patternLo,
		PatternHi:          ppu.patternHi,
		AttribLo:           ppu.attribLo,
		AttribHi:           ppu.attribHi,
		SpriteCount:        ppu.spriteCount,
		SpritePatterns:     ppu.spritePatterns,
		SpritePositions:    ppu.spritePositions,
		SpritePriorities:   ppu.spritePriorities,
		SpriteIndexes:      ppu.spriteIndexes,
		OAMAddress:         ppu.oamAddress,
		BufferedData:       ppu.bufferedData,
	}
}

func (ppu *PPU) Restore(s PPUState) {
	ppu.Cycle = s.Cycle
	ppu.ScanLine = s.ScanLine
	ppu.Frame = s.Frame
	ppu.paletteData = s.Palette
	ppu.oamData = s.OAM
	ppu.frame = newFrame()
	copy(ppu.frame.Pixels, s.Pixels)
	ppu.register = s.Register
	ppu.ctrl = ppuCtrl(s.Ctrl)
	ppu.mask = ppuMask(s.Mask)
	ppu.status = ppuStatus(s.Status)
	ppu.nmiPrevious = s.NMIPrevious
	ppu.v = s.V
	ppu.t = s.T
	ppu.x = s.X
	ppu.w = s.W
	ppu.f = s.F
	ppu.nameTableByte = s.NameTableByte
	ppu.attributeTableByte = s.AttributeTableByte
	ppu.lowTileByte = s.LowTileByte
	ppu.highTileByte = s.HighTileByte
	ppu.patternLo = s.PatternLo
	ppu.patternHi = s.PatternHi
	ppu.attribLo = s.AttribLo
	ppu.attribHi = s.AttribHi
	ppu.spriteCount = s.SpriteCount
	ppu.spritePatterns = s.SpritePatterns
	ppu.spritePositions = s.SpritePositions
	ppu.spritePriorities = s.SpritePriorities
	ppu.spriteIndexes = s.SpriteIndexes
	ppu.oamAddress = s.OAMAddress
	ppu.bufferedData = s.BufferedData
}

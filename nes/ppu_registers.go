package nes

// $2000 PPUCTRL
type ppuCtrl byte

const (
	ctrlNametable       ppuCtrl = 0x03 // 0: $2000; 1: $2400; 2: $2800; 3: $2C00
	ctrlIncrement       ppuCtrl = 0x04 // 0: add 1; 1: add 32
	ctrlSpriteTable     ppuCtrl = 0x08 // ignored in 8x16 mode
	ctrlBackgroundTable ppuCtrl = 0x10
	ctrlSpriteSize      ppuCtrl = 0x20 // 0: 8x8; 1: 8x16
	ctrlMasterSlave     ppuCtrl = 0x40
	ctrlNMI             ppuCtrl = 0x80
)

func (c ppuCtrl) nametable() uint16 {
	return uint16(c & ctrlNametable)
}

func (c ppuCtrl) increment() uint16 {
	if c&ctrlIncrement != 0 {
		return 32
	}
	return 1
}

func (c ppuCtrl) spriteTable() uint16 {
	if c&ctrlSpriteTable != 0 {
		return 0x1000
	}
	return 0
}

func (c ppuCtrl) backgroundTable() uint16 {
	if c&ctrlBackgroundTable != 0 {
		return 0x1000
	}
	return 0
}

func (c ppuCtrl) spriteHeight() int {
	if c&ctrlSpriteSize != 0 {
		return 16
	}
	return 8
}

func (c ppuCtrl) nmiEnabled() bool {
	return c&ctrlNMI != 0
}

// $2001 PPUMASK
type ppuMask byte

const (
	maskGrayscale      ppuMask = 0x01
	maskLeftBackground ppuMask = 0x02 // show background in the leftmost 8 pixels
	maskLeftSprites    ppuMask = 0x04
	maskBackground     ppuMask = 0x08
	maskSprites        ppuMask = 0x10
)

func (m ppuMask) grayscale() bool          { return m&maskGrayscale != 0 }
func (m ppuMask) showLeftBackground() bool { return m&maskLeftBackground != 0 }
func (m ppuMask) showLeftSprites() bool    { return m&maskLeftSprites != 0 }
func (m ppuMask) showBackground() bool     { return m&maskBackground != 0 }
func (m ppuMask) showSprites() bool        { return m&maskSprites != 0 }

func (m ppuMask) renderingEnabled() bool {
	return m&(maskBackground|maskSprites) != 0
}

// $2002 PPUSTATUS. The low five bits are open bus and never stored.
type ppuStatus byte

const (
	statusSpriteOverflow ppuStatus = 0x20
	statusSpriteZeroHit  ppuStatus = 0x40
	statusVBlank         ppuStatus = 0x80
)

func (s ppuStatus) vblank() bool {
	return s&statusVBlank != 0
}

func (s *ppuStatus) set(bits ppuStatus, on bool) {
	if on {
		*s |= bits
	} else {
		*s &^= bits
	}
}

// https://wiki.nesdev.org/w/index.php?title=PPU_registers
func (ppu *PPU) readRegister(address uint16) byte {
	switch address {
	case 0x2002:
		return ppu.readStatus()
	case 0x2004:
		return ppu.readOAMData()
	case 0x2007:
		return ppu.readData()
	}
	// write only registers read back the PPU's own bus latch
	return ppu.register
}

// peekRegister reads a register without side effects.
func (ppu *PPU) peekRegister(address uint16) byte {
	switch address {
	case 0x2002:
		return ppu.register&0x1f | byte(ppu.status)
	case 0x2004:
		return ppu.oamData[ppu.oamAddress]
	case 0x2007:
		return ppu.bufferedData
	}
	return ppu.register
}

func (ppu *PPU) writeRegister(addr uint16, value byte) {
	ppu.register = value
	switch addr {
	case 0x2000:
		ppu.writeControl(value)
	case 0x2001:
		ppu.mask = ppuMask(value)
	case 0x2003:
		ppu.oamAddress = value
	case 0x2004:
		ppu.writeOAMData(value)
	case 0x2005:
		ppu.writeScroll(value)
	case 0x2006:
		ppu.writeAddress(value)
	case 0x2007:
		ppu.writeData(value)
	}
}

func (ppu *PPU) readOAMData() byte {
	data := ppu.oamData[ppu.oamAddress]
	// attribute bits 2-4 do not exist
	if ppu.oamAddress&0x03 == 0x02 {
		data &= 0xe3
	}
	return data
}

func (ppu *PPU) writeOAMData(value byte) {
	ppu.oamData[ppu.oamAddress] = value
	ppu.oamAddress++
}

// $2005 scroll, double write
func (ppu *PPU) writeScroll(value byte) {
	if ppu.w == 0 {
		// t: ....... ...ABCDE <- d: ABCDE...
		// x:              FGH <- d: .....FGH
		ppu.t = (ppu.t & 0xffe0) | (uint16(value) >> 3)
		ppu.x = value & 0x07
		ppu.w = 1
	} else {
		// t: .CBA..HG FED..... <- d: HGFEDCBA
		ppu.t = (ppu.t & 0x8fff) | ((uint16(value) & 0x07) << 12)
		ppu.t = (ppu.t & 0xfc1f) | ((uint16(value) & 0xf8) << 2)
		ppu.w = 0
	}
}

// $2006 VRAM address, double write, high byte first
func (ppu *PPU) writeAddress(value byte) {
	if ppu.w == 0 {
		// t: .0FEDCBA ........ <- d: ..FEDCBA
		ppu.t = (ppu.t & 0x80ff) | (uint16(value&0x3f) << 8)
		ppu.w = 1
	} else {
		ppu.t = (ppu.t & 0xff00) | uint16(value)
		ppu.v = ppu.t
		ppu.w = 0
	}
}

// $2007 read. Everything below the palette goes through the read buffer.
func (ppu *PPU) readData() byte {
	value := ppu.readVRAM(ppu.v)
	if ppu.v%0x4000 < 0x3f00 {
		buffered := ppu.bufferedData
		ppu.bufferedData = value
		value = buffered
	} else {
		// the buffer picks up the nametable byte hidden under the palette
		ppu.bufferedData = ppu.Read(ppu.v - 0x1000)
	}
	ppu.v += ppu.ctrl.increment()
	return value
}

func (ppu *PPU) writeData(value byte) {
	ppu.writeVRAM(ppu.v, value)
	ppu.v += ppu.ctrl.increment()
}

func (ppu *PPU) readStatus() byte {
	result := ppu.register&0x1f | byte(ppu.status)
	ppu.status.set(statusVBlank, false)
	ppu.nmiChange()
	ppu.w = 0
	return result
}

func (ppu *PPU) writeControl(value byte) {
	ppu.ctrl = ppuCtrl(value)
	ppu.nmiChange()
	// t: ...BA.. ........ <- d: ......BA
	ppu.t = (ppu.t & 0xf3ff) | (ppu.ctrl.nametable() << 10)
}

// nmiChange raises NMI on a rising edge of vblank && NMI enable, so turning
// NMI on during vblank fires at once.
func (ppu *PPU) nmiChange() {
	nmi := ppu.ctrl.nmiEnabled() && ppu.status.vblank()
	if nmi && !ppu.nmiPrevious && ppu.triggerNMI != nil {
		ppu.triggerNMI()
	}
	ppu.nmiPrevious = nmi
}

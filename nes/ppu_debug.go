package nes

const (
	PatternTablesWidth  = 256
	PatternTablesHeight = 128
	NametablesWidth     = 512
	NametablesHeight    = 480
)

// DebugFeatures selects the extra views rendered into each Frame. Palette
// (0-7) picks the palette the pattern and nametable views are drawn with.
type DebugFeatures struct {
	PatternTables bool
	Nametables    bool
	Palettes      bool
	Palette       int
}

func (ppu *PPU) renderDebug(frame *Frame) {
	if ppu.Debug.PatternTables {
		frame.PatternTables = ppu.renderPatternTables()
	}
	if ppu.Debug.Nametables {
		frame.Nametables = ppu.renderNametables()
	}
	if ppu.Debug.Palettes {
		frame.Palettes = ppu.renderPalettes()
	}
}

func (ppu *PPU) debugColor(pixel byte) uint32 {
	id := uint16(ppu.Debug.Palette&7) << 2
	return Palette[ppu.readPalette(id|uint16(pixel))&0x3f]
}

// drawTile draws the 8x8 tile at pattern address tile into dst, whose rows
// are stride pixels wide.
func (ppu *PPU) drawTile(dst []uint32, stride, x0, y0 int, tile uint16) {
	for y := 0; y < 8; y++ {
		lo := ppu.Read(tile + uint16(y))
		hi := ppu.Read(tile + uint16(y) + 8)
		for x := 0; x < 8; x++ {
			pixel := (lo>>(7-x))&1 | ((hi>>(7-x))&1)<<1
			dst[(y0+y)*stride+x0+x] = ppu.debugColor(pixel)
		}
	}
}

// both pattern tables side by side, 16x16 tiles each
func (ppu *PPU) renderPatternTables() []uint32 {
	out := make([]uint32, PatternTablesWidth*PatternTablesHeight)
	for table := 0; table < 2; table++ {
		for i := 0; i < 256; i++ {
			x := table*128 + (i%16)*8
			y := (i / 16) * 8
			ppu.drawTile(out, PatternTablesWidth, x, y, uint16(table*0x1000+i*16))
		}
	}
	return out
}

// the four logical nametables in a 2x2 grid, after mirroring
func (ppu *PPU) renderNametables() []uint32 {
	out := make([]uint32, NametablesWidth*NametablesHeight)
	for nt := 0; nt < 4; nt++ {
		base := uint16(0x2000 + nt*0x400)
		ox := (nt % 2) * 256
		oy := (nt / 2) * 240
		for i := 0; i < 960; i++ {
			tile := ppu.Read(base + uint16(i))
			address := ppu.ctrl.backgroundTable() + uint16(tile)*16
			ppu.drawTile(out, NametablesWidth, ox+(i%32)*8, oy+(i/32)*8, address)
		}
	}
	return out
}

func (ppu *PPU) renderPalettes() [][4]uint32 {
	out := make([][4]uint32, 8)
	for p := range out {
		for c := 0; c < 4; c++ {
			out[p][c] = Palette[ppu.readPalette(uint16(p*4+c))&0x3f]
		}
	}
	return out
}

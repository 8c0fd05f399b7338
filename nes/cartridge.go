package nes

// Nametable mirroring modes, indexes into MirrorLookup.
const (
	MirrorHorizontal = 0
	MirrorVertical   = 1
	MirrorSingle0    = 2
	MirrorSingle1    = 3
	MirrorFour       = 4
)

var MirrorLookup = [...][4]uint16{
	{0, 0, 1, 1},
	{0, 1, 0, 1},
	{0, 0, 0, 0},
	{1, 1, 1, 1},
	{0, 1, 2, 3},
}

// MirrorAddress folds a PPU address in 0x2000-0x3EFF onto a physical
// nametable offset in 0..0x0FFF. Only four-screen carts use offsets past 0x07FF.
func MirrorAddress(mode byte, address uint16) uint16 {
	address = (address - 0x2000) % 0x1000
	table := address / 0x0400
	offset := address % 0x0400
	return MirrorLookup[mode][table]*0x0400 + offset
}

type Cartridge struct {
	PRG     []byte
	CHR     []byte
	SRAM    []byte // PRG RAM at 0x6000
	VRAM    []byte // extra 2K of nametable RAM on four-screen boards
	Mirror  byte
	Mapper  uint16
	Battery bool
	CHRRAM  bool

	pristinePRG    []byte
	pristineCHR    []byte
	pristineMirror byte
}

// CartridgeState holds the writable parts of a cartridge.
type CartridgeState struct {
	Mirror byte
	SRAM   []byte
	VRAM   []byte
	CHR    []byte `json:",omitempty"`
}

func NewCartridge(prg []byte, chr []byte, mapper uint16, mirror byte) *Cartridge {
	card := &Cartridge{
		PRG:    prg,
		CHR:    chr,
		SRAM:   make([]byte, 0x2000),
		Mirror: mirror,
		Mapper: mapper,
	}
	if len(chr) == 0 {
		card.CHR = make([]byte, 0x2000)
		card.CHRRAM = true
	}
	if mirror == MirrorFour {
		card.VRAM = make([]byte, 0x0800)
	}
	card.pristinePRG = append([]byte(nil), card.PRG...)
	card.pristineCHR = append([]byte(nil), card.CHR...)
	card.pristineMirror = mirror
	return card
}

// Reset puts the cartridge back to its power-on contents.
func (card *Cartridge) Reset() {
	copy(card.PRG, card.pristinePRG)
	copy(card.CHR, card.pristineCHR)
	card.Mirror = card.pristineMirror
	for i := range card.SRAM {
		card.SRAM[i] = 0
	}
	for i := range card.VRAM {
		card.VRAM[i] = 0
	}
}

func (card *Cartridge) Snapshot() CartridgeState {
	s := CartridgeState{
		Mirror: card.Mirror,
		SRAM:   append([]byte(nil), card.SRAM...),
		VRAM:   append([]byte(nil), card.VRAM...),
	}
	if card.CHRRAM {
		s.CHR = append([]byte(nil), card.CHR...)
	}
	return s
}

func (card *Cartridge) Restore(s CartridgeState) {
	card.Mirror = s.Mirror
	copy(card.SRAM, s.SRAM)
	copy(card.VRAM, s.VRAM)
	if card.CHRRAM {
		copy(card.CHR, s.CHR)
	}
}

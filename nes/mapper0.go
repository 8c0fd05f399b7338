package nes

import "fmt"

// Mapper0 is NROM: 16K or 32K of PRG with no banking. A single 16K bank
// appears at both 0x8000 and 0xC000.
type Mapper0 struct {
	baseMapper
}

func NewMapper0(card *Cartridge) Mapper {
	return &Mapper0{baseMapper{card}}
}

func (m *Mapper0) ReadPrgRom(addr uint16) byte {
	return m.card.PRG[int(addr-0x8000)%len(m.card.PRG)]
}

func (m *Mapper0) Snapshot() (MapperState, error) {
	return MapperState{ID: 0}, nil
}

func (m *Mapper0) Restore(s MapperState) error {
	if s.ID != 0 {
		return fmt.Errorf("mapper 0: cannot restore state of mapper %d", s.ID)
	}
	return nil
}

package nes

// Mapper71 is the Camerica/Codemasters board. It banks like UxROM, and the
// Fire Hawk variant selects a single-screen nametable through 0x9000-0x9FFF.
type Mapper71 struct {
	baseMapper
	prgBanks int
	prgBank  int
}

type mapper71State struct {
	PrgBank int
}

func NewMapper71(card *Cartridge) Mapper {
	m := &Mapper71{baseMapper: baseMapper{card}}
	m.prgBanks = m.prgBankCount(0x4000)
	return m
}

func (m *Mapper71) ReadPrgRom(addr uint16) byte {
	if addr >= 0xC000 {
		return m.card.PRG[(m.prgBanks-1)*0x4000+int(addr-0xC000)]
	}
	return m.card.PRG[m.prgBank*0x4000+int(addr-0x8000)]
}

func (m *Mapper71) WritePrgRom(addr uint16, value byte) {
	switch {
	case addr >= 0x9000 && addr <= 0x9fff:
		if value&0x10 == 0 {
			m.card.Mirror = MirrorSingle0
		} else {
			m.card.Mirror = MirrorSingle1
		}
	case addr >= 0xc000:
		m.prgBank = int(value&0x0f) % m.prgBanks
	}
}

func (m *Mapper71) Reset() {
	m.prgBank = 0
}

func (m *Mapper71) Snapshot() (MapperState, error) {
	return encodeMapperState(71, mapper71State{m.prgBank})
}

func (m *Mapper71) Restore(s MapperState) error {
	var st mapper71State
	if err := decodeMapperState(71, s, &st); err != nil {
		return err
	}
	m.prgBank = st.PrgBank % m.prgBanks
	return nil
}

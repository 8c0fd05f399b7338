package nes

// Mapper2 is UxROM, used by Contra and Salamander: a switchable 16K bank
// at 0x8000 and the last bank fixed at 0xC000.
type Mapper2 struct {
	baseMapper
	prgBanks int
	prgBank1 int
	prgBank2 int
}

type mapper2State struct {
	PrgBank int
}

func NewMapper2(card *Cartridge) Mapper {
	m := &Mapper2{baseMapper: baseMapper{card}}
	m.prgBanks = m.prgBankCount(0x4000)
	m.prgBank2 = m.prgBanks - 1
	return m
}

func (m *Mapper2) ReadPrgRom(addr uint16) byte {
	if addr >= 0xC000 {
		return m.card.PRG[m.prgBank2*0x4000+int(addr-0xC000)]
	}
	return m.card.PRG[m.prgBank1*0x4000+int(addr-0x8000)]
}

func (m *Mapper2) WritePrgRom(addr uint16, value byte) {
	m.prgBank1 = int(value) % m.prgBanks
}

func (m *Mapper2) Reset() {
	m.prgBank1 = 0
}

func (m *Mapper2) Snapshot() (MapperState, error) {
	return encodeMapperState(2, mapper2State{m.prgBank1})
}

func (m *Mapper2) Restore(s MapperState) error {
	var st mapper2State
	if err := decodeMapperState(2, s, &st); err != nil {
		return err
	}
	m.prgBank1 = st.PrgBank % m.prgBanks
	return nil
}

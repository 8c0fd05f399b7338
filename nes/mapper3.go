package nes

// Mapper3 is CNROM: fixed PRG and an 8K CHR bank selected by the low two
// bits of any write to 0x8000-0xFFFF.
type Mapper3 struct {
	baseMapper
	chrBank int
}

type mapper3State struct {
	ChrBank int
}

func NewMapper3(card *Cartridge) Mapper {
	return &Mapper3{baseMapper: baseMapper{card}}
}

func (m *Mapper3) ReadPrgRom(addr uint16) byte {
	return m.card.PRG[int(addr-0x8000)%len(m.card.PRG)]
}

func (m *Mapper3) WritePrgRom(addr uint16, value byte) {
	m.chrBank = int(value & 3)
}

func (m *Mapper3) chrIndex(addr uint16) int {
	return (m.chrBank*0x2000 + int(addr)) % len(m.card.CHR)
}

func (m *Mapper3) ReadChrRom(addr uint16) byte {
	return m.card.CHR[m.chrIndex(addr)]
}

func (m *Mapper3) WriteChrRom(addr uint16, value byte) {
	if m.card.CHRRAM {
		m.card.CHR[m.chrIndex(addr)] = value
		return
	}
	m.baseMapper.WriteChrRom(addr, value)
}

func (m *Mapper3) Reset() {
	m.chrBank = 0
}

func (m *Mapper3) Snapshot() (MapperState, error) {
	return encodeMapperState(3, mapper3State{m.chrBank})
}

func (m *Mapper3) Restore(s MapperState) error {
	var st mapper3State
	if err := decodeMapperState(3, s, &st); err != nil {
		return err
	}
	m.chrBank = st.ChrBank & 3
	return nil
}

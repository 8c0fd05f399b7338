package nes

// Mapper1 is MMC1. Registers are loaded serially, one bit per write, and
// the fifth write commits the value to the register picked by its address.
type Mapper1 struct {
	baseMapper
	shiftRegister byte
	ctrlRegister  byte
	prgMode       byte
	chrMode       byte
	chrBank0      byte
	chrBank1      byte
	prgBank       byte // bit 4 clear enables PRG RAM
	prgOffsets    [2]int
	chrOffsets    [2]int
}

type mapper1State struct {
	Shift   byte
	Control byte
	ChrBank [2]byte
	PrgBank byte
}

func NewMapper1(card *Cartridge) Mapper {
	m := &Mapper1{baseMapper: baseMapper{card}}
	m.Reset()
	return m
}

func (m *Mapper1) Reset() {
	m.shiftRegister = 0x10
	m.chrBank0 = 0
	m.chrBank1 = 0
	m.prgBank = 0
	m.writeControl(0x0c)
}

func (m *Mapper1) loadRegister(addr uint16, value byte) {
	if value&0x80 == 0x80 {
		m.shiftRegister = 0x10
		m.writeControl(m.ctrlRegister | 0x0c)
		return
	}
	// the marker bit reaching bit 0 means this is the fifth write
	complete := m.shiftRegister&1 == 1
	m.shiftRegister >>= 1
	m.shiftRegister |= (value & 1) << 4
	if complete {
		m.writeRegister(addr, m.shiftRegister)
		m.shiftRegister = 0x10
	}
}

func (m *Mapper1) writeRegister(addr uint16, value byte) {
	switch {
	case addr <= 0x9fff:
		m.writeControl(value)
	case addr <= 0xbfff:
		m.chrBank0 = value
		m.updateOffsets()
	case addr <= 0xdfff:
		m.chrBank1 = value
		m.updateOffsets()
	default:
		m.prgBank = value & 0x1f
		m.updateOffsets()
	}
}

func (m *Mapper1) writeControl(value byte) {
	m.ctrlRegister = value
	m.prgMode = (value >> 2) & 3
	m.chrMode = (value >> 4) & 1
	switch value & 3 {
	case 0:
		m.card.Mirror = MirrorSingle0
	case 1:
		m.card.Mirror = MirrorSingle1
	case 2:
		m.card.Mirror = MirrorVertical
	case 3:
		m.card.Mirror = MirrorHorizontal
	}
	m.updateOffsets()
}

// PRG mode 0, 1: 32K at 0x8000, low bank bit ignored
//          2: first bank fixed at 0x8000, 16K switched at 0xC000
//          3: last bank fixed at 0xC000, 16K switched at 0x8000
// CHR mode 0: 8K at a time, 1: two 4K banks
func (m *Mapper1) updateOffsets() {
	bank := int(m.prgBank & 0x0f)
	switch m.prgMode {
	case 0, 1:
		m.prgOffsets[0] = bankOffset(m.card.PRG, 0x4000, bank&0x0e)
		m.prgOffsets[1] = bankOffset(m.card.PRG, 0x4000, bank|0x01)
	case 2:
		m.prgOffsets[0] = 0
		m.prgOffsets[1] = bankOffset(m.card.PRG, 0x4000, bank)
	case 3:
		m.prgOffsets[0] = bankOffset(m.card.PRG, 0x4000, bank)
		m.prgOffsets[1] = bankOffset(m.card.PRG, 0x4000, -1)
	}
	switch m.chrMode {
	case 0:
		m.chrOffsets[0] = bankOffset(m.card.CHR, 0x1000, int(m.chrBank0&0x1e))
		m.chrOffsets[1] = bankOffset(m.card.CHR, 0x1000, int(m.chrBank0|0x01))
	case 1:
		m.chrOffsets[0] = bankOffset(m.card.CHR, 0x1000, int(m.chrBank0))
		m.chrOffsets[1] = bankOffset(m.card.CHR, 0x1000, int(m.chrBank1))
	}
}

func (m *Mapper1) ReadPrgRom(addr uint16) byte {
	addr -= 0x8000
	bank := addr / 0x4000
	offset := addr % 0x4000
	return m.card.PRG[m.prgOffsets[bank]+int(offset)]
}

func (m *Mapper1) WritePrgRom(addr uint16, value byte) {
	m.loadRegister(addr, value)
}

func (m *Mapper1) chrIndex(addr uint16) int {
	bank := addr / 0x1000
	offset := addr % 0x1000
	return m.chrOffsets[bank] + int(offset)
}

func (m *Mapper1) ReadChrRom(addr uint16) byte {
	return m.card.CHR[m.chrIndex(addr)]
}

func (m *Mapper1) WriteChrRom(addr uint16, value byte) {
	if !m.card.CHRRAM {
		m.baseMapper.WriteChrRom(addr, value)
		return
	}
	m.card.CHR[m.chrIndex(addr)] = value
}

func (m *Mapper1) prgRAMEnabled() bool {
	return m.prgBank&0x10 == 0
}

func (m *Mapper1) ReadPrgRam(addr uint16) (byte, bool) {
	if !m.prgRAMEnabled() {
		return 0, false
	}
	return m.baseMapper.ReadPrgRam(addr)
}

func (m *Mapper1) WritePrgRam(addr uint16, value byte) {
	if m.prgRAMEnabled() {
		m.baseMapper.WritePrgRam(addr, value)
	}
}

func (m *Mapper1) Snapshot() (MapperState, error) {
	return encodeMapperState(1, mapper1State{
		Shift:   m.shiftRegister,
		Control: m.ctrlRegister,
		ChrBank: [2]byte{m.chrBank0, m.chrBank1},
		PrgBank: m.prgBank,
	})
}

func (m *Mapper1) Restore(s MapperState) error {
	var st mapper1State
	if err := decodeMapperState(1, s, &st); err != nil {
		return err
	}
	m.shiftRegister = st.Shift
	m.chrBank0 = st.ChrBank[0]
	m.chrBank1 = st.ChrBank[1]
	m.prgBank = st.PrgBank
	// mirroring comes back with the cartridge state, so only the bank modes are rederived
	m.ctrlRegister = st.Control
	m.prgMode = (st.Control >> 2) & 3
	m.chrMode = (st.Control >> 4) & 1
	m.updateOffsets()
	return nil
}

package nes

/*
MMC3 register pairs live at even/odd addresses of four 8K windows:

$8000 even  bank select    $8001 odd  bank data
$A000 even  mirroring      $A001 odd  PRG RAM protect
$C000 even  IRQ latch      $C001 odd  IRQ reload
$E000 even  IRQ disable    $E001 odd  IRQ enable

Bank select
7  bit  0
CPMx xRRR
|||   +++- register R0-R7 updated by the next bank data write
||+------- unused on MMC3
|+-------- PRG mode: 0 swaps $8000 and fixes $C000 to the second-last bank, 1 the reverse
+--------- CHR A12 inversion
*/

type Mapper4 struct {
	baseMapper
	cpu        *CPU
	regIndex   byte
	registers  [8]byte
	prgMode    byte
	chrMode    byte
	reload     byte
	timerValue byte
	irqEnable  bool
	ramEnable  bool
	ramProtect bool
	prgOffsets [4]int
	chrOffsets [8]int
}

type mapper4State struct {
	RegIndex   byte
	Registers  [8]byte
	PrgMode    byte
	ChrMode    byte
	Reload     byte
	Counter    byte
	IRQEnable  bool
	RAMEnable  bool
	RAMProtect bool
}

func NewMapper4(card *Cartridge, cpu *CPU) Mapper {
	m := &Mapper4{baseMapper: baseMapper{card}, cpu: cpu}
	m.Reset()
	return m
}

func (m *Mapper4) Reset() {
	m.regIndex = 0
	m.registers = [8]byte{}
	m.prgMode = 0
	m.chrMode = 0
	m.reload = 0
	m.timerValue = 0
	m.irqEnable = false
	m.ramEnable = true
	m.ramProtect = false
	m.calculateBank()
}

// Scanline clocks the IRQ counter. The console calls it at dot 260 of each
// rendering line while rendering is enabled.
func (m *Mapper4) Scanline() {
	if m.timerValue == 0 {
		m.timerValue = m.reload
	} else {
		m.timerValue--
	}
	if m.timerValue == 0 && m.irqEnable {
		m.cpu.SetIRQ(IRQMapper, true)
	}
}

func (m *Mapper4) writeRegister(addr uint16, value byte) {
	even := addr%2 == 0
	switch {
	case addr <= 0x9fff && even:
		m.regIndex = value & 7
		m.prgMode = (value >> 6) & 1
		m.chrMode = (value >> 7) & 1
		m.calculateBank()
	case addr <= 0x9fff:
		m.registers[m.regIndex] = value
		m.calculateBank()
	case addr <= 0xbfff && even:
		if m.card.Mirror == MirrorFour {
			return
		}
		if value&1 == 0 {
			m.card.Mirror = MirrorVertical
		} else {
			m.card.Mirror = MirrorHorizontal
		}
	case addr <= 0xbfff:
		m.ramEnable = value&0x80 != 0
		m.ramProtect = value&0x40 != 0
	case addr <= 0xdfff && even:
		m.reload = value
	case addr <= 0xdfff:
		m.timerValue = 0
	case even:
		m.irqEnable = false
		m.cpu.SetIRQ(IRQMapper, false)
	default:
		m.irqEnable = true
	}
}

func (m *Mapper4) ReadPrgRom(addr uint16) byte {
	addr -= 0x8000
	bank := addr / 0x2000
	offset := addr % 0x2000
	return m.card.PRG[m.prgOffsets[bank]+int(offset)]
}

func (m *Mapper4) WritePrgRom(addr uint16, value byte) {
	m.writeRegister(addr, value)
}

func (m *Mapper4) chrIndex(addr uint16) int {
	bank := addr / 0x0400
	offset := addr % 0x0400
	return m.chrOffsets[bank] + int(offset)
}

func (m *Mapper4) ReadChrRom(addr uint16) byte {
	return m.card.CHR[m.chrIndex(addr)]
}

func (m *Mapper4) WriteChrRom(addr uint16, value byte) {
	if !m.card.CHRRAM {
		m.baseMapper.WriteChrRom(addr, value)
		return
	}
	m.card.CHR[m.chrIndex(addr)] = value
}

func (m *Mapper4) ReadPrgRam(addr uint16) (byte, bool) {
	if !m.ramEnable {
		return 0, false
	}
	return m.baseMapper.ReadPrgRam(addr)
}

func (m *Mapper4) WritePrgRam(addr uint16, value byte) {
	if m.ramEnable && !m.ramProtect {
		m.baseMapper.WritePrgRam(addr, value)
	}
}

// bank layout per PRG and CHR mode, R6/R7 are the PRG registers
func (m *Mapper4) calculateBank() {
	prg := func(v int) int { return bankOffset(m.card.PRG, 0x2000, v) }
	chr := func(v int) int { return bankOffset(m.card.CHR, 0x0400, v) }

	if m.prgMode == 0 {
		m.prgOffsets[0] = prg(int(m.registers[6]))
		m.prgOffsets[1] = prg(int(m.registers[7]))
		m.prgOffsets[2] = prg(-2)
		m.prgOffsets[3] = prg(-1)
	} else {
		m.prgOffsets[0] = prg(-2)
		m.prgOffsets[1] = prg(int(m.registers[7]))
		m.prgOffsets[2] = prg(int(m.registers[6]))
		m.prgOffsets[3] = prg(-1)
	}

	r := m.registers
	twoK := [4]int{chr(int(r[0]) & 0xfe), chr(int(r[0]) | 0x01), chr(int(r[1]) & 0xfe), chr(int(r[1]) | 0x01)}
	oneK := [4]int{chr(int(r[2])), chr(int(r[3])), chr(int(r[4])), chr(int(r[5]))}
	if m.chrMode == 0 {
		copy(m.chrOffsets[0:4], twoK[:])
		copy(m.chrOffsets[4:8], oneK[:])
	} else {
		copy(m.chrOffsets[0:4], oneK[:])
		copy(m.chrOffsets[4:8], twoK[:])
	}
}

func (m *Mapper4) Snapshot() (MapperState, error) {
	return encodeMapperState(4, mapper4State{
		RegIndex:   m.regIndex,
		Registers:  m.registers,
		PrgMode:    m.prgMode,
		ChrMode:    m.chrMode,
		Reload:     m.reload,
		Counter:    m.timerValue,
		IRQEnable:  m.irqEnable,
		RAMEnable:  m.ramEnable,
		RAMProtect: m.ramProtect,
	})
}

func (m *Mapper4) Restore(s MapperState) error {
	var st mapper4State
	if err := decodeMapperState(4, s, &st); err != nil {
		return err
	}
	m.regIndex = st.RegIndex
	m.registers = st.Registers
	m.prgMode = st.PrgMode
	m.chrMode = st.ChrMode
	m.reload = st.Reload
	m.timerValue = st.Counter
	m.irqEnable = st.IRQEnable
	m.ramEnable = st.RAMEnable
	m.ramProtect = st.RAMProtect
	m.calculateBank()
	return nil
}

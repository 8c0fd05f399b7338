package nes

import (
	"testing"
)

// banked returns count banks of size bytes, each filled with its index.
func banked(count, size int) []byte {
	data := make([]byte, count*size)
	for i := range data {
		data[i] = byte(i / size)
	}
	return data
}

// write5 loads an MMC1 register through the serial port, low bit first.
func write5(m Mapper, addr uint16, value byte) {
	for i := 0; i < 5; i++ {
		m.WritePrgRom(addr, (value>>i)&1)
	}
}

func TestMMC1BankSelect(t *testing.T) {
	card := NewCartridge(banked(8, 0x4000), banked(8, 0x1000), 1, MirrorHorizontal)
	m := NewMapper1(card)

	// power on: 16K mode with the last bank fixed at $C000
	if got := m.ReadPrgRom(0xc000); got != 7 {
		t.Errorf("Got bank %d at $C000, wanted 7", got)
	}

	write5(m, 0xe000, 3)
	cases := []struct {
		addr uint16
		want byte
	}{
		{0x8000, 3},
		{0xbfff, 3},
		{0xc000, 7},
	}
	for i, tc := range cases {
		if got := m.ReadPrgRom(tc.addr); got != tc.want {
			t.Errorf("%d: Got bank %d at $%04X, wanted %d", i, got, tc.addr, tc.want)
		}
	}

	// four bits in, then a reset: the partial value is dropped
	for i := 0; i < 4; i++ {
		m.WritePrgRom(0xe000, 0)
	}
	m.WritePrgRom(0x8000, 0x80)
	if got := m.ReadPrgRom(0x8000); got != 3 {
		t.Errorf("Got bank %d after reset, wanted 3", got)
	}
	write5(m, 0xe000, 5)
	if got := m.ReadPrgRom(0x8000); got != 5 {
		t.Errorf("Got bank %d, wanted 5", got)
	}
}

func TestMMC1ResetKeepsBanks(t *testing.T) {
	card := NewCartridge(banked(8, 0x4000), banked(8, 0x1000), 1, MirrorHorizontal)
	m := NewMapper1(card)

	write5(m, 0x8000, 0x12) // 4K CHR, 32K PRG, vertical
	write5(m, 0xa000, 2)
	write5(m, 0xc000, 5)
	write5(m, 0xe000, 4)
	if card.Mirror != MirrorVertical {
		t.Errorf("Got mirror %d, wanted vertical", card.Mirror)
	}
	if got := m.ReadPrgRom(0xc000); got != 5 {
		t.Errorf("Got bank %d at $C000 in 32K mode, wanted 5", got)
	}

	m.WritePrgRom(0x9234, 0xff)

	cases := []struct {
		read func(uint16) byte
		addr uint16
		want byte
	}{
		{m.ReadChrRom, 0x0000, 2},
		{m.ReadChrRom, 0x1000, 5},
		{m.ReadPrgRom, 0x8000, 4},
		{m.ReadPrgRom, 0xc000, 7}, // reset selects the fixed last bank mode
	}
	for i, tc := range cases {
		if got := tc.read(tc.addr); got != tc.want {
			t.Errorf("%d: Got %d at $%04X, wanted %d", i, got, tc.addr, tc.want)
		}
	}
	if card.Mirror != MirrorVertical {
		t.Errorf("Got mirror %d after reset, wanted vertical", card.Mirror)
	}
}

func TestMMC1PrgRAM(t *testing.T) {
	card := NewCartridge(banked(2, 0x4000), nil, 1, MirrorHorizontal)
	m := NewMapper1(card)
	m.WritePrgRam(0x6000, 0x42)
	if got, ok := m.ReadPrgRam(0x6000); !ok || got != 0x42 {
		t.Errorf("Got %02X %v, wanted 42 true", got, ok)
	}
	write5(m, 0xe000, 0x10)
	if _, ok := m.ReadPrgRam(0x6000); ok {
		t.Errorf("PRG RAM readable while disabled")
	}
}

func TestUxROM(t *testing.T) {
	card := NewCartridge(banked(4, 0x4000), nil, 2, MirrorVertical)
	m := NewMapper2(card)
	m.WritePrgRom(0x8000, 6)
	if got := m.ReadPrgRom(0x8123); got != 2 {
		t.Errorf("Got bank %d, wanted 2", got)
	}
	if got := m.ReadPrgRom(0xfffc); got != 3 {
		t.Errorf("Got bank %d at $C000, wanted 3", got)
	}
	// CHR RAM
	m.WriteChrRom(0x0010, 0x99)
	if got := m.ReadChrRom(0x0010); got != 0x99 {
		t.Errorf("Got %02X from CHR RAM, wanted 99", got)
	}
}

func TestCNROM(t *testing.T) {
	card := NewCartridge(banked(2, 0x4000), banked(4, 0x2000), 3, MirrorVertical)
	m := NewMapper3(card)
	m.WritePrgRom(0x8000, 0xfe)
	if got := m.ReadChrRom(0x1fff); got != 2 {
		t.Errorf("Got CHR bank %d, wanted 2", got)
	}
	m.WriteChrRom(0x0000, 0x55)
	if got := m.ReadChrRom(0x0000); got != 2 {
		t.Errorf("CHR ROM was written")
	}
}

func TestMapper71(t *testing.T) {
	card := NewCartridge(banked(8, 0x4000), nil, 71, MirrorHorizontal)
	m := NewMapper71(card)
	m.WritePrgRom(0xc000, 0x0b)
	if got := m.ReadPrgRom(0x8000); got != 3 {
		t.Errorf("Got bank %d, wanted 3", got)
	}
	if got := m.ReadPrgRom(0xc000); got != 7 {
		t.Errorf("Got bank %d at $C000, wanted 7", got)
	}

	cases := []struct {
		value  byte
		mirror byte
		offset uint16
	}{
		{0x10, MirrorSingle1, 0x0400},
		{0x00, MirrorSingle0, 0x0000},
	}
	for i, tc := range cases {
		m.WritePrgRom(0x9000, tc.value)
		if card.Mirror != tc.mirror {
			t.Errorf("%d: Got mirror %d, wanted %d", i, card.Mirror, tc.mirror)
		}
		if got := m.MapNametableAddress(0x2c00); got != tc.offset {
			t.Errorf("%d: Got offset %04X, wanted %04X", i, got, tc.offset)
		}
	}
}

func TestMMC3(t *testing.T) {
	cpu := NewCPU(&flatMemory{})
	card := NewCartridge(banked(8, 0x2000), banked(8, 0x0400), 4, MirrorHorizontal)
	m := NewMapper4(card, cpu)

	m.WritePrgRom(0x8000, 0x06)
	m.WritePrgRom(0x8001, 0x03)
	m.WritePrgRom(0x8000, 0x02)
	m.WritePrgRom(0x8001, 0x05)

	cases := []struct {
		read func(uint16) byte
		addr uint16
		want byte
	}{
		{m.ReadPrgRom, 0x8000, 3},
		{m.ReadPrgRom, 0xc000, 6},
		{m.ReadPrgRom, 0xe000, 7},
		{m.ReadChrRom, 0x1000, 5},
	}
	for i, tc := range cases {
		if got := tc.read(tc.addr); got != tc.want {
			t.Errorf("%d: Got %d at $%04X, wanted %d", i, got, tc.addr, tc.want)
		}
	}

	// PRG mode 1 swaps $8000 and $C000
	m.WritePrgRom(0x8000, 0x46)
	if m.ReadPrgRom(0x8000) != 6 || m.ReadPrgRom(0xc000) != 3 {
		t.Errorf("Got banks %d %d, wanted 6 3", m.ReadPrgRom(0x8000), m.ReadPrgRom(0xc000))
	}

	m.WritePrgRom(0xa000, 0x00)
	if card.Mirror != MirrorVertical {
		t.Errorf("Got mirror %d, wanted vertical", card.Mirror)
	}
}

func TestMMC3ScanlineIRQ(t *testing.T) {
	cpu := NewCPU(&flatMemory{})
	card := NewCartridge(banked(8, 0x2000), banked(8, 0x0400), 4, MirrorHorizontal)
	m := NewMapper4(card, cpu).(*Mapper4)

	m.WritePrgRom(0xc000, 2)
	m.WritePrgRom(0xc001, 0)
	m.WritePrgRom(0xe001, 0)

	for i := 0; i < 2; i++ {
		m.Scanline()
		if cpu.IRQPending(IRQMapper) {
			t.Fatalf("%d: IRQ raised early", i)
		}
	}
	m.Scanline()
	if !cpu.IRQPending(IRQMapper) {
		t.Errorf("IRQ not raised when the counter reached zero")
	}
	m.WritePrgRom(0xe000, 0)
	if cpu.IRQPending(IRQMapper) {
		t.Errorf("IRQ not acknowledged by $E000")
	}
}

func TestMapperSnapshots(t *testing.T) {
	cpu := NewCPU(&flatMemory{})
	cases := []struct {
		mapper Mapper
		setup  func(Mapper)
	}{
		{NewMapper0(NewCartridge(banked(2, 0x4000), banked(1, 0x2000), 0, 0)), func(m Mapper) {}},
		{NewMapper1(NewCartridge(banked(8, 0x4000), banked(8, 0x1000), 1, 0)), func(m Mapper) {
			write5(m, 0x8000, 0x1e)
			write5(m, 0xa000, 3)
			write5(m, 0xe000, 6)
			m.WritePrgRom(0x8000, 1) // leave a bit in the shifter
		}},
		{NewMapper2(NewCartridge(banked(4, 0x4000), nil, 2, 0)), func(m Mapper) { m.WritePrgRom(0x8000, 2) }},
		{NewMapper3(NewCartridge(banked(2, 0x4000), banked(4, 0x2000), 3, 0)), func(m Mapper) { m.WritePrgRom(0x8000, 3) }},
		{NewMapper4(NewCartridge(banked(8, 0x2000), banked(8, 0x0400), 4, 0), cpu), func(m Mapper) {
			m.WritePrgRom(0x8000, 0x47)
			m.WritePrgRom(0x8001, 0x02)
			m.WritePrgRom(0xc000, 9)
		}},
		{NewMapper71(NewCartridge(banked(4, 0x4000), nil, 71, 0)), func(m Mapper) { m.WritePrgRom(0xc000, 2) }},
	}
	for i, tc := range cases {
		tc.setup(tc.mapper)
		state, err := tc.mapper.Snapshot()
		if err != nil {
			t.Errorf("%d: Got %v", i, err)
			continue
		}
		before := [3]byte{tc.mapper.ReadPrgRom(0x8000), tc.mapper.ReadPrgRom(0xa000), tc.mapper.ReadChrRom(0x0000)}

		tc.mapper.Reset()
		tc.mapper.WritePrgRom(0x8000, 0x80)
		if err := tc.mapper.Restore(state); err != nil {
			t.Errorf("%d: Got %v", i, err)
			continue
		}
		after := [3]byte{tc.mapper.ReadPrgRom(0x8000), tc.mapper.ReadPrgRom(0xa000), tc.mapper.ReadChrRom(0x0000)}
		if after != before {
			t.Errorf("%d: Got %v after restore, wanted %v", i, after, before)
		}
		again, _ := tc.mapper.Snapshot()
		if again.ID != state.ID || string(again.Data) != string(state.Data) {
			t.Errorf("%d: Got state %s, wanted %s", i, again.Data, state.Data)
		}

		wrong := MapperState{ID: state.ID + 1}
		if err := tc.mapper.Restore(wrong); err == nil {
			t.Errorf("%d: restored state of another mapper", i)
		}
	}
}

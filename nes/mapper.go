package nes

import (
	"encoding/json"
	"fmt"

	"github.com/golang/glog"
)

// Mapper is the cartridge board logic sitting between the buses and the
// cartridge memories. Addresses are CPU or PPU bus addresses, untranslated.
type Mapper interface {
	// 0x8000-0xFFFF
	ReadPrgRom(addr uint16) byte
	WritePrgRom(addr uint16, value byte)
	// PPU 0x0000-0x1FFF
	ReadChrRom(addr uint16) byte
	WriteChrRom(addr uint16, value byte)
	// 0x6000-0x7FFF. ok is false when nothing drives the bus.
	ReadPrgRam(addr uint16) (value byte, ok bool)
	WritePrgRam(addr uint16, value byte)
	// 0x4020-0x5FFF
	ReadExpansion(addr uint16) (value byte, ok bool)
	WriteExpansion(addr uint16, value byte)
	// MapNametableAddress maps PPU 0x2000-0x3EFF to an offset into the
	// console VRAM, or into the cartridge VRAM when it is past 0x07FF.
	MapNametableAddress(addr uint16) uint16
	Reset()
	Snapshot() (MapperState, error)
	Restore(MapperState) error
}

// ScanlineCounter is implemented by boards that clock a counter once per
// rendered scanline.
type ScanlineCounter interface {
	Scanline()
}

// MapperState is a mapper snapshot; Data is the board specific encoding.
type MapperState struct {
	ID   uint16
	Data json.RawMessage
}

func NewMapper(card *Cartridge, cpu *CPU) (Mapper, error) {
	switch card.Mapper {
	case 0:
		return NewMapper0(card), nil
	case 1:
		return NewMapper1(card), nil
	case 2:
		return NewMapper2(card), nil
	case 3:
		return NewMapper3(card), nil
	case 4:
		return NewMapper4(card, cpu), nil
	case 71:
		return NewMapper71(card), nil
	default:
		return nil, &UnsupportedMapperError{ID: card.Mapper}
	}
}

// baseMapper carries the behaviour shared by every board: flat CHR, 8K of
// PRG RAM, header mirroring and no expansion hardware.
type baseMapper struct {
	card *Cartridge
}

func (m *baseMapper) WritePrgRom(addr uint16, value byte) {
	glog.V(1).Infof("mapper: write to PRG ROM at $%04X ignored (value $%02X)", addr, value)
}

func (m *baseMapper) ReadChrRom(addr uint16) byte {
	return m.card.CHR[int(addr)%len(m.card.CHR)]
}

func (m *baseMapper) WriteChrRom(addr uint16, value byte) {
	if !m.card.CHRRAM {
		glog.V(1).Infof("mapper: write to CHR ROM at $%04X ignored (value $%02X)", addr, value)
		return
	}
	m.card.CHR[int(addr)%len(m.card.CHR)] = value
}

func (m *baseMapper) ReadPrgRam(addr uint16) (byte, bool) {
	if len(m.card.SRAM) == 0 {
		return 0, false
	}
	return m.card.SRAM[int(addr-0x6000)%len(m.card.SRAM)], true
}

func (m *baseMapper) WritePrgRam(addr uint16, value byte) {
	if len(m.card.SRAM) == 0 {
		return
	}
	m.card.SRAM[int(addr-0x6000)%len(m.card.SRAM)] = value
}

func (m *baseMapper) ReadExpansion(addr uint16) (byte, bool) {
	glog.V(2).Infof("mapper: read of unmapped expansion address $%04X", addr)
	return 0, false
}

func (m *baseMapper) WriteExpansion(addr uint16, value byte) {
	glog.V(2).Infof("mapper: write to unmapped expansion address $%04X (value $%02X)", addr, value)
}

func (m *baseMapper) MapNametableAddress(addr uint16) uint16 {
	return MirrorAddress(m.card.Mirror, addr)
}

func (m *baseMapper) Reset() {}

// prgBankCount is the number of banks of the given size in PRG ROM.
func (m *baseMapper) prgBankCount(size int) int {
	n := len(m.card.PRG) / size
	if n == 0 {
		return 1
	}
	return n
}

// bankOffset turns a bank number into a byte offset into data. Negative
// numbers count from the end, -1 being the last bank.
func bankOffset(data []byte, size int, value int) int {
	if value >= 0x80 {
		value -= 0x100
	}
	count := len(data) / size
	if count == 0 {
		return 0
	}
	offset := (value % count) * size
	if offset < 0 {
		offset += len(data)
	}
	return offset
}

func encodeMapperState(id uint16, v interface{}) (MapperState, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return MapperState{}, fmt.Errorf("mapper %d: %w", id, err)
	}
	return MapperState{ID: id, Data: data}, nil
}

func decodeMapperState(id uint16, s MapperState, v interface{}) error {
	if s.ID != id {
		return fmt.Errorf("mapper %d: cannot restore state of mapper %d", id, s.ID)
	}
	if err := json.Unmarshal(s.Data, v); err != nil {
		return fmt.Errorf("mapper %d: %w", id, err)
	}
	return nil
}

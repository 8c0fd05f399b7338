package nes

import "github.com/golang/glog"

/*
CPU bus
[$0000, $2000) 2K RAM, mirrored every $800
[$2000, $4000) PPU registers, mirrored every 8
[$4000, $4020) APU, OAM DMA and controller ports
[$4020, $6000) cartridge expansion
[$6000, $8000) PRG RAM
[$8000, $10000) PRG ROM

PPU bus
[$0000, $2000) CHR through the mapper
[$2000, $3F00) nametables, $3000 mirrors $2000
[$3F00, $4000) palette, kept inside the PPU
*/

type Memory interface {
	Write(addr uint16, value byte)
	Read(addr uint16) byte
}

type cpuMemory struct {
	console *Console
}

func (mem *cpuMemory) Read(addr uint16) byte {
	value, ok := mem.read(addr)
	if !ok {
		glog.V(2).Infof("cpu: open bus read at $%04X", addr)
		return mem.console.lastRead
	}
	if addr != 0x4015 {
		mem.console.lastRead = value
	}
	return value
}

func (mem *cpuMemory) read(addr uint16) (byte, bool) {
	console := mem.console
	switch {
	case addr < 0x2000:
		return console.RAM[addr%0x0800], true
	case addr < 0x4000:
		return console.PPU.readRegister(0x2000 + addr%8), true
	case addr == 0x4015:
		// bit 5 is not driven
		return console.APU.readStatus() | console.lastRead&0x20, true
	case addr == 0x4016:
		return console.Controller1.Read() | console.lastRead&0xe0, true
	case addr == 0x4017:
		return console.Controller2.Read() | console.lastRead&0xe0, true
	case addr < 0x4020:
		return 0, false
	case console.Mapper == nil:
		return 0, false
	case addr < 0x6000:
		return console.Mapper.ReadExpansion(addr)
	case addr < 0x8000:
		return console.Mapper.ReadPrgRam(addr)
	default:
		return console.Mapper.ReadPrgRom(addr), true
	}
}

func (mem *cpuMemory) Write(addr uint16, value byte) {
	console := mem.console
	switch {
	case addr < 0x2000:
		console.RAM[addr%0x0800] = value
	case addr < 0x4000:
		console.PPU.writeRegister(0x2000+addr%8, value)
	case addr == 0x4014:
		console.oamDMA(value)
	case addr == 0x4016:
		console.Controller1.Write(value)
		console.Controller2.Write(value)
	case addr < 0x4018:
		console.APU.writeRegister(addr, value)
	case addr < 0x4020:
		glog.V(2).Infof("cpu: write to unmapped $%04X (value $%02X)", addr, value)
	case console.Mapper == nil:
		glog.V(2).Infof("cpu: write to $%04X with no cartridge", addr)
	case addr < 0x6000:
		console.Mapper.WriteExpansion(addr, value)
	case addr < 0x8000:
		console.Mapper.WritePrgRam(addr, value)
	default:
		console.Mapper.WritePrgRom(addr, value)
	}
}

// peek reads like Read but leaves every device and the bus latch untouched.
func (mem *cpuMemory) peek(addr uint16) byte {
	console := mem.console
	var value byte
	var ok bool
	switch {
	case addr < 0x2000:
		value, ok = console.RAM[addr%0x0800], true
	case addr < 0x4000:
		value, ok = console.PPU.peekRegister(0x2000+addr%8), true
	case addr == 0x4015:
		value, ok = console.APU.peekStatus()|console.lastRead&0x20, true
	case addr == 0x4016:
		value, ok = console.Controller1.peek()|console.lastRead&0xe0, true
	case addr == 0x4017:
		value, ok = console.Controller2.peek()|console.lastRead&0xe0, true
	case addr < 0x4020 || console.Mapper == nil:
	case addr < 0x6000:
		value, ok = console.Mapper.ReadExpansion(addr)
	case addr < 0x8000:
		value, ok = console.Mapper.ReadPrgRam(addr)
	default:
		value, ok = console.Mapper.ReadPrgRom(addr), true
	}
	if !ok {
		return console.lastRead
	}
	return value
}

type ppuMemory struct {
	console *Console
}

func (mem *ppuMemory) Read(addr uint16) byte {
	addr %= 0x4000
	console := mem.console
	switch {
	case console.Mapper == nil:
		return 0
	case addr < 0x2000:
		return console.Mapper.ReadChrRom(addr)
	default:
		return *mem.nametable(addr)
	}
}

func (mem *ppuMemory) Write(addr uint16, value byte) {
	addr %= 0x4000
	console := mem.console
	switch {
	case console.Mapper == nil:
	case addr < 0x2000:
		console.Mapper.WriteChrRom(addr, value)
	default:
		*mem.nametable(addr) = value
	}
}

// nametable resolves a nametable address to its byte in console VRAM or,
// past the first 2K, the cartridge's own VRAM.
func (mem *ppuMemory) nametable(addr uint16) *byte {
	console := mem.console
	offset := console.Mapper.MapNametableAddress(addr)
	if offset < 0x0800 {
		return &console.VRAM[offset]
	}
	vram := console.Card.VRAM
	if len(vram) == 0 {
		return &console.VRAM[offset%0x0800]
	}
	return &vram[int(offset-0x0800)%len(vram)]
}

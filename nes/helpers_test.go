package nes

// flatMemory is 64K of RAM with nothing mapped.
type flatMemory [0x10000]byte

func (m *flatMemory) Read(addr uint16) byte         { return m[addr] }
func (m *flatMemory) Write(addr uint16, value byte) { m[addr] = value }

// buildRom assembles an iNES image. prg is copied to the start of PRG ROM
// and the reset vector points at $8000.
func buildRom(prgBanks, chrBanks int, mapper byte, flags6 byte, prg []byte) []byte {
	header := []byte{'N', 'E', 'S', 0x1a, byte(prgBanks), byte(chrBanks), flags6 | mapper<<4, mapper & 0xf0, 0, 0, 0, 0, 0, 0, 0, 0}
	rom := make([]byte, prgBanks*0x4000)
	copy(rom, prg)
	if len(rom) >= 0x4000 {
		// reset vector at the top of the last bank
		rom[len(rom)-4] = 0x00
		rom[len(rom)-3] = 0x80
	}
	data := append(header, rom...)
	return append(data, make([]byte, chrBanks*0x2000)...)
}

// loopProgram is JMP $8000.
var loopProgram = []byte{0x4c, 0x00, 0x80}

func newTestConsole(prg []byte, config Config) *Console {
	card, err := ParseRom(buildRom(2, 1, 0, 0, prg))
	if err != nil {
		panic(err)
	}
	console := NewConsole(config)
	if err := console.InsertCartridge(card); err != nil {
		panic(err)
	}
	console.Reset()
	return console
}

package nes

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	fogleman "github.com/fogleman/nes/nes"
)

// oracleProgram sticks to documented opcodes and RAM, where both cores
// must agree instruction by instruction.
var oracleProgram = []byte{
	0xa2, 0x00,       // 8000 LDX #$00
	0xa0, 0x10,       // 8002 LDY #$10
	0x18,             // 8004 CLC
	0x8a,             // 8005 TXA
	0x69, 0x37,       // 8006 ADC #$37
	0x95, 0x20,       // 8008 STA $20,X
	0x5d, 0x00, 0x02, // 800A EOR $0200,X
	0x9d, 0x00, 0x03, // 800D STA $0300,X
	0x2a,             // 8010 ROL A
	0x48,             // 8011 PHA
	0x20, 0x30, 0x80, // 8012 JSR $8030
	0x68,             // 8015 PLA
	0xe8,             // 8016 INX
	0x88,             // 8017 DEY
	0xd0, 0xeb,       // 8018 BNE $8005
	0x38,             // 801A SEC
	0xe9, 0x01,       // 801B SBC #$01
	0xb9, 0xf8, 0x02, // 801D LDA $02F8,Y
	0x4c, 0x02, 0x80, // 8020 JMP $8002
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x85, 0x40, // 8030 STA $40
	0x06, 0x40, // 8032 ASL $40
	0x24, 0x40, // 8034 BIT $40
	0x60,       // 8036 RTS
}

func newReferenceConsole(t *testing.T, prg []byte) *fogleman.Console {
	path := filepath.Join(t.TempDir(), "oracle.nes")
	if err := os.WriteFile(path, buildRom(2, 1, 0, 0, prg), 0o644); err != nil {
		t.Fatal(err)
	}
	ref, err := fogleman.NewConsole(path)
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

func referenceState(ref *fogleman.Console) CPUState {
	return CPUState{
		Cycles: ref.CPU.Cycles,
		PC:     ref.CPU.PC,
		SP:     ref.CPU.SP,
		A:      ref.CPU.A,
		X:      ref.CPU.X,
		Y:      ref.CPU.Y,
		P:      ref.CPU.Flags(),
	}
}

func registerState(cpu *CPU) CPUState {
	s := cpu.Snapshot()
	s.NMIPending, s.IRQLines, s.Stall = false, 0, 0
	return s
}

func TestCPUAgainstReference(t *testing.T) {
	ref := newReferenceConsole(t, oracleProgram)
	console := newTestConsole(oracleProgram, Config{})
	cpu := console.CPU

	last := "reset"
	for i := 0; i < 5000; i++ {
		want := referenceState(ref)
		if got := registerState(cpu); got != want {
			t.Fatalf("%d: Got %+v, wanted %+v\nafter %s", i, got, want, last)
		}
		last = cpu.Trace()
		ref.CPU.Step()
		cpu.Step()
	}
}

const officialMnemonics = "ADC AND ASL BCC BCS BEQ BIT BMI BNE BPL BRK BVC BVS CLC CLD CLI CLV CMP CPX CPY " +
	"DEC DEX DEY EOR INC INX INY JMP JSR LDA LDX LDY LSR NOP ORA PHA PHP PLA PLP " +
	"ROL ROR RTI RTS SBC SEC SED SEI STA STX STY TAX TAY TSX TXA TXS TYA"

// documentedOpcodes is the official instruction set. The undocumented NOP
// and SBC aliases are left out.
func documentedOpcodes() []byte {
	official := map[string]bool{}
	for _, name := range strings.Fields(officialMnemonics) {
		official[name] = true
	}
	var ops []byte
	for op := 0; op < 256; op++ {
		name := instructionNames[op]
		if !official[name] || (name == "NOP" && op != 0xea) || op == 0xeb {
			continue
		}
		ops = append(ops, byte(op))
	}
	return ops
}

// keepInRAM rewrites the pointer bytes of the instruction at pc so the
// effective address lands below $2000, away from the PPU and APU registers.
func keepInRAM(ram []byte, pc uint16, x byte, rng *rand.Rand) {
	op := ram[pc]
	switch instructionModes[op] {
	case modeAbsolute:
		if op != 0x4c && op != 0x20 {
			ram[pc+2] = byte(rng.Intn(0x20))
		}
	case modeAbsoluteX, modeAbsoluteY:
		ram[pc+2] = byte(rng.Intn(0x1f))
	case modeIndirect:
		ram[pc+2] = byte(rng.Intn(0x20))
	case modeIndexedIndirect:
		ram[ram[pc+1]+x+1] = byte(rng.Intn(0x20))
	case modeIndirectIndexed:
		ram[ram[pc+1]+1] = byte(rng.Intn(0x1f))
	}
}

func TestDocumentedOpcodesAgainstReference(t *testing.T) {
	ref := newReferenceConsole(t, loopProgram)
	console := newTestConsole(loopProgram, Config{})
	cpu := console.CPU
	rng := rand.New(rand.NewSource(6502))

	ops := documentedOpcodes()
	if len(ops) != 151 {
		t.Fatalf("Got %d documented opcodes, wanted 151", len(ops))
	}
	for _, op := range ops {
		for n := 0; n < 64; n++ {
			ram := make([]byte, len(console.RAM))
			rng.Read(ram)
			pc := uint16(0x0200 + rng.Intn(0x100))
			a, x, y := byte(rng.Intn(256)), byte(rng.Intn(256)), byte(rng.Intn(256))
			sp := byte(rng.Intn(256))
			p := byte(rng.Intn(256))&^0x10 | 0x20
			ram[pc] = op
			keepInRAM(ram, pc, x, rng)

			copy(ref.RAM, ram)
			copy(console.RAM, ram)
			ref.CPU.PC, ref.CPU.SP, ref.CPU.A, ref.CPU.X, ref.CPU.Y = pc, sp, a, x, y
			cpu.PC, cpu.SP, cpu.A, cpu.X, cpu.Y = pc, sp, a, x, y
			ref.CPU.SetFlags(p)
			cpu.setFlags(p)
			trace := cpu.Trace()

			wantCycles := ref.CPU.Step()
			gotCycles := cpu.Step()

			want, got := referenceState(ref), registerState(cpu)
			if got != want || gotCycles != wantCycles {
				t.Fatalf("%02X/%d: Got %+v in %d cycles, wanted %+v in %d cycles\n%s",
					op, n, got, gotCycles, want, wantCycles, trace)
			}
			for addr := range ram {
				if console.RAM[addr] != ref.RAM[addr] {
					t.Fatalf("%02X/%d: Got RAM[%04X]=%02X, wanted %02X\n%s",
						op, n, addr, console.RAM[addr], ref.RAM[addr], trace)
				}
			}
		}
	}
}

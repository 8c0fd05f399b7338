package nes

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
)

type cpuVector struct {
	PC  uint16   `json:"pc"`
	S   byte     `json:"s"`
	A   byte     `json:"a"`
	X   byte     `json:"x"`
	Y   byte     `json:"y"`
	P   byte     `json:"p"`
	RAM [][2]int `json:"ram"`
}

type opcodeCase struct {
	Name    string    `json:"name"`
	Initial cpuVector `json:"initial"`
	Final   cpuVector `json:"final"`
	Cycles  int       `json:"cycles"`
}

func loadOpcodeCases(t *testing.T) []opcodeCase {
	data, err := os.ReadFile("testdata/opcodes.json")
	if err != nil {
		t.Fatalf("couldn't read testdata: %v", err)
	}
	var cases []opcodeCase
	if err := json.Unmarshal(data, &cases); err != nil {
		t.Fatalf("couldn't parse testdata: %v", err)
	}
	return cases
}

func TestOpcodes(t *testing.T) {
	for _, tc := range loadOpcodeCases(t) {
		mem := &flatMemory{}
		cpu := NewCPU(mem)
		for _, r := range tc.Initial.RAM {
			mem[r[0]] = byte(r[1])
		}
		cpu.PC = tc.Initial.PC
		cpu.SP = tc.Initial.S
		cpu.A = tc.Initial.A
		cpu.X = tc.Initial.X
		cpu.Y = tc.Initial.Y
		cpu.setFlags(tc.Initial.P)

		cycles := cpu.Step()

		want := tc.Final
		if cpu.PC != want.PC || cpu.SP != want.S || cpu.A != want.A || cpu.X != want.X || cpu.Y != want.Y {
			t.Errorf("%s: Got PC=%04X S=%02X A=%02X X=%02X Y=%02X, wanted PC=%04X S=%02X A=%02X X=%02X Y=%02X",
				tc.Name, cpu.PC, cpu.SP, cpu.A, cpu.X, cpu.Y, want.PC, want.S, want.A, want.X, want.Y)
		}
		if p := cpu.getFlags(); p != want.P {
			t.Errorf("%s: Got P=%02X, wanted %02X", tc.Name, p, want.P)
		}
		for _, r := range want.RAM {
			if got := mem[r[0]]; got != byte(r[1]) {
				t.Errorf("%s: Got mem[%04X]=%02X, wanted %02X", tc.Name, r[0], got, r[1])
			}
		}
		if cycles != tc.Cycles {
			t.Errorf("%s: Got %d cycles, wanted %d", tc.Name, cycles, tc.Cycles)
		}
	}
}

// every opcode has a vector, and every opcode that can pay for a page
// crossing has one that does
func TestOpcodeVectorsCoverTable(t *testing.T) {
	var seen, slow [256]bool
	for _, tc := range loadOpcodeCases(t) {
		var op byte
		for _, r := range tc.Initial.RAM {
			if uint16(r[0]) == tc.Initial.PC {
				op = byte(r[1])
			}
		}
		seen[op] = true
		if tc.Cycles > int(instructionCycles[op]) {
			slow[op] = true
		}
	}
	for op := 0; op < 256; op++ {
		if !seen[op] {
			t.Errorf("%02X: Got no vector", op)
		}
		if instructionPageCycles[op] != 0 && !slow[op] {
			t.Errorf("%02X: Got no page crossing vector", op)
		}
	}
}

func TestTrace(t *testing.T) {
	cases := []struct {
		program []byte
		prefix  string
	}{
		{[]byte{0xa9, 0x42}, "0200  A9 42     LDA "},
		{[]byte{0xea}, "0200  EA        NOP "},
		{[]byte{0x4c, 0x34, 0x12}, "0200  4C 34 12  JMP "},
	}
	for i, tc := range cases {
		mem := &flatMemory{}
		copy(mem[0x0200:], tc.program)
		cpu := NewCPU(mem)
		cpu.PC = 0x0200
		got := cpu.Trace()
		if !strings.HasPrefix(got, tc.prefix) {
			t.Errorf("%d: Got %q, wanted prefix %q", i, got, tc.prefix)
		}
		if want := "A:00 X:00 Y:00 P:24 SP:FD CYC:0"; !strings.HasSuffix(got, want) {
			t.Errorf("%d: Got %q, wanted suffix %q", i, got, want)
		}
	}
}

func TestInstructionSizes(t *testing.T) {
	cases := []struct {
		opcode byte
		want   byte
	}{
		{0x00, 2}, // BRK skips its padding byte
		{0x20, 3},
		{0x02, 1}, // KIL
		{0x0c, 3}, // NOP abs
		{0x80, 2}, // NOP imm
		{0x1a, 1}, // NOP implied
		{0x9e, 3}, // SHX abs,Y
		{0xa7, 2}, // LAX zp
	}
	for i, tc := range cases {
		if got := instructionSizes[tc.opcode]; got != tc.want {
			t.Errorf("%d: Got %d, wanted %d", i, got, tc.want)
		}
	}
}

func TestNMI(t *testing.T) {
	mem := &flatMemory{}
	mem[0xfffa], mem[0xfffb] = 0x00, 0x90
	mem[0x9000] = 0xea // NOP
	cpu := NewCPU(mem)
	cpu.PC = 0x0200
	cpu.I = 1
	cpu.TriggerNMI()

	cycles := cpu.Step()
	if cpu.PC != 0x9001 {
		t.Errorf("Got PC %04X, wanted 9001", cpu.PC)
	}
	if cycles != 7+2 {
		t.Errorf("Got %d cycles, wanted 9", cycles)
	}
	// pushed P has B clear
	if got := mem[0x01fb]; got&0x10 != 0 {
		t.Errorf("Got pushed P %02X, wanted B clear", got)
	}
}

func TestIRQSources(t *testing.T) {
	mem := &flatMemory{}
	mem[0xfffe], mem[0xffff] = 0x00, 0x90
	mem[0x0200] = 0xea
	mem[0x9000] = 0xea
	cpu := NewCPU(mem)
	cpu.PC = 0x0200
	cpu.I = 1

	cpu.SetIRQ(IRQDMC, true)
	cpu.SetIRQ(IRQMapper, true)
	cpu.Step()
	if cpu.PC == 0x9000 {
		t.Errorf("IRQ serviced with I set")
	}

	cpu.SetIRQ(IRQDMC, false)
	if !cpu.IRQPending(IRQMapper) || cpu.IRQPending(IRQDMC) {
		t.Errorf("Got lines %03b, wanted only mapper", cpu.irqLines)
	}
	cpu.PC = 0x0200
	cpu.I = 0
	cpu.Step()
	if cpu.I != 1 {
		t.Errorf("Got I=%d after IRQ, wanted 1", cpu.I)
	}
	if cpu.PC != 0x9001 {
		t.Errorf("Got PC %04X, wanted 9001", cpu.PC)
	}
}

func TestStall(t *testing.T) {
	mem := &flatMemory{}
	cpu := NewCPU(mem)
	cpu.PC = 0x0200
	cpu.Stall(3)
	for i := 0; i < 3; i++ {
		if got := cpu.Step(); got != 1 {
			t.Errorf("%d: Got %d cycles, wanted 1", i, got)
		}
	}
	if cpu.PC != 0x0200 {
		t.Errorf("Got PC %04X while stalled, wanted 0200", cpu.PC)
	}
	if cpu.Cycles != 3 {
		t.Errorf("Got %d cycles, wanted 3", cpu.Cycles)
	}
}

func TestCPUSnapshot(t *testing.T) {
	mem := &flatMemory{}
	// INX; JMP $0200
	copy(mem[0x0200:], []byte{0xe8, 0x4c, 0x00, 0x02})
	cpu := NewCPU(mem)
	cpu.PC = 0x0200
	cpu.SetIRQ(IRQMapper, true)
	cpu.Step()

	state := cpu.Snapshot()
	for i := 0; i < 10; i++ {
		cpu.Step()
	}
	want := cpu.Snapshot()

	cpu.Restore(state)
	for i := 0; i < 10; i++ {
		cpu.Step()
	}
	if got := cpu.Snapshot(); got != want {
		t.Errorf("Got %+v, wanted %+v", got, want)
	}
}

package nes

import (
	"fmt"
)

// Interrupt vectors.
const (
	NMI   = 0xfffa
	RESET = 0xfffc
	// IRQ and BRK share a vector
	IRQ = 0xfffe
)

const CPUFrequency = 1789773

// IRQSource identifies a device driving the shared, level sensitive IRQ line.
type IRQSource byte

const (
	IRQFrameCounter IRQSource = 1 << iota
	IRQDMC
	IRQMapper
)

type CPU struct {
	Memory
	Cycles uint64
	PC     uint16
	SP     byte
	A      byte
	X      byte
	Y      byte
	C      byte // carry
	Z      byte // zero
	I      byte // interrupt disable
	D      byte // decimal, stored but ignored by ADC/SBC
	B      byte // break
	U      byte // unused, always 1
	V      byte // overflow
	N      byte // negative

	nmiPending bool
	irqLines   IRQSource
	stall      int
	table      [256]func(*stepInfo)
}

// operand info resolved by Step before dispatch
type stepInfo struct {
	address uint16
	pc      uint16
	mode    byte
}

// CPUState is the serializable register file of a CPU.
type CPUState struct {
	Cycles     uint64
	PC         uint16
	SP         byte
	A          byte
	X          byte
	Y          byte
	P          byte
	NMIPending bool
	IRQLines   byte
	Stall      int
}

func NewCPU(mem Memory) *CPU {
	cpu := CPU{Memory: mem}
	cpu.createTable()
	cpu.Reset()
	return &cpu
}

func (c *CPU) createTable() {
	c.table = [256]func(*stepInfo){
		c.brk, c.ora, c.kil, c.slo, c.nop, c.ora, c.asl, c.slo,
		c.php, c.ora, c.asl, c.anc, c.nop, c.ora, c.asl, c.slo,
		c.bpl, c.ora, c.kil, c.slo, c.nop, c.ora, c.asl, c.slo,
		c.clc, c.ora, c.nop, c.slo, c.nop, c.ora, c.asl, c.slo,
		c.jsr, c.and, c.kil, c.rla, c.bit, c.and, c.rol, c.rla,
		c.plp, c.and, c.rol, c.anc, c.bit, c.and, c.rol, c.rla,
		c.bmi, c.and, c.kil, c.rla, c.nop, c.and, c.rol, c.rla,
		c.sec, c.and, c.nop, c.rla, c.nop, c.and, c.rol, c.rla,
		c.rti, c.eor, c.kil, c.sre, c.nop, c.eor, c.lsr, c.sre,
		c.pha, c.eor, c.lsr, c.alr, c.jmp, c.eor, c.lsr, c.sre,
		c.bvc, c.eor, c.kil, c.sre, c.nop, c.eor, c.lsr, c.sre,
		c.cli, c.eor, c.nop, c.sre, c.nop, c.eor, c.lsr, c.sre,
		c.rts, c.adc, c.kil, c.rra, c.nop, c.adc, c.ror, c.rra,
		c.pla, c.adc, c.ror, c.arr, c.jmp, c.adc, c.ror, c.rra,
		c.bvs, c.adc, c.kil, c.rra, c.nop, c.adc, c.ror, c.rra,
		c.sei, c.adc, c.nop, c.rra, c.nop, c.adc, c.ror, c.rra,
		c.nop, c.sta, c.nop, c.sax, c.sty, c.sta, c.stx, c.sax,
		c.dey, c.nop, c.txa, c.xaa, c.sty, c.sta, c.stx, c.sax,
		c.bcc, c.sta, c.kil, c.ahx, c.sty, c.sta, c.stx, c.sax,
		c.tya, c.sta, c.txs, c.tas, c.shy, c.sta, c.shx, c.ahx,
		c.ldy, c.lda, c.ldx, c.lax, c.ldy, c.lda, c.ldx, c.lax,
		c.tay, c.lda, c.tax, c.lax, c.ldy, c.lda, c.ldx, c.lax,
		c.bcs, c.lda, c.kil, c.lax, c.ldy, c.lda, c.ldx, c.lax,
		c.clv, c.lda, c.tsx, c.las, c.ldy, c.lda, c.ldx, c.lax,
		c.cpy, c.cmp, c.nop, c.dcp, c.cpy, c.cmp, c.dec, c.dcp,
		c.iny, c.cmp, c.dex, c.axs, c.cpy, c.cmp, c.dec, c.dcp,
		c.bne, c.cmp, c.kil, c.dcp, c.nop, c.cmp, c.dec, c.dcp,
		c.cld, c.cmp, c.nop, c.dcp, c.nop, c.cmp, c.dec, c.dcp,
		c.cpx, c.sbc, c.nop, c.isc, c.cpx, c.sbc, c.inc, c.isc,
		c.inx, c.sbc, c.nop, c.sbc, c.cpx, c.sbc, c.inc, c.isc,
		c.beq, c.sbc, c.kil, c.isc, c.nop, c.sbc, c.inc, c.isc,
		c.sed, c.sbc, c.nop, c.isc, c.nop, c.sbc, c.inc, c.isc,
	}
}

func (cpu *CPU) Read16(addr uint16) uint16 {
	low := cpu.Read(addr)
	high := cpu.Read(addr + 1)
	return (uint16(high) << 8) | uint16(low)
}

// read16bug reproduces the 6502 page wrap: JMP ($10FF) reads $10FF and $1000.
func (cpu *CPU) read16bug(address uint16) uint16 {
	a := address
	b := (a & 0xFF00) | uint16(byte(a)+1)
	lo := cpu.Read(a)
	hi := cpu.Read(b)
	return (uint16(hi) << 8) | uint16(lo)
}

// the stack lives in page one and grows down
func (cpu *CPU) push(value byte) {
	cpu.Write(0x100|uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) push16(value uint16) {
	cpu.push(byte(value >> 8))
	cpu.push(byte(value))
}

func (cpu *CPU) pull() byte {
	cpu.SP++
	return cpu.Read(0x100 | uint16(cpu.SP))
}

func (cpu *CPU) pull16() uint16 {
	lo := uint16(cpu.pull())
	hi := uint16(cpu.pull())
	return (hi << 8) | lo
}

func (cpu *CPU) setZ(value byte) {
	if value == 0 {
		cpu.Z = 1
	} else {
		cpu.Z = 0
	}
}

func (cpu *CPU) setN(value byte) {
	if value&0x80 != 0 {
		cpu.N = 1
	} else {
		cpu.N = 0
	}
}

func (cpu *CPU) setZN(value byte) {
	cpu.setN(value)
	cpu.setZ(value)
}

func (cpu *CPU) getFlags() byte {
	var flags byte
	flags |= cpu.C << 0
	flags |= cpu.Z << 1
	flags |= cpu.I << 2
	flags |= cpu.D << 3
	flags |= cpu.B << 4
	flags |= cpu.U << 5
	flags |= cpu.V << 6
	flags |= cpu.N << 7
	return flags
}

func (cpu *CPU) setFlags(p byte) {
	cpu.C = (p >> 0) & 1
	cpu.Z = (p >> 1) & 1
	cpu.I = (p >> 2) & 1
	cpu.D = (p >> 3) & 1
	cpu.B = (p >> 4) & 1
	cpu.U = (p >> 5) & 1
	cpu.V = (p >> 6) & 1
	cpu.N = (p >> 7) & 1
}

// TriggerNMI latches a non-maskable interrupt, serviced before the next instruction.
func (cpu *CPU) TriggerNMI() {
	cpu.nmiPending = true
}

// SetIRQ raises or releases one source of the IRQ line. The line stays
// asserted while any source holds it, and is serviced whenever I is clear.
func (cpu *CPU) SetIRQ(src IRQSource, active bool) {
	if active {
		cpu.irqLines |= src
	} else {
		cpu.irqLines &^= src
	}
}

// IRQPending reports whether the given source currently holds the IRQ line.
func (cpu *CPU) IRQPending(src IRQSource) bool {
	return cpu.irqLines&src != 0
}

// Stall adds idle cycles, consumed one per Step, before the next instruction.
func (cpu *CPU) Stall(n int) {
	cpu.stall += n
}

func (cpu *CPU) interrupt(vector uint16) {
	cpu.push16(cpu.PC)
	cpu.push(cpu.getFlags() &^ 0x10)
	cpu.I = 1
	cpu.PC = cpu.Read16(vector)
	cpu.Cycles += 7
}

// taken branches cost one cycle, two when the target is on another page
func (cpu *CPU) addBranchCycles(info *stepInfo) {
	cpu.Cycles++
	if pageDiff(info.pc, info.address) {
		cpu.Cycles++
	}
}

func pageDiff(a uint16, b uint16) bool {
	return a&0xff00 != b&0xff00
}

func (cpu *CPU) Reset() {
	cpu.PC = cpu.Read16(RESET)
	cpu.Cycles = 0
	cpu.A = 0
	cpu.X = 0
	cpu.Y = 0
	cpu.SP = 0xfd
	cpu.setFlags(0x24)
	cpu.nmiPending = false
	cpu.irqLines = 0
	cpu.stall = 0
}

// Trace formats the instruction at PC and the register file, nestest style.
func (cpu *CPU) Trace() string {
	opcode := cpu.Read(cpu.PC)
	bytes := instructionSizes[opcode]
	name := instructionNames[opcode]
	w0 := fmt.Sprintf("%02X", cpu.Read(cpu.PC+0))
	w1 := fmt.Sprintf("%02X", cpu.Read(cpu.PC+1))
	w2 := fmt.Sprintf("%02X", cpu.Read(cpu.PC+2))
	if bytes < 2 {
		w1 = "  "
	}
	if bytes < 3 {
		w2 = "  "
	}
	return fmt.Sprintf(
		"%04X  %s %s %s  %s %28s"+
			"A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		cpu.PC, w0, w1, w2, name, "",
		cpu.A, cpu.X, cpu.Y, cpu.getFlags(), cpu.SP, cpu.Cycles)
}

// Step executes one instruction, servicing a pending interrupt first, and
// returns the number of CPU cycles consumed.
func (cpu *CPU) Step() int {
	if cpu.stall > 0 {
		cpu.stall--
		cpu.Cycles++
		return 1
	}

	lastCycles := cpu.Cycles

	if cpu.nmiPending {
		cpu.nmiPending = false
		cpu.interrupt(NMI)
	} else if cpu.irqLines != 0 && cpu.I == 0 {
		cpu.interrupt(IRQ)
	}

	opcode := cpu.Read(cpu.PC)
	mode := instructionModes[opcode]

	var address uint16
	var pageCrossed bool

	switch mode {
	case modeAbsolute:
		address = cpu.Read16(cpu.PC + 1)
	case modeAbsoluteX:
		address = cpu.Read16(cpu.PC+1) + uint16(cpu.X)
		pageCrossed = pageDiff(address-uint16(cpu.X), address)
	case modeAbsoluteY:
		address = cpu.Read16(cpu.PC+1) + uint16(cpu.Y)
		pageCrossed = pageDiff(address-uint16(cpu.Y), address)
	case modeAccumulator, modeImplied:
		address = 0
	case modeImmediate:
		address = cpu.PC + 1
	case modeIndexedIndirect:
		address = cpu.read16bug(uint16(cpu.Read(cpu.PC+1) + cpu.X))
	case modeIndirect:
		address = cpu.read16bug(cpu.Read16(cpu.PC + 1))
	case modeIndirectIndexed:
		address = cpu.read16bug(uint16(cpu.Read(cpu.PC+1))) + uint16(cpu.Y)
		pageCrossed = pageDiff(address-uint16(cpu.Y), address)
	case modeRelative:
		offset := uint16(cpu.Read(cpu.PC + 1))
		if offset < 0x80 {
			address = cpu.PC + 2 + offset
		} else {
			address = cpu.PC + 2 + offset - 0x100
		}
	case modeZeroPage:
		address = uint16(cpu.Read(cpu.PC + 1))
	case modeZeroPageX:
		address = uint16(cpu.Read(cpu.PC+1)+cpu.X) & 0xff
	case modeZeroPageY:
		address = uint16(cpu.Read(cpu.PC+1)+cpu.Y) & 0xff
	}

	cpu.PC += uint16(instructionSizes[opcode])
	cpu.Cycles += uint64(instructionCycles[opcode])
	if pageCrossed {
		cpu.Cycles += uint64(instructionPageCycles[opcode])
	}

	cpu.table[opcode](&stepInfo{address, cpu.PC, mode})

	return int(cpu.Cycles - lastCycles)
}

func (cpu *CPU) Snapshot() CPUState {
	return CPUState{
		Cycles:     cpu.Cycles,
		PC:         cpu.PC,
		SP:         cpu.SP,
		A:          cpu.A,
		X:          cpu.X,
		Y:          cpu.Y,
		P:          cpu.getFlags(),
		NMIPending: cpu.nmiPending,
		IRQLines:   byte(cpu.irqLines),
		Stall:      cpu.stall,
	}
}

func (cpu *CPU) Restore(s CPUState) {
	cpu.Cycles = s.Cycles
	cpu.PC = s.PC
	cpu.SP = s.SP
	cpu.A = s.A
	cpu.X = s.X
	cpu.Y = s.Y
	cpu.setFlags(s.P)
	cpu.nmiPending = s.NMIPending
	cpu.irqLines = IRQSource(s.IRQLines)
	cpu.stall = s.Stall
}

// LDA - Load A
func (cpu *CPU) lda(info *stepInfo) {
	cpu.A = cpu.Read(info.address)
	cpu.setZN(cpu.A)
}

// LDX - Load X
func (cpu *CPU) ldx(info *stepInfo) {
	cpu.X = cpu.Read(info.address)
	cpu.setZN(cpu.X)
}

// LDY - Load Y
func (cpu *CPU) ldy(info *stepInfo) {
	cpu.Y = cpu.Read(info.address)
	cpu.setZN(cpu.Y)
}

// STA - Store A
func (cpu *CPU) sta(info *stepInfo) {
	cpu.Write(info.address, cpu.A)
}

// STX - Store X
func (cpu *CPU) stx(info *stepInfo) {
	cpu.Write(info.address, cpu.X)
}

// STY - Store Y
func (cpu *CPU) sty(info *stepInfo) {
	cpu.Write(info.address, cpu.Y)
}

func (cpu *CPU) addWithCarry(b byte) {
	a := cpu.A
	c := cpu.C
	sum := int(a) + int(b) + int(c)
	cpu.A = byte(sum)
	cpu.setZN(cpu.A)
	if sum > 0xff {
		cpu.C = 1
	} else {
		cpu.C = 0
	}
	if (a^b)&0x80 == 0 && (a^cpu.A)&0x80 != 0 {
		cpu.V = 1
	} else {
		cpu.V = 0
	}
}

func (cpu *CPU) subtractWithCarry(b byte) {
	a := cpu.A
	c := cpu.C
	cpu.A = a - b - (1 - c)
	cpu.setZN(cpu.A)
	if int(a)-int(b)-int(1-c) >= 0 {
		cpu.C = 1
	} else {
		cpu.C = 0
	}
	if (a^b)&0x80 != 0 && (a^cpu.A)&0x80 != 0 {
		cpu.V = 1
	} else {
		cpu.V = 0
	}
}

// ADC - A = A + M + C
func (cpu *CPU) adc(info *stepInfo) {
	cpu.addWithCarry(cpu.Read(info.address))
}

// SBC - A = A - M - (1 - C)
func (cpu *CPU) sbc(info *stepInfo) {
	cpu.subtractWithCarry(cpu.Read(info.address))
}

// INC - Increment memory
func (cpu *CPU) inc(info *stepInfo) {
	value := cpu.Read(info.address) + 1
	cpu.Write(info.address, value)
	cpu.setZN(value)
}

// DEC - Decrement memory
func (cpu *CPU) dec(info *stepInfo) {
	value := cpu.Read(info.address) - 1
	cpu.Write(info.address, value)
	cpu.setZN(value)
}

// AND - A & memory
func (cpu *CPU) and(info *stepInfo) {
	cpu.A &= cpu.Read(info.address)
	cpu.setZN(cpu.A)
}

// ORA - A | memory
func (cpu *CPU) ora(info *stepInfo) {
	cpu.A |= cpu.Read(info.address)
	cpu.setZN(cpu.A)
}

// EOR - A ^ memory
func (cpu *CPU) eor(info *stepInfo) {
	cpu.A ^= cpu.Read(info.address)
	cpu.setZN(cpu.A)
}

func (cpu *CPU) inx(info *stepInfo) {
	cpu.X++
	cpu.setZN(cpu.X)
}

func (cpu *CPU) dex(info *stepInfo) {
	cpu.X--
	cpu.setZN(cpu.X)
}

func (cpu *CPU) iny(info *stepInfo) {
	cpu.Y++
	cpu.setZN(cpu.Y)
}

func (cpu *CPU) dey(info *stepInfo) {
	cpu.Y--
	cpu.setZN(cpu.Y)
}

func (cpu *CPU) tax(info *stepInfo) {
	cpu.X = cpu.A
	cpu.setZN(cpu.X)
}

func (cpu *CPU) txa(info *stepInfo) {
	cpu.A = cpu.X
	cpu.setZN(cpu.A)
}

func (cpu *CPU) tay(info *stepInfo) {
	cpu.Y = cpu.A
	cpu.setZN(cpu.Y)
}

func (cpu *CPU) tya(info *stepInfo) {
	cpu.A = cpu.Y
	cpu.setZN(cpu.A)
}

func (cpu *CPU) tsx(info *stepInfo) {
	cpu.X = cpu.SP
	cpu.setZN(cpu.X)
}

// TXS does not touch the flags
func (cpu *CPU) txs(info *stepInfo) {
	cpu.SP = cpu.X
}

func (cpu *CPU) clc(info *stepInfo) { cpu.C = 0 }
func (cpu *CPU) sec(info *stepInfo) { cpu.C = 1 }
func (cpu *CPU) cld(info *stepInfo) { cpu.D = 0 }
func (cpu *CPU) sed(info *stepInfo) { cpu.D = 1 }
func (cpu *CPU) clv(info *stepInfo) { cpu.V = 0 }
func (cpu *CPU) cli(info *stepInfo) { cpu.I = 0 }
func (cpu *CPU) sei(info *stepInfo) { cpu.I = 1 }

func (cpu *CPU) compare(a, b byte) {
	cpu.setZN(a - b)
	if a >= b {
		cpu.C = 1
	} else {
		cpu.C = 0
	}
}

// CMP - Compare memory with A
func (cpu *CPU) cmp(info *stepInfo) {
	cpu.compare(cpu.A, cpu.Read(info.address))
}

// CPX - Compare memory with X
func (cpu *CPU) cpx(info *stepInfo) {
	cpu.compare(cpu.X, cpu.Read(info.address))
}

// CPY - Compare memory with Y
func (cpu *CPU) cpy(info *stepInfo) {
	cpu.compare(cpu.Y, cpu.Read(info.address))
}

// BIT - Bit test memory with A
func (cpu *CPU) bit(info *stepInfo) {
	value := cpu.Read(info.address)
	cpu.setZ(cpu.A & value)
	cpu.V = (value >> 6) & 1
	cpu.N = (value >> 7) & 1
}

// the four shifts share one read-modify-write path
func (cpu *CPU) modify(info *stepInfo, op func(byte) byte) byte {
	if info.mode == modeAccumulator {
		cpu.A = op(cpu.A)
		cpu.setZN(cpu.A)
		return cpu.A
	}
	value := op(cpu.Read(info.address))
	cpu.Write(info.address, value)
	cpu.setZN(value)
	return value
}

func (cpu *CPU) shiftLeft(v byte) byte {
	cpu.C = (v >> 7) & 1
	return v << 1
}

func (cpu *CPU) shiftRight(v byte) byte {
	cpu.C = v & 1
	return v >> 1
}

func (cpu *CPU) rotateLeft(v byte) byte {
	c := cpu.C
	cpu.C = (v >> 7) & 1
	return (v << 1) | c
}

func (cpu *CPU) rotateRight(v byte) byte {
	c := cpu.C
	cpu.C = v & 1
	return (v >> 1) | (c << 7)
}

// ASL - C <- |7|6|5|4|3|2|1|0| <- 0
func (cpu *CPU) asl(info *stepInfo) {
	cpu.modify(info, cpu.shiftLeft)
}

// LSR - 0 -> |7|6|5|4|3|2|1|0| -> C
func (cpu *CPU) lsr(info *stepInfo) {
	cpu.modify(info, cpu.shiftRight)
}

// ROL - C <- |7|6|5|4|3|2|1|0| <- C
func (cpu *CPU) rol(info *stepInfo) {
	cpu.modify(info, cpu.rotateLeft)
}

// ROR - C -> |7|6|5|4|3|2|1|0| -> C
func (cpu *CPU) ror(info *stepInfo) {
	cpu.modify(info, cpu.rotateRight)
}

func (cpu *CPU) pha(info *stepInfo) {
	cpu.push(cpu.A)
}

func (cpu *CPU) pla(info *stepInfo) {
	cpu.A = cpu.pull()
	cpu.setZN(cpu.A)
}

// PHP pushes with B set
func (cpu *CPU) php(info *stepInfo) {
	cpu.push(cpu.getFlags() | 0x10)
}

func (cpu *CPU) plp(info *stepInfo) {
	cpu.setFlags(cpu.pull()&0xef | 0x20)
}

func (cpu *CPU) jmp(info *stepInfo) {
	cpu.PC = info.address
}

func (cpu *CPU) branch(cond bool, info *stepInfo) {
	if cond {
		cpu.PC = info.address
		cpu.addBranchCycles(info)
	}
}

func (cpu *CPU) beq(info *stepInfo) { cpu.branch(cpu.Z != 0, info) }
func (cpu *CPU) bne(info *stepInfo) { cpu.branch(cpu.Z == 0, info) }
func (cpu *CPU) bcs(info *stepInfo) { cpu.branch(cpu.C != 0, info) }
func (cpu *CPU) bcc(info *stepInfo) { cpu.branch(cpu.C == 0, info) }
func (cpu *CPU) bmi(info *stepInfo) { cpu.branch(cpu.N != 0, info) }
func (cpu *CPU) bpl(info *stepInfo) { cpu.branch(cpu.N == 0, info) }
func (cpu *CPU) bvs(info *stepInfo) { cpu.branch(cpu.V != 0, info) }
func (cpu *CPU) bvc(info *stepInfo) { cpu.branch(cpu.V == 0, info) }

// JSR pushes the address of its own last byte
func (cpu *CPU) jsr(info *stepInfo) {
	cpu.push16(cpu.PC - 1)
	cpu.PC = info.address
}

func (cpu *CPU) rts(info *stepInfo) {
	cpu.PC = cpu.pull16() + 1
}

// BRK - software interrupt through the IRQ vector, pushing P with B set
func (cpu *CPU) brk(info *stepInfo) {
	cpu.push16(cpu.PC)
	cpu.php(info)
	cpu.I = 1
	cpu.PC = cpu.Read16(IRQ)
}

func (cpu *CPU) rti(info *stepInfo) {
	cpu.setFlags(cpu.pull()&0xef | 0x20)
	cpu.PC = cpu.pull16()
}

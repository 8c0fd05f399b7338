package nes

// Undocumented opcodes. The combined read-modify-write forms reuse the
// documented halves; the unstable stores follow the common "AND with high
// byte plus one" model.

// NOP - the undocumented forms still read their operand
func (cpu *CPU) nop(info *stepInfo) {
	switch info.mode {
	case modeImplied, modeAccumulator, modeImmediate:
	default:
		cpu.Read(info.address)
	}
}

// KIL would halt the real chip. Here it is a 2 cycle no-op.
func (cpu *CPU) kil(info *stepInfo) {}

// SLO - ASL memory, then ORA
func (cpu *CPU) slo(info *stepInfo) {
	value := cpu.shiftLeft(cpu.Read(info.address))
	cpu.Write(info.address, value)
	cpu.A |= value
	cpu.setZN(cpu.A)
}

// RLA - ROL memory, then AND
func (cpu *CPU) rla(info *stepInfo) {
	value := cpu.rotateLeft(cpu.Read(info.address))
	cpu.Write(info.address, value)
	cpu.A &= value
	cpu.setZN(cpu.A)
}

// SRE - LSR memory, then EOR
func (cpu *CPU) sre(info *stepInfo) {
	value := cpu.shiftRight(cpu.Read(info.address))
	cpu.Write(info.address, value)
	cpu.A ^= value
	cpu.setZN(cpu.A)
}

// RRA - ROR memory, then ADC
func (cpu *CPU) rra(info *stepInfo) {
	value := cpu.rotateRight(cpu.Read(info.address))
	cpu.Write(info.address, value)
	cpu.addWithCarry(value)
}

// SAX - store A & X
func (cpu *CPU) sax(info *stepInfo) {
	cpu.Write(info.address, cpu.A&cpu.X)
}

// LAX - LDA and LDX in one
func (cpu *CPU) lax(info *stepInfo) {
	value := cpu.Read(info.address)
	cpu.A = value
	cpu.X = value
	cpu.setZN(value)
}

// DCP - DEC memory, then CMP
func (cpu *CPU) dcp(info *stepInfo) {
	value := cpu.Read(info.address) - 1
	cpu.Write(info.address, value)
	cpu.compare(cpu.A, value)
}

// ISC - INC memory, then SBC
func (cpu *CPU) isc(info *stepInfo) {
	value := cpu.Read(info.address) + 1
	cpu.Write(info.address, value)
	cpu.subtractWithCarry(value)
}

// ANC - AND, then copy N into C
func (cpu *CPU) anc(info *stepInfo) {
	cpu.A &= cpu.Read(info.address)
	cpu.setZN(cpu.A)
	cpu.C = cpu.N
}

// ALR - AND, then LSR A
func (cpu *CPU) alr(info *stepInfo) {
	cpu.A = cpu.shiftRight(cpu.A & cpu.Read(info.address))
	cpu.setZN(cpu.A)
}

// ARR - AND, then ROR A; C and V come from bits 6 and 5 of the result
func (cpu *CPU) arr(info *stepInfo) {
	value := cpu.A & cpu.Read(info.address)
	cpu.A = (value >> 1) | (cpu.C << 7)
	cpu.setZN(cpu.A)
	cpu.C = (cpu.A >> 6) & 1
	cpu.V = ((cpu.A >> 6) ^ (cpu.A >> 5)) & 1
}

// AXS - X = (A & X) - M, flags as CMP
func (cpu *CPU) axs(info *stepInfo) {
	value := cpu.Read(info.address)
	ax := cpu.A & cpu.X
	cpu.X = ax - value
	cpu.setZN(cpu.X)
	if ax >= value {
		cpu.C = 1
	} else {
		cpu.C = 0
	}
}

// XAA - highly unstable on hardware, modelled with the 0xEE magic constant
func (cpu *CPU) xaa(info *stepInfo) {
	cpu.A = (cpu.A | 0xee) & cpu.X & cpu.Read(info.address)
	cpu.setZN(cpu.A)
}

// LAS - A, X and SP all become M & SP
func (cpu *CPU) las(info *stepInfo) {
	value := cpu.Read(info.address) & cpu.SP
	cpu.A = value
	cpu.X = value
	cpu.SP = value
	cpu.setZN(value)
}

// unstableStore writes value & (H+1), where H is the high byte of the
// unindexed base address. On a page cross the stored value also replaces
// the high byte of the target.
func (cpu *CPU) unstableStore(info *stepInfo, index byte, value byte) {
	base := info.address - uint16(index)
	value &= byte(base>>8) + 1
	address := info.address
	if pageDiff(base, address) {
		address = uint16(value)<<8 | address&0xff
	}
	cpu.Write(address, value)
}

// AHX - store A & X & (H+1)
func (cpu *CPU) ahx(info *stepInfo) {
	cpu.unstableStore(info, cpu.Y, cpu.A&cpu.X)
}

// SHX - store X & (H+1)
func (cpu *CPU) shx(info *stepInfo) {
	cpu.unstableStore(info, cpu.Y, cpu.X)
}

// SHY - store Y & (H+1)
func (cpu *CPU) shy(info *stepInfo) {
	cpu.unstableStore(info, cpu.X, cpu.Y)
}

// TAS - SP = A & X, then store SP & (H+1)
func (cpu *CPU) tas(info *stepInfo) {
	cpu.SP = cpu.A & cpu.X
	cpu.unstableStore(info, cpu.Y, cpu.SP)
}

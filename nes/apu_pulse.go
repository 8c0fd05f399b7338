package nes

// duty sequences, read from the high bit down
var dutyTable = [4]byte{0x01, 0x03, 0x0f, 0xfc}

// Pulse is one of the two square channels. Its timer runs at APU rate.
type Pulse struct {
	Channel  byte // 1 or 2, pulse 1 negates with ones' complement
	Duty     byte
	Phase    byte
	Timer    divider
	Envelope envelope
	Length   lengthCounter

	SweepEnabled bool
	SweepNegate  bool
	SweepReload  bool
	SweepShift   byte
	SweepDivider divider
	TargetPeriod uint16
}

// $4000/$4004  DDLC VVVV
func (p *Pulse) writeControl(value byte) {
	p.Duty = (value >> 6) & 3
	p.Length.Halt = value&0x20 != 0
	p.Envelope.write(value)
}

// $4001/$4005  EPPP NSSS
func (p *Pulse) writeSweep(value byte) {
	p.SweepEnabled = value&0x80 != 0
	p.SweepDivider.Period = uint16(value>>4) & 7
	p.SweepNegate = value&0x08 != 0
	p.SweepShift = value & 7
	p.SweepReload = true
	p.updateTargetPeriod()
}

func (p *Pulse) writeTimerLow(value byte) {
	p.Timer.Period = p.Timer.Period&0xff00 | uint16(value)
	p.updateTargetPeriod()
}

// $4003/$4007  LLLL LHHH
func (p *Pulse) writeTimerHigh(value byte) {
	p.Timer.Period = p.Timer.Period&0x00ff | uint16(value&7)<<8
	p.Length.load(value >> 3)
	p.Envelope.Start = true
	p.Phase = 0
	p.updateTargetPeriod()
}

func (p *Pulse) updateTargetPeriod() {
	period := int(p.Timer.Period)
	change := period >> p.SweepShift
	if p.SweepNegate {
		change = -change
		if p.Channel == 1 {
			change--
		}
	}
	target := period + change
	if target < 0 {
		target = 0
	}
	p.TargetPeriod = uint16(target)
}

func (p *Pulse) muted() bool {
	return p.Timer.Period < 8 || p.TargetPeriod > 0x7ff
}

func (p *Pulse) clockTimer() {
	if p.Timer.clock() {
		p.Phase = (p.Phase + 1) % 8
	}
}

func (p *Pulse) clockSweep() {
	if p.SweepDivider.Counter == 0 && p.SweepEnabled && p.SweepShift > 0 && !p.muted() {
		p.Timer.Period = p.TargetPeriod
		p.updateTargetPeriod()
	}
	if p.SweepDivider.Counter == 0 || p.SweepReload {
		p.SweepDivider.reload()
		p.SweepReload = false
	} else {
		p.SweepDivider.Counter--
	}
}

func (p *Pulse) output() byte {
	if !p.Length.active() || p.muted() {
		return 0
	}
	if (dutyTable[p.Duty]<<p.Phase)&0x80 == 0 {
		return 0
	}
	return p.Envelope.output()
}

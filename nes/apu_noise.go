package nes

// NTSC noise periods in CPU cycles
var noiseTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// Noise is a 15 bit LFSR fed back from bit 1, or bit 6 in short mode.
type Noise struct {
	Mode     bool
	Shift    uint16
	Timer    divider
	Envelope envelope
	Length   lengthCounter
}

// $400C  --LC VVVV
func (n *Noise) writeControl(value byte) {
	n.Length.Halt = value&0x20 != 0
	n.Envelope.write(value)
}

// $400E  M--- PPPP
func (n *Noise) writePeriod(value byte) {
	n.Mode = value&0x80 != 0
	n.Timer.Period = noiseTable[value&0x0f] - 1
}

// $400F  LLLL L---
func (n *Noise) writeLength(value byte) {
	n.Length.load(value >> 3)
	n.Envelope.Start = true
}

func (n *Noise) clockTimer() {
	if !n.Timer.clock() {
		return
	}
	tap := uint16(1)
	if n.Mode {
		tap = 6
	}
	feedback := (n.Shift & 1) ^ ((n.Shift >> tap) & 1)
	n.Shift = n.Shift>>1 | feedback<<14
}

func (n *Noise) output() byte {
	if !n.Length.active() || n.Shift&1 == 1 {
		return 0
	}
	return n.Envelope.output()
}

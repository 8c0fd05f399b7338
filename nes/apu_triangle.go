package nes

var triangleTable = [32]byte{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Triangle steps its 32 entry sequence at CPU rate while both the linear
// and the length counter are non zero. A stalled sequencer keeps its level.
type Triangle struct {
	Timer         divider
	Step          byte
	Length        lengthCounter
	Control       bool // length halt and linear reload hold
	LinearReload  bool
	LinearPeriod  byte
	LinearCounter byte
}

// $4008  CRRR RRRR
func (t *Triangle) writeControl(value byte) {
	t.Control = value&0x80 != 0
	t.Length.Halt = t.Control
	t.LinearPeriod = value & 0x7f
}

func (t *Triangle) writeTimerLow(value byte) {
	t.Timer.Period = t.Timer.Period&0xff00 | uint16(value)
}

func (t *Triangle) writeTimerHigh(value byte) {
	t.Timer.Period = t.Timer.Period&0x00ff | uint16(value&7)<<8
	t.Length.load(value >> 3)
	t.LinearReload = true
}

func (t *Triangle) clockTimer() {
	if t.Timer.clock() && t.Length.active() && t.LinearCounter > 0 {
		t.Step = (t.Step + 1) % 32
	}
}

func (t *Triangle) clockLinear() {
	if t.LinearReload {
		t.LinearCounter = t.LinearPeriod
	} else if t.LinearCounter > 0 {
		t.LinearCounter--
	}
	if !t.Control {
		t.LinearReload = false
	}
}

func (t *Triangle) output() byte {
	return triangleTable[t.Step]
}

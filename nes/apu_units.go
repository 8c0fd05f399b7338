package nes

// The length counter value is looked up from a 5 bit index.
var lengthTable = []byte{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// divider fires once every Period+1 clocks.
type divider struct {
	Counter uint16
	Period  uint16
}

func (d *divider) clock() bool {
	if d.Counter == 0 {
		d.Counter = d.Period
		return true
	}
	d.Counter--
	return false
}

func (d *divider) reload() {
	d.Counter = d.Period
}

// envelope is the volume unit of the pulse and noise channels, clocked on
// quarter frames. It outputs either a constant volume or a decay from 15.
type envelope struct {
	Start    bool
	Loop     bool
	Constant bool
	Volume   byte // constant volume, and the decay divider period
	Decay    byte
	Divider  divider
}

// write takes the low six bits of $4000/$4004/$400C: --LC VVVV
func (e *envelope) write(value byte) {
	e.Loop = value&0x20 != 0
	e.Constant = value&0x10 != 0
	e.Volume = value & 0x0f
	e.Divider.Period = uint16(e.Volume)
}

func (e *envelope) clock() {
	if e.Start {
		e.Start = false
		e.Decay = 15
		e.Divider.reload()
		return
	}
	if e.Divider.clock() {
		if e.Decay > 0 {
			e.Decay--
		} else if e.Loop {
			e.Decay = 15
		}
	}
}

func (e *envelope) output() byte {
	if e.Constant {
		return e.Volume
	}
	return e.Decay
}

// lengthCounter silences a channel when it runs out, clocked on half frames.
type lengthCounter struct {
	Value   byte
	Halt    bool
	Enabled bool
}

func (l *lengthCounter) load(index byte) {
	if l.Enabled {
		l.Value = lengthTable[index&0x1f]
	}
}

func (l *lengthCounter) clock() {
	if !l.Halt && l.Value > 0 {
		l.Value--
	}
}

// setEnabled follows the $4015 channel bit; disabling zeroes the counter.
func (l *lengthCounter) setEnabled(on bool) {
	l.Enabled = on
	if !on {
		l.Value = 0
	}
}

func (l *lengthCounter) active() bool {
	return l.Value > 0
}

package nes

// NTSC DMC rates in CPU cycles
var dmcTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// DMC plays 1 bit delta samples fetched from CPU memory. Each fetch goes
// through read, which the console charges with a CPU stall.
type DMC struct {
	IRQEnabled bool
	Loop       bool
	IRQ        bool
	Rate       divider
	Level      byte

	SampleAddress  uint16
	SampleLength   uint16
	CurrentAddress uint16
	BytesRemaining uint16

	Buffer        byte
	BufferEmpty   bool
	ShiftRegister byte
	BitsRemaining byte
	Silence       bool

	read func(uint16) byte
}

func (d *DMC) reset() {
	*d = DMC{read: d.read}
	d.Rate.Period = dmcTable[0] - 1
	d.BufferEmpty = true
	d.BitsRemaining = 8
	d.Silence = true
}

// $4010  IL-- RRRR
func (d *DMC) writeControl(value byte) {
	d.IRQEnabled = value&0x80 != 0
	if !d.IRQEnabled {
		d.IRQ = false
	}
	d.Loop = value&0x40 != 0
	d.Rate.Period = dmcTable[value&0x0f] - 1
}

// $4011 direct load
func (d *DMC) writeLevel(value byte) {
	d.Level = value & 0x7f
}

// $4012 address = $C000 + A * 64
func (d *DMC) writeAddress(value byte) {
	d.SampleAddress = 0xc000 + uint16(value)<<6
}

// $4013 length = L * 16 + 1
func (d *DMC) writeLength(value byte) {
	d.SampleLength = uint16(value)<<4 + 1
}

func (d *DMC) setEnabled(on bool) {
	d.IRQ = false
	if !on {
		d.BytesRemaining = 0
		return
	}
	if d.BytesRemaining == 0 {
		d.restart()
	}
	d.fill()
}

func (d *DMC) restart() {
	d.CurrentAddress = d.SampleAddress
	d.BytesRemaining = d.SampleLength
}

// fill refills the sample buffer once it has been emptied.
func (d *DMC) fill() {
	if !d.BufferEmpty || d.BytesRemaining == 0 || d.read == nil {
		return
	}
	d.Buffer = d.read(d.CurrentAddress)
	d.BufferEmpty = false
	if d.CurrentAddress == 0xffff {
		d.CurrentAddress = 0x8000
	} else {
		d.CurrentAddress++
	}
	d.BytesRemaining--
	if d.BytesRemaining == 0 {
		if d.Loop {
			d.restart()
		} else if d.IRQEnabled {
			d.IRQ = true
		}
	}
}

func (d *DMC) clockTimer() {
	if !d.Rate.clock() {
		return
	}
	if !d.Silence {
		if d.ShiftRegister&1 == 1 {
			if d.Level <= 125 {
				d.Level += 2
			}
		} else if d.Level >= 2 {
			d.Level -= 2
		}
	}
	d.ShiftRegister >>= 1
	d.BitsRemaining--
	if d.BitsRemaining == 0 {
		d.BitsRemaining = 8
		if d.BufferEmpty {
			d.Silence = true
		} else {
			d.Silence = false
			d.ShiftRegister = d.Buffer
			d.BufferEmpty = true
			d.fill()
		}
	}
}

func (d *DMC) active() bool {
	return d.BytesRemaining > 0
}

func (d *DMC) output() byte {
	return d.Level
}

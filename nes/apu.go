package nes

// DefaultSampleRate is used when the host does not pick one.
const DefaultSampleRate = 44100.0

// frame sequencer step offsets in APU cycles (two CPU cycles each)
var (
	fourStepFrame = [4]uint32{3728, 7456, 11185, 14914}
	fiveStepFrame = [5]uint32{3728, 7456, 11185, 14914, 18640}
)

// lookup tables for the non linear mixer
var pulseTable [31]float32
var tndTable [203]float32

func init() {
	for i := 1; i < 31; i++ {
		pulseTable[i] = 95.52 / (8128.0/float32(i) + 100)
	}
	for i := 1; i < 203; i++ {
		tndTable[i] = 163.67 / (24329.0/float32(i) + 100)
	}
}

type APU struct {
	cpu             *CPU
	sink            func(float32)
	cyclesPerSample float64
	cycle           uint64

	// frame sequencer, frameCycle counts CPU cycles since the last wrap
	frameCycle uint32
	fiveStep   bool
	inhibitIRQ bool
	frameIRQ   bool

	pulse1   Pulse
	pulse2   Pulse
	triangle Triangle
	noise    Noise
	dmc      DMC
}

// APUState is everything the APU needs to resume, sample cadence included.
type APUState struct {
	Cycle      uint64
	FrameCycle uint32
	FiveStep   bool
	InhibitIRQ bool
	FrameIRQ   bool
	Pulse1     Pulse
	Pulse2     Pulse
	Triangle   Triangle
	Noise      Noise
	DMC        DMC
}

// NewAPU wires the APU to the CPU's IRQ lines. dmcRead fetches sample bytes
// and sink receives one mixed sample in [0, 1) per output period.
func NewAPU(cpu *CPU, dmcRead func(uint16) byte, sink func(float32), sampleRate float64) *APU {
	apu := &APU{cpu: cpu, sink: sink}
	apu.dmc.read = dmcRead
	apu.SetSampleRate(sampleRate)
	apu.Reset()
	return apu
}

func (apu *APU) Reset() {
	apu.cycle = 0
	apu.frameCycle = 0
	apu.fiveStep = false
	apu.inhibitIRQ = false
	apu.frameIRQ = false
	apu.pulse1 = Pulse{Channel: 1}
	apu.pulse2 = Pulse{Channel: 2}
	apu.triangle = Triangle{}
	apu.noise = Noise{Shift: 1}
	apu.noise.Timer.Period = noiseTable[0] - 1
	apu.dmc.reset()
	apu.updateIRQ()
}

// SetSampleRate changes the output rate, samples per second.
func (apu *APU) SetSampleRate(rate float64) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	apu.cyclesPerSample = CPUFrequency / rate
}

// Clock advances the APU by one CPU cycle.
func (apu *APU) Clock() {
	apu.triangle.clockTimer()
	apu.noise.clockTimer()
	apu.dmc.clockTimer()

	apu.frameCycle++
	if apu.frameCycle%2 == 0 {
		apu.pulse1.clockTimer()
		apu.pulse2.clockTimer()
		apu.stepFrameCounter(apu.frameCycle / 2)
	}
	apu.updateIRQ()

	s1 := int(float64(apu.cycle) / apu.cyclesPerSample)
	s2 := int(float64(apu.cycle+1) / apu.cyclesPerSample)
	if s1 != s2 && apu.sink != nil {
		apu.sink(apu.generateSample())
	}
	apu.cycle++
}

func (apu *APU) stepFrameCounter(step uint32) {
	if apu.fiveStep {
		switch step {
		case fiveStepFrame[0], fiveStepFrame[2]:
			apu.quarterFrame()
		case fiveStepFrame[1], fiveStepFrame[4]:
			apu.quarterFrame()
			apu.halfFrame()
		}
		if step > fiveStepFrame[4] {
			apu.frameCycle = 0
		}
		return
	}
	switch step {
	case fourStepFrame[0], fourStepFrame[2]:
		apu.quarterFrame()
	case fourStepFrame[1]:
		apu.quarterFrame()
		apu.halfFrame()
	case fourStepFrame[3]:
		apu.quarterFrame()
		apu.halfFrame()
		if !apu.inhibitIRQ {
			apu.frameIRQ = true
		}
	}
	if step > fourStepFrame[3] {
		apu.frameCycle = 0
	}
}

func (apu *APU) quarterFrame() {
	apu.pulse1.Envelope.clock()
	apu.pulse2.Envelope.clock()
	apu.noise.Envelope.clock()
	apu.triangle.clockLinear()
}

func (apu *APU) halfFrame() {
	apu.pulse1.Length.clock()
	apu.pulse2.Length.clock()
	apu.triangle.Length.clock()
	apu.noise.Length.clock()
	apu.pulse1.clockSweep()
	apu.pulse2.clockSweep()
}

func (apu *APU) updateIRQ() {
	if apu.cpu == nil {
		return
	}
	apu.cpu.SetIRQ(IRQFrameCounter, apu.frameIRQ)
	apu.cpu.SetIRQ(IRQDMC, apu.dmc.IRQ)
}

func (apu *APU) generateSample() float32 {
	p := apu.pulse1.output() + apu.pulse2.output()
	tnd := 3*int(apu.triangle.output()) + 2*int(apu.noise.output()) + int(apu.dmc.output())
	return pulseTable[p] + tndTable[tnd]
}

func (apu *APU) writeRegister(addr uint16, value byte) {
	switch addr {
	case 0x4000:
		apu.pulse1.writeControl(value)
	case 0x4001:
		apu.pulse1.writeSweep(value)
	case 0x4002:
		apu.pulse1.writeTimerLow(value)
	case 0x4003:
		apu.pulse1.writeTimerHigh(value)
	case 0x4004:
		apu.pulse2.writeControl(value)
	case 0x4005:
		apu.pulse2.writeSweep(value)
	case 0x4006:
		apu.pulse2.writeTimerLow(value)
	case 0x4007:
		apu.pulse2.writeTimerHigh(value)
	case 0x4008:
		apu.triangle.writeControl(value)
	case 0x400a:
		apu.triangle.writeTimerLow(value)
	case 0x400b:
		apu.triangle.writeTimerHigh(value)
	case 0x400c:
		apu.noise.writeControl(value)
	case 0x400e:
		apu.noise.writePeriod(value)
	case 0x400f:
		apu.noise.writeLength(value)
	case 0x4010:
		apu.dmc.writeControl(value)
	case 0x4011:
		apu.dmc.writeLevel(value)
	case 0x4012:
		apu.dmc.writeAddress(value)
	case 0x4013:
		apu.dmc.writeLength(value)
	case 0x4015:
		apu.writeStatus(value)
	case 0x4017:
		apu.writeFrameCounter(value)
	}
	apu.updateIRQ()
}

// $4015 write  ---D NT21
func (apu *APU) writeStatus(value byte) {
	apu.pulse1.Length.setEnabled(value&0x01 != 0)
	apu.pulse2.Length.setEnabled(value&0x02 != 0)
	apu.triangle.Length.setEnabled(value&0x04 != 0)
	apu.noise.Length.setEnabled(value&0x08 != 0)
	apu.dmc.setEnabled(value&0x10 != 0)
}

// $4017  MI-- ----
func (apu *APU) writeFrameCounter(value byte) {
	apu.fiveStep = value&0x80 != 0
	apu.inhibitIRQ = value&0x40 != 0
	if apu.inhibitIRQ {
		apu.frameIRQ = false
	}
	apu.frameCycle = 0
	if apu.fiveStep {
		apu.quarterFrame()
		apu.halfFrame()
	}
}

// $4015 read  IF-D NT21, bit 5 is left to the bus. Reading acknowledges
// the frame interrupt.
func (apu *APU) readStatus() byte {
	status := apu.peekStatus()
	apu.frameIRQ = false
	apu.updateIRQ()
	return status
}

func (apu *APU) peekStatus() byte {
	var status byte
	if apu.pulse1.Length.active() {
		status |= 0x01
	}
	if apu.pulse2.Length.active() {
		status |= 0x02
	}
	if apu.triangle.Length.active() {
		status |= 0x04
	}
	if apu.noise.Length.active() {
		status |= 0x08
	}
	if apu.dmc.active() {
		status |= 0x10
	}
	if apu.frameIRQ {
		status |= 0x40
	}
	if apu.dmc.IRQ {
		status |= 0x80
	}
	return status
}

func (apu *APU) Snapshot() APUState {
	s := APUState{
		Cycle:      apu.cycle,
		FrameCycle: apu.frameCycle,
		FiveStep:   apu.fiveStep,
		InhibitIRQ: apu.inhibitIRQ,
		FrameIRQ:   apu.frameIRQ,
		Pulse1:     apu.pulse1,
		Pulse2:     apu.pulse2,
		Triangle:   apu.triangle,
		Noise:      apu.noise,
		DMC:        apu.dmc,
	}
	s.DMC.read = nil
	return s
}

func (apu *APU) Restore(s APUState) {
	read := apu.dmc.read
	apu.cycle = s.Cycle
	apu.frameCycle = s.FrameCycle
	apu.fiveStep = s.FiveStep
	apu.inhibitIRQ = s.InhibitIRQ
	apu.frameIRQ = s.FrameIRQ
	apu.pulse1 = s.Pulse1
	apu.pulse2 = s.Pulse2
	apu.triangle = s.Triangle
	apu.noise = s.Noise
	apu.dmc = s.DMC
	apu.dmc.read = read
	apu.updateIRQ()
}

package nes

import (
	"image"

	"github.com/golang/glog"
)

// Config is the host side of a console.
type Config struct {
	// Controller1 and Controller2 return a Buttons mask, polled on strobe.
	Controller1 func() byte
	Controller2 func() byte
	// FrameSink receives every finished frame and owns it from then on.
	FrameSink func(*Frame)
	// AudioSink receives mixed samples at SampleRate.
	AudioSink  func(float32)
	SampleRate float64
	Debug      DebugFeatures
}

// Console wires the CPU, PPU, APU and cartridge together and drives their
// clocks: three PPU dots and one APU clock per CPU cycle.
type Console struct {
	CPU         *CPU
	APU         *APU
	PPU         *PPU
	Card        *Cartridge
	Mapper      Mapper
	Controller1 *Controller
	Controller2 *Controller
	RAM         []byte
	VRAM        []byte

	config    Config
	cpuBus    *cpuMemory
	lastRead  byte // CPU open bus
	frame     *Frame
	frameDone bool
}

func NewConsole(config Config) *Console {
	console := &Console{
		RAM:         make([]byte, 0x0800),
		VRAM:        make([]byte, 0x0800),
		Controller1: NewController(config.Controller1),
		Controller2: NewController(config.Controller2),
		config:      config,
	}
	console.cpuBus = &cpuMemory{console}
	console.CPU = NewCPU(console.cpuBus)
	console.PPU = NewPPU(&ppuMemory{console}, console.CPU.TriggerNMI, console.receiveFrame)
	console.PPU.Debug = config.Debug
	console.APU = NewAPU(console.CPU, console.dmcRead, config.AudioSink, config.SampleRate)
	return console
}

// NewConsoleFromFile loads an iNES file and powers the console on with it.
func NewConsoleFromFile(path string, config Config) (*Console, error) {
	card, err := LoadNESRom(path)
	if err != nil {
		return nil, err
	}
	console := NewConsole(config)
	if err := console.InsertCartridge(card); err != nil {
		return nil, err
	}
	console.Reset()
	return console, nil
}

// InsertCartridge installs card. On error the console is left as it was.
func (console *Console) InsertCartridge(card *Cartridge) error {
	mapper, err := NewMapper(card, console.CPU)
	if err != nil {
		return err
	}
	console.Card = card
	console.Mapper = mapper
	console.PPU.scanlineHook = nil
	if counter, ok := mapper.(ScanlineCounter); ok {
		console.PPU.scanlineHook = counter.Scanline
	}
	glog.V(1).Infof("console: inserted cartridge with mapper %d", card.Mapper)
	return nil
}

// Reset is a power cycle: memories are cleared and the CPU starts from the
// reset vector.
func (console *Console) Reset() {
	for i := range console.RAM {
		console.RAM[i] = 0
	}
	for i := range console.VRAM {
		console.VRAM[i] = 0
	}
	if console.Card != nil {
		console.Card.Reset()
		console.Mapper.Reset()
	}
	console.lastRead = 0
	console.frame = nil
	console.Controller1.Restore(ControllerState{})
	console.Controller2.Restore(ControllerState{})
	console.PPU.Reset()
	console.APU.Reset()
	console.CPU.Reset()
}

// SetSampleRate changes the audio output rate.
func (console *Console) SetSampleRate(rate float64) {
	console.config.SampleRate = rate
	console.APU.SetSampleRate(rate)
}

// SetDebug picks the debug views rendered into later frames.
func (console *Console) SetDebug(debug DebugFeatures) {
	console.config.Debug = debug
	console.PPU.Debug = debug
}

// Step runs one CPU instruction, or one stall cycle, and returns its cycles.
func (console *Console) Step() int {
	cpuCycles := console.CPU.Step()
	for i := 0; i < cpuCycles; i++ {
		console.PPU.Tick()
		console.PPU.Tick()
		console.PPU.Tick()
		console.APU.Clock()
	}
	return cpuCycles
}

func (console *Console) StepSeconds(seconds float64) {
	cycles := int(CPUFrequency * seconds)
	for cycles > 0 {
		cycles -= console.Step()
	}
}

// GenerateFrame runs until the PPU finishes a frame and returns it.
func (console *Console) GenerateFrame() (*Frame, error) {
	if console.Mapper == nil {
		return nil, ErrNoCartridge
	}
	console.frameDone = false
	for !console.frameDone {
		console.Step()
	}
	return console.frame, nil
}

func (console *Console) receiveFrame(frame *Frame) {
	console.frame = frame
	console.frameDone = true
	if console.config.FrameSink != nil {
		console.config.FrameSink(frame)
	}
}

// Buffer is the last finished frame, black before the first one.
func (console *Console) Buffer() *image.RGBA {
	if console.frame == nil {
		return image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	}
	return console.frame.Image()
}

// Peek reads the CPU bus without side effects.
func (console *Console) Peek(addr int) (byte, error) {
	if addr < 0 || addr > 0xffff {
		return 0, &AddressError{Addr: addr}
	}
	return console.cpuBus.peek(uint16(addr)), nil
}

// oamDMA copies page value<<8 into OAM. The CPU is halted for 513 cycles,
// 514 when the copy starts on an odd cycle.
func (console *Console) oamDMA(value byte) {
	address := uint16(value) << 8
	for i := 0; i < 256; i++ {
		console.PPU.writeOAMData(console.cpuBus.Read(address))
		address++
	}
	stall := 513
	if console.CPU.Cycles%2 == 1 {
		stall++
	}
	console.CPU.Stall(stall)
}

// dmcRead fetches a DMC sample byte, stealing 4 CPU cycles.
func (console *Console) dmcRead(addr uint16) byte {
	console.CPU.Stall(4)
	return console.cpuBus.Read(addr)
}

package nes

import (
	"errors"
	"testing"
)

func TestRAMMirroring(t *testing.T) {
	console := newTestConsole(loopProgram, Config{})
	bus := console.cpuBus
	bus.Write(0x0123, 0x42)
	bus.Write(0x1fff, 0x24)
	cases := []struct {
		addr uint16
		want byte
	}{
		{0x0123, 0x42},
		{0x0923, 0x42},
		{0x1123, 0x42},
		{0x1923, 0x42},
		{0x07ff, 0x24},
		{0x0fff, 0x24},
	}
	for i, tc := range cases {
		if got := bus.Read(tc.addr); got != tc.want {
			t.Errorf("%d: Got %02X at $%04X, wanted %02X", i, got, tc.addr, tc.want)
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	console := newTestConsole(loopProgram, Config{})
	bus := console.cpuBus
	// $3FFE and $3FFF mirror $2006 and $2007
	bus.Write(0x3ffe, 0x23)
	bus.Write(0x3ffe, 0x00)
	bus.Write(0x3fff, 0x77)
	if got := console.VRAM[0x0300]; got != 0x77 {
		t.Errorf("Got %02X in VRAM, wanted 77", got)
	}
}

func TestOpenBus(t *testing.T) {
	console := newTestConsole(loopProgram, Config{})
	bus := console.cpuBus
	bus.Write(0x0000, 0xff)
	bus.Write(0x0001, 0x5a)

	bus.Read(0x0001)
	if got := bus.Read(0x4018); got != 0x5a {
		t.Errorf("Got %02X from $4018, wanted 5A", got)
	}
	if got, _ := console.Peek(0x5000); got != 0x5a {
		t.Errorf("Got %02X from expansion, wanted 5A", got)
	}

	// bit 5 of $4015 floats, and reading it leaves the latch alone
	bus.Read(0x0000)
	if got := bus.Read(0x4015); got != 0x20 {
		t.Errorf("Got %02X from $4015, wanted 20", got)
	}
	if got := bus.Read(0x4019); got != 0xff {
		t.Errorf("Got %02X after $4015, wanted FF", got)
	}
}

func TestNoCartridge(t *testing.T) {
	console := NewConsole(Config{})
	if _, err := console.GenerateFrame(); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("Got %v, wanted ErrNoCartridge", err)
	}
	if _, err := console.Snapshot(); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("Got %v, wanted ErrNoCartridge", err)
	}
	console.cpuBus.Write(0x8000, 0x01)
	if got := console.cpuBus.Read(0x8000); got != 0 {
		t.Errorf("Got %02X from an empty slot, wanted 00", got)
	}
	b := console.Buffer().Bounds()
	if b.Dx() != FrameWidth || b.Dy() != FrameHeight {
		t.Errorf("Got buffer %v, wanted %dx%d", b, FrameWidth, FrameHeight)
	}
}

func TestPeek(t *testing.T) {
	console := newTestConsole(loopProgram, Config{})

	for _, addr := range []int{-1, 0x10000} {
		_, err := console.Peek(addr)
		var ae *AddressError
		if !errors.As(err, &ae) || ae.Addr != addr {
			t.Errorf("Got %v for %d, wanted an AddressError", err, addr)
		}
	}

	if got, err := console.Peek(0xfffd); err != nil || got != 0x80 {
		t.Errorf("Got %02X %v from the reset vector, wanted 80", got, err)
	}

	console.PPU.status = statusVBlank
	for i := 0; i < 2; i++ {
		if got, _ := console.Peek(0x2002); got&0x80 == 0 {
			t.Errorf("%d: Got %02X, wanted vblank set", i, got)
		}
	}
	if got := console.cpuBus.Read(0x2002); got&0x80 == 0 {
		t.Errorf("Got %02X, wanted vblank set", got)
	}
	if got, _ := console.Peek(0x2002); got&0x80 != 0 {
		t.Errorf("Got %02X, wanted vblank cleared by the read", got)
	}
}

func TestControllerPort(t *testing.T) {
	pad := Buttons([8]bool{ButtonA: true, ButtonStart: true, ButtonRight: true})
	console := newTestConsole(loopProgram, Config{Controller1: func() byte { return pad }})
	bus := console.cpuBus

	bus.Write(0x4016, 1)
	for i := 0; i < 3; i++ {
		if got := bus.Read(0x4016) & 1; got != 1 {
			t.Errorf("%d: Got %d while strobing, wanted A", i, got)
		}
	}
	bus.Write(0x4016, 0)

	want := []byte{1, 0, 0, 1, 0, 0, 0, 1, 1, 1}
	for i, w := range want {
		if got, _ := console.Peek(0x4016); got&1 != w {
			t.Errorf("%d: Got peek %d, wanted %d", i, got&1, w)
		}
		if got := bus.Read(0x4016) & 1; got != w {
			t.Errorf("%d: Got %d, wanted %d", i, got, w)
		}
	}
	// pad 2 has no callback
	if got := bus.Read(0x4017) & 1; got != 0 {
		t.Errorf("Got %d from pad 2, wanted 0", got)
	}
}

func TestOAMDMA(t *testing.T) {
	console := newTestConsole(loopProgram, Config{})
	for i := 0; i < 256; i++ {
		console.RAM[0x0200+i] = byte(255 - i)
	}
	console.CPU.Cycles = 10
	console.cpuBus.Write(0x4014, 0x02)
	for i := 0; i < 256; i++ {
		if console.PPU.oamData[i] != byte(255-i) {
			t.Fatalf("Got OAM[%d] = %02X, wanted %02X", i, console.PPU.oamData[i], 255-i)
		}
	}
	if console.CPU.stall != 513 {
		t.Errorf("Got stall %d on an even cycle, wanted 513", console.CPU.stall)
	}
	console.CPU.stall = 0
	console.CPU.Cycles = 11
	console.cpuBus.Write(0x4014, 0x02)
	if console.CPU.stall != 514 {
		t.Errorf("Got stall %d on an odd cycle, wanted 514", console.CPU.stall)
	}
}

func TestFourScreenNametables(t *testing.T) {
	card, err := ParseRom(buildRom(1, 1, 0, 0x08, loopProgram))
	if err != nil {
		t.Fatal(err)
	}
	console := NewConsole(Config{})
	if err := console.InsertCartridge(card); err != nil {
		t.Fatal(err)
	}
	console.Reset()
	mem := &ppuMemory{console}

	cases := []struct {
		addr uint16
		vram []byte
		off  int
	}{
		{0x2000, console.VRAM, 0x000},
		{0x2401, console.VRAM, 0x401},
		{0x2802, card.VRAM, 0x002},
		{0x2c03, card.VRAM, 0x403},
		{0x3c04, card.VRAM, 0x404},
	}
	for i, tc := range cases {
		mem.Write(tc.addr, byte(0x10+i))
		if got := tc.vram[tc.off]; got != byte(0x10+i) {
			t.Errorf("%d: Got %02X at offset %03X, wanted %02X", i, got, tc.off, 0x10+i)
		}
		if got := mem.Read(tc.addr); got != byte(0x10+i) {
			t.Errorf("%d: Got %02X reading $%04X back", i, got, tc.addr)
		}
	}
}

func TestGenerateFrame(t *testing.T) {
	var frames []*Frame
	console := newTestConsole(loopProgram, Config{FrameSink: func(f *Frame) { frames = append(frames, f) }})

	for i := 0; i < 3; i++ {
		frame, err := console.GenerateFrame()
		if err != nil {
			t.Fatal(err)
		}
		if len(frames) != i+1 || frames[i] != frame {
			t.Fatalf("%d: sink saw %d frames", i, len(frames))
		}
		if len(frame.Pixels) != FrameWidth*FrameHeight {
			t.Errorf("%d: Got %d pixels", i, len(frame.Pixels))
		}
		if i > 0 && frame.Number != frames[i-1].Number+1 {
			t.Errorf("%d: Got frame %d after %d", i, frame.Number, frames[i-1].Number)
		}
	}
	b := console.Buffer().Bounds()
	if b.Dx() != FrameWidth || b.Dy() != FrameHeight {
		t.Errorf("Got buffer %v", b)
	}
	if frames[2].PatternTables != nil {
		t.Errorf("Got pattern tables without asking for them")
	}

	console.SetDebug(DebugFeatures{PatternTables: true, Palettes: true})
	frame, _ := console.GenerateFrame()
	if len(frame.PatternTables) != PatternTablesWidth*PatternTablesHeight || len(frame.Palettes) != 8 {
		t.Errorf("Got %d pattern pixels and %d palettes", len(frame.PatternTables), len(frame.Palettes))
	}
	if frame.Nametables != nil || frame.NametablesImage() != nil {
		t.Errorf("Got nametables without asking for them")
	}
}

func TestFirstFrameAfterReset(t *testing.T) {
	console := newTestConsole(loopProgram, Config{})
	if console.PPU.status.vblank() {
		t.Fatalf("vblank set at power on")
	}

	frame, err := console.GenerateFrame()
	if err != nil {
		t.Fatal(err)
	}
	// every visible line has been drawn before the frame is handed out
	first := console.CPU.Cycles
	if first < 240*341/3 || first > 262*341/3+3 {
		t.Errorf("Got first frame after %d cycles, wanted a full raster", first)
	}
	if frame.Number != 0 {
		t.Errorf("Got frame number %d, wanted 0", frame.Number)
	}

	console.GenerateFrame()
	second := console.CPU.Cycles - first
	if second < 29778 || second > 29784 {
		t.Errorf("Got second frame after %d cycles, wanted about 29780", second)
	}
}

func TestAudioSampleCount(t *testing.T) {
	samples := 0
	console := newTestConsole(loopProgram, Config{
		AudioSink:  func(float32) { samples++ },
		SampleRate: 44100,
	})
	cycles := 0
	for cycles < 100000 {
		cycles += console.Step()
	}
	want := int(float64(cycles) * 44100 / CPUFrequency)
	if samples < want-1 || samples > want+1 {
		t.Errorf("Got %d samples in %d cycles, wanted %d", samples, cycles, want)
	}
}

func TestConsoleReset(t *testing.T) {
	console := newTestConsole(loopProgram, Config{})
	console.StepSeconds(0.01)
	if console.CPU.Cycles < CPUFrequency/100 {
		t.Errorf("Got %d cycles, wanted at least %d", console.CPU.Cycles, CPUFrequency/100)
	}
	console.RAM[0x10] = 0x55
	console.VRAM[0x10] = 0x55
	console.Card.SRAM[0] = 0x55
	console.Reset()
	if console.RAM[0x10] != 0 || console.VRAM[0x10] != 0 || console.Card.SRAM[0] != 0 {
		t.Errorf("Reset left memory behind")
	}
	if console.CPU.PC != 0x8000 || console.CPU.Cycles != 0 {
		t.Errorf("Got PC %04X cycles %d, wanted 8000 0", console.CPU.PC, console.CPU.Cycles)
	}
}

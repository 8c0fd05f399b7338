package nes

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const currentSnapshotVersion = 1

const snapshotInfo = "fc-simulator snapshot"

var errNoMachineState = errors.New("nes: snapshot has no machine state")

// MachineState is a whole console captured between two CPU steps.
type MachineState struct {
	CPU         CPUState
	PPU         PPUState
	APU         APUState
	Cartridge   CartridgeState
	Mapper      MapperState
	RAM         []byte
	VRAM        []byte
	Controller1 ControllerState
	Controller2 ControllerState
	LastRead    byte
}

type snapshotFile struct {
	Version int
	Info    string
	Machine *MachineState
}

func (console *Console) Snapshot() (*MachineState, error) {
	if console.Mapper == nil {
		return nil, ErrNoCartridge
	}
	mapper, err := console.Mapper.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot mapper: %w", err)
	}
	return &MachineState{
		CPU:         console.CPU.Snapshot(),
		PPU:         console.PPU.Snapshot(),
		APU:         console.APU.Snapshot(),
		Cartridge:   console.Card.Snapshot(),
		Mapper:      mapper,
		RAM:         append([]byte(nil), console.RAM...),
		VRAM:        append([]byte(nil), console.VRAM...),
		Controller1: console.Controller1.Snapshot(),
		Controller2: console.Controller2.Snapshot(),
		LastRead:    console.lastRead,
	}, nil
}

// Restore loads s into the console. The inserted cartridge must be the one
// the state was taken from; a mapper mismatch is rejected before anything
// is changed.
func (console *Console) Restore(s *MachineState) error {
	if console.Mapper == nil {
		return ErrNoCartridge
	}
	if s == nil {
		return errNoMachineState
	}
	if err := console.Mapper.Restore(s.Mapper); err != nil {
		return fmt.Errorf("restore mapper: %w", err)
	}
	console.Card.Restore(s.Cartridge)
	copy(console.RAM, s.RAM)
	copy(console.VRAM, s.VRAM)
	console.Controller1.Restore(s.Controller1)
	console.Controller2.Restore(s.Controller2)
	console.lastRead = s.LastRead
	console.CPU.Restore(s.CPU)
	console.PPU.Restore(s.PPU)
	console.APU.Restore(s.APU)
	return nil
}

// SaveState writes a gzipped JSON snapshot to w.
func (console *Console) SaveState(w io.Writer) error {
	state, err := console.Snapshot()
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(w)
	snap := snapshotFile{Version: currentSnapshotVersion, Info: snapshotInfo, Machine: state}
	if err := json.NewEncoder(gz).Encode(&snap); err != nil {
		gz.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return gz.Close()
}

// LoadState reads a snapshot written by SaveState.
func (console *Console) LoadState(r io.Reader) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer gz.Close()
	var snap snapshotFile
	if err := json.NewDecoder(gz).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != currentSnapshotVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSnapshotVersion, snap.Version, currentSnapshotVersion)
	}
	return console.Restore(snap.Machine)
}

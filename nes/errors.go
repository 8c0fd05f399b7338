package nes

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic           = errors.New("nes: not an iNES file")
	ErrUnsupportedVersion = errors.New("nes: unsupported iNES header version")
	ErrTruncated          = errors.New("nes: rom file truncated")
	ErrNoCartridge        = errors.New("nes: no cartridge inserted")
	ErrSnapshotVersion    = errors.New("nes: snapshot version mismatch")
)

// UnsupportedMapperError is returned when a cartridge names a mapper this
// package does not implement.
type UnsupportedMapperError struct {
	ID uint16
}

func (e *UnsupportedMapperError) Error() string {
	return fmt.Sprintf("nes: unsupported mapper %d", e.ID)
}

// AddressError reports an address outside the 16 bit CPU space. Addresses
// inside the space that nothing decodes are not errors, they read open bus.
type AddressError struct {
	Addr int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("nes: address %#x out of range", e.Addr)
}

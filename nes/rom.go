package nes

import (
	"bytes"
	"fmt"
	"os"

	"github.com/golang/glog"
)

const (
	headerSize  = 16
	trainerSize = 512
	prgBankSize = 0x4000
	chrBankSize = 0x2000
)

var inesMagic = []byte("NES\x1a")

// LoadNESRom reads an iNES file from disk.
func LoadNESRom(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	card, err := ParseRom(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return card, nil
}

/*
flags6
76543210
||||||||
|||||||+- mirroring: 0 horizontal, 1 vertical
||||||+-- battery backed PRG RAM
|||||+--- 512 byte trainer before PRG data
||||+---- four-screen VRAM
++++----- mapper low nibble

flags7
76543210
||||||||
||||++--- header version, 2 means NES 2.0
++++----- mapper high nibble
*/

// ParseRom decodes an iNES or NES 2.0 image. Nothing is allocated for the
// cartridge unless the whole image is valid.
func ParseRom(data []byte) (*Cartridge, error) {
	if len(data) < headerSize {
		if !bytes.HasPrefix(inesMagic, data) {
			return nil, ErrBadMagic
		}
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, headerSize, len(data))
	}
	if !bytes.Equal(data[0:4], inesMagic) {
		return nil, ErrBadMagic
	}

	flags6 := data[6]
	flags7 := data[7]

	version := (flags7 >> 2) & 3
	if version == 1 || version == 3 {
		return nil, fmt.Errorf("%w: version field %d", ErrUnsupportedVersion, version)
	}
	nes2 := version == 2

	prgBanks := int(data[4])
	chrBanks := int(data[5])
	mapper := uint16(flags6>>4) | uint16(flags7&0xf0)
	prgRAM := 0x2000

	if nes2 {
		// exponent-multiplier sizes are flagged by an 0xF size nibble
		if data[9]&0x0f == 0x0f || data[9]>>4 == 0x0f {
			return nil, fmt.Errorf("%w: exponent rom sizes", ErrUnsupportedVersion)
		}
		prgBanks |= int(data[9]&0x0f) << 8
		chrBanks |= int(data[9]>>4) << 8
		mapper |= uint16(data[8]&0x0f) << 8
		if shift := data[10] & 0x0f; shift != 0 {
			prgRAM = 64 << shift
		}
	} else if data[8] != 0 {
		prgRAM = int(data[8]) * 0x2000
	}

	if prgBanks == 0 {
		return nil, fmt.Errorf("%w: header declares no PRG ROM", ErrTruncated)
	}

	offset := headerSize
	if flags6&0x04 != 0 {
		offset += trainerSize
	}
	prgSize := prgBanks * prgBankSize
	chrSize := chrBanks * chrBankSize
	if need := offset + prgSize + chrSize; len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, need, len(data))
	}

	var mirror byte = MirrorHorizontal
	if flags6&0x01 != 0 {
		mirror = MirrorVertical
	}
	if flags6&0x08 != 0 {
		mirror = MirrorFour
	}

	prg := make([]byte, prgSize)
	copy(prg, data[offset:])
	chr := make([]byte, chrSize)
	copy(chr, data[offset+prgSize:])

	card := NewCartridge(prg, chr, mapper, mirror)
	card.Battery = flags6&0x02 != 0
	if prgRAM != len(card.SRAM) {
		card.SRAM = make([]byte, prgRAM)
	}

	glog.Infof("rom: PRG-ROM %d x 16KB, CHR-ROM %d x 8KB, mapper %d, mirror %d, battery %v",
		prgBanks, chrBanks, mapper, mirror, card.Battery)
	return card, nil
}

package nes

import (
	"image"
	"image/color"
)

const (
	FrameWidth  = 256
	FrameHeight = 240
)

// Frame is one finished picture. Pixels are packed 0xRRGGBB, row major.
// The debug buffers are nil unless enabled in DebugFeatures.
type Frame struct {
	Number        int
	Pixels        []uint32
	PatternTables []uint32    // PatternTablesWidth x PatternTablesHeight
	Nametables    []uint32    // NametablesWidth x NametablesHeight
	Palettes      [][4]uint32 // 8 entries, background palettes first
}

func newFrame() *Frame {
	return &Frame{Pixels: make([]uint32, FrameWidth*FrameHeight)}
}

// Image converts the frame to an RGBA image for encoders.
func (f *Frame) Image() *image.RGBA {
	return packedImage(f.Pixels, FrameWidth, FrameHeight)
}

// PatternTablesImage is nil unless the pattern table view was rendered.
func (f *Frame) PatternTablesImage() *image.RGBA {
	if f.PatternTables == nil {
		return nil
	}
	return packedImage(f.PatternTables, PatternTablesWidth, PatternTablesHeight)
}

func (f *Frame) NametablesImage() *image.RGBA {
	if f.Nametables == nil {
		return nil
	}
	return packedImage(f.Nametables, NametablesWidth, NametablesHeight)
}

func packedImage(pixels []uint32, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := pixels[y*w+x]
			img.SetRGBA(x, y, color.RGBA{byte(c >> 16), byte(c >> 8), byte(c), 0xff})
		}
	}
	return img
}

package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/55utah/fc-simulator/nes"
)

// FrameWriter dumps frames, and whatever debug views they carry, as PNG
// files into a directory.
type FrameWriter struct {
	dir   string
	scale int
}

func NewFrameWriter(dir string, scale int) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	return &FrameWriter{dir: dir, scale: scale}, nil
}

func (fw *FrameWriter) WriteFrame(frame *nes.Frame) error {
	name := fmt.Sprintf("frame_%05d", frame.Number)
	if err := fw.write(name, frame.Image()); err != nil {
		return err
	}
	if img := frame.PatternTablesImage(); img != nil {
		if err := fw.write(name+"_patterns", img); err != nil {
			return err
		}
	}
	if img := frame.NametablesImage(); img != nil {
		if err := fw.write(name+"_nametables", img); err != nil {
			return err
		}
	}
	if frame.Palettes != nil {
		if err := fw.write(name+"_palettes", paletteImage(frame.Palettes)); err != nil {
			return err
		}
	}
	return nil
}

func (fw *FrameWriter) write(name string, img *image.RGBA) error {
	path := filepath.Join(fw.dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	if err := png.Encode(f, Resize(img, fw.scale)); err != nil {
		f.Close()
		return fmt.Errorf("frames: encode %s: %w", path, err)
	}
	return f.Close()
}

func rgba(c uint32) color.RGBA {
	return color.RGBA{R: byte(c >> 16), G: byte(c >> 8), B: byte(c), A: 0xff}
}

// one 8x8 swatch per colour, a row per palette
func paletteImage(palettes [][4]uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4*8, len(palettes)*8))
	for p, colors := range palettes {
		for c, v := range colors {
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					img.SetRGBA(c*8+x, p*8+y, rgba(v))
				}
			}
		}
	}
	return img
}

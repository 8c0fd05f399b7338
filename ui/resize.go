package ui

import (
	"image"
)

// Resize scales source up by an integer ratio with nearest neighbour
// sampling. A ratio below 2 returns source itself.
func Resize(source *image.RGBA, ratio int) *image.RGBA {
	if ratio < 2 {
		return source
	}
	bounds := source.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	target := image.NewRGBA(image.Rect(0, 0, w*ratio, h*ratio))
	for y := 0; y < h*ratio; y++ {
		for x := 0; x < w*ratio; x++ {
			target.SetRGBA(x, y, source.RGBAAt(bounds.Min.X+x/ratio, bounds.Min.Y+y/ratio))
		}
	}
	return target
}

package images

import (
	"image"
	"image/color"
	"image/draw"
)

// IsGrayscale reports whether img is grayscale (all pixels have R==G==B).
func IsGrayscale(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.R != c.G || c.G != c.B || c.A != 0xff {
				return false
			}
		}
	}
	return true
}

// Compact converts opaque grayscale surfaces (most scanned text pages) to
// *image.Gray, a quarter of RGBA memory. Anything else is returned as is.
func Compact(img image.Image) image.Image {
	if _, ok := img.(*image.Gray); ok || !IsGrayscale(img) {
		return img
	}
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	return gray
}

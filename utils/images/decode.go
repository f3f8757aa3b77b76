// Package images decodes page images of any supported kind into surfaces the
// viewer can draw.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned for data which is neither raster image nor SVG.
var ErrNotImage = errors.New("not a supported image")

// Kind returns short name of image format ("png", "jpg", "svg"...).
func Kind(data []byte) (string, error) {
	if IsSVG(data) {
		return "svg", nil
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown || !filetype.IsImage(data) {
		return "", ErrNotImage
	}
	return kind.Extension, nil
}

// Size returns intrinsic pixel size of image without decoding pixels.
func Size(data []byte) (w, h float64, err error) {
	if IsSVG(data) {
		return SVGSize(data)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to read image header: %w", err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// Decode returns image scaled by factor (1 keeps intrinsic size). SVG is
// rasterized directly at the requested size.
func Decode(data []byte, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	if IsSVG(data) {
		w, h, err := SVGSize(data)
		if err != nil {
			return nil, err
		}
		return RasterizeSVG(data, scaled(w, scale), scaled(h, scale))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	if scale == 1 {
		return img, nil
	}
	w, h := scaled(float64(img.Bounds().Dx()), scale), scaled(float64(img.Bounds().Dy()), scale)
	filter := imaging.Lanczos
	if scale < 0.5 {
		filter = imaging.Linear
	}
	return imaging.Resize(img, w, h, filter), nil
}

// Fit resizes img so it is not larger than w x h, keeping aspect ratio.
func Fit(img image.Image, w, h int) image.Image {
	if img.Bounds().Dx() <= w && img.Bounds().Dy() <= h {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Linear)
}

func scaled(v, scale float64) int {
	return max(int(math.Round(v*scale)), 1)
}

package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const defaultSVGSize = 1024

// maxRasterDim limits pixel dimension of rasterized SVG page, huge viewBox
// values would otherwise allocate gigabytes.
var maxRasterDim = 8192

// IsSVG sniffs data for svg root element.
func IsSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(head, []byte("<svg")) && !bytes.Contains(head, []byte("\x00"))
}

// SVGSize returns intrinsic size of SVG document from width/height attributes
// or viewBox.
func SVGSize(data []byte) (w, h float64, err error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{Permissive: true}
	if err := doc.ReadFromBytes(data); err != nil {
		return 0, 0, fmt.Errorf("unable to parse svg: %w", err)
	}
	root := doc.SelectElement("svg")
	if root == nil {
		return 0, 0, fmt.Errorf("svg root element not found")
	}

	w, h = parseLength(root.SelectAttrValue("width", "")), parseLength(root.SelectAttrValue("height", ""))
	if w > 0 && h > 0 {
		return w, h, nil
	}
	if vb := strings.Fields(strings.ReplaceAll(root.SelectAttrValue("viewBox", ""), ",", " ")); len(vb) == 4 {
		vw, _ := strconv.ParseFloat(vb[2], 64)
		vh, _ := strconv.ParseFloat(vb[3], 64)
		switch {
		case w > 0 && vw > 0 && vh > 0:
			return w, w * vh / vw, nil
		case h > 0 && vw > 0 && vh > 0:
			return h * vw / vh, h, nil
		case vw > 0 && vh > 0:
			return vw, vh, nil
		}
	}
	return defaultSVGSize, defaultSVGSize, nil
}

// parseLength understands plain numbers and px/pt units, percentages and
// other units are treated as absent.
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	factor := 1.0
	switch {
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "pt"):
		s, factor = strings.TrimSuffix(s, "pt"), 4.0/3.0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v * factor
}

// RasterizeSVG rasterizes SVG on white background.
//
// Rules:
//   - if targetW == 0 && targetH == 0: use SVG viewBox dimensions
//   - if only one of targetW/targetH is > 0: scale by that dimension keeping aspect ratio
//   - if both targetW and targetH are > 0: fit into that box keeping aspect ratio
func RasterizeSVG(svgData []byte, targetW, targetH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	intrW := int(math.Ceil(icon.ViewBox.W))
	intrH := int(math.Ceil(icon.ViewBox.H))
	if intrW <= 0 {
		intrW = defaultSVGSize
	}
	if intrH <= 0 {
		intrH = defaultSVGSize
	}

	w, h := intrW, intrH
	switch {
	case targetW <= 0 && targetH <= 0:
	case targetH <= 0:
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	case targetW <= 0:
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	default:
		scale := math.Min(float64(targetW)/float64(intrW), float64(targetH)/float64(intrH))
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	}
	w, h = max(w, 1), max(h, 1)

	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

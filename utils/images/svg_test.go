package images

import "testing"

func TestRasterizeSVG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"><rect width="100" height="50"/></svg>`)

	tests := []struct {
		name       string
		w, h       int
		wantW, wantH int
	}{
		{"intrinsic", 0, 0, 100, 50},
		{"scale_by_width", 200, 0, 200, 100},
		{"scale_by_height", 0, 200, 400, 200},
		{"fit_box", 150, 150, 150, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := RasterizeSVG(svg, tt.w, tt.h)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.Bounds().Dx() != tt.wantW || img.Bounds().Dy() != tt.wantH {
				t.Fatalf("unexpected bounds: %v", img.Bounds())
			}
		})
	}
}

func TestSVGSize(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		w, h float64
	}{
		{"attributes", `<svg xmlns="http://www.w3.org/2000/svg" width="300" height="400"/>`, 300, 400},
		{"units", `<svg xmlns="http://www.w3.org/2000/svg" width="30px" height="12pt"/>`, 30, 16},
		{"viewBox", `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 120 80"/>`, 120, 80},
		{"width and viewBox", `<svg xmlns="http://www.w3.org/2000/svg" width="60" viewBox="0 0 120 80"/>`, 60, 40},
		{"nothing", `<svg xmlns="http://www.w3.org/2000/svg"/>`, defaultSVGSize, defaultSVGSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := SVGSize([]byte(tt.svg))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w != tt.w || h != tt.h {
				t.Fatalf("got %vx%v, want %vx%v", w, h, tt.w, tt.h)
			}
		})
	}
}

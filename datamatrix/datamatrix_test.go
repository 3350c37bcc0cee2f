package datamatrix

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/datamatrix/decoder"
	"github.com/ericlevine/symscan/geometry"
)

// lookup returns the symbol size of rows x cols and checks that text fits.
func lookup(t *testing.T, rows, cols int, text string) *decoder.Version {
	t.Helper()
	v, err := decoder.Lookup(rows, cols)
	if err != nil {
		t.Fatal(err)
	}
	if len(text) > v.DataCodewords() {
		t.Fatalf("%q does not fit %v", text, v)
	}
	return v
}

// fixture renders a symbol with module pixels per module and a quiet zone
// of quiet modules.
type fixture struct {
	rows, cols    int
	module, quiet int
}

// render encodes text in the ASCII scheme, padded to the symbol capacity.
func (f fixture) render(t *testing.T, text string) (*image.Gray, geometry.Quad) {
	t.Helper()
	v := lookup(t, f.rows, f.cols, text)
	data := make([]byte, 0, v.DataCodewords())
	for i := 0; i < len(text); i++ {
		data = append(data, text[i]+1)
	}
	for i := len(data); i < v.DataCodewords(); i++ {
		if i == len(text) {
			data = append(data, 129)
			continue
		}
		r := 129 + 149*(i+1)%253 + 1
		if r > 254 {
			r -= 254
		}
		data = append(data, byte(r))
	}
	raw, err := decoder.Interleave(v, data)
	if err != nil {
		t.Fatal(err)
	}
	bits, err := decoder.Place(v, raw)
	if err != nil {
		t.Fatal(err)
	}

	m, q := f.module, f.quiet*f.module
	img := image.NewGray(image.Rect(0, 0, f.cols*m+2*q, f.rows*m+2*q))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for r := 0; r < f.rows; r++ {
		for c := 0; c < f.cols; c++ {
			if !bits.Get(c, r) {
				continue
			}
			for y := 0; y < m; y++ {
				for x := 0; x < m; x++ {
					img.SetGray(q+c*m+x, q+r*m+y, color.Gray{})
				}
			}
		}
	}
	l, top := float64(q), float64(q)
	r, bottom := float64(q+f.cols*m), float64(q+f.rows*m)
	return img, geometry.Quad{A: geometry.Pt(l, top), B: geometry.Pt(r, top), C: geometry.Pt(r, bottom), D: geometry.Pt(l, bottom)}
}

func bitmap(img image.Image) *symscan.GrayBitmap {
	return symscan.NewGrayBitmap(symscan.NewImageLuminanceSource(img), 0.5)
}

func scan(t *testing.T, bm symscan.Bitmap) []*symscan.BarCodeRegion {
	t.Helper()
	regions, err := symscan.Scan(context.Background(), bm, &symscan.ScanOptions{
		Workers:   2,
		Detectors: []string{Name},
	})
	if err != nil {
		t.Fatal(err)
	}
	return regions
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		f    fixture
		text string
	}{
		{"small square", fixture{rows: 12, cols: 12, module: 4, quiet: 3}, "Hello"},
		{"large modules", fixture{rows: 16, cols: 16, module: 7, quiet: 2}, "Data Matrix"},
		{"four regions", fixture{rows: 32, cols: 32, module: 4, quiet: 3}, "Four data regions, one symbol"},
		{"rectangle", fixture{rows: 12, cols: 26, module: 5, quiet: 3}, "Rectangular"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, want := tc.f.render(t, tc.text)
			regions := scan(t, bitmap(img))
			if len(regions) != 1 {
				t.Fatalf("got %d regions, want 1", len(regions))
			}
			r := regions[0]
			if got := r.Payload.String(); got != tc.text {
				t.Errorf("payload %q, want %q", got, tc.text)
			}
			if r.Symbology != Name || r.StartPattern != -1 {
				t.Errorf("symbology %q start %d", r.Symbology, r.StartPattern)
			}
			if !r.Quad.Near(want, 1.5) {
				t.Errorf("corners %v %v %v %v, want %v %v %v %v", r.A, r.B, r.C, r.D, want.A, want.B, want.C, want.D)
			}
			if math.Abs(r.Angle()) > 0.02 {
				t.Errorf("angle %v", r.Angle())
			}
			if r.Confidence != 1 || r.ErrorsCorrected != 0 {
				t.Errorf("confidence %v, %d errors corrected", r.Confidence, r.ErrorsCorrected)
			}
		})
	}
}

func TestDetectRotated(t *testing.T) {
	img, _ := fixture{rows: 14, cols: 14, module: 6, quiet: 4}.render(t, "Rotated")
	for _, deg := range []float64{90, 180, 270, 20, -35} {
		rotated := imaging.Rotate(img, deg, color.White)
		regions := scan(t, bitmap(rotated))
		if len(regions) != 1 {
			t.Errorf("%v degrees: got %d regions, want 1", deg, len(regions))
			continue
		}
		r := regions[0]
		if got := r.Payload.String(); got != "Rotated" {
			t.Errorf("%v degrees: payload %q", deg, got)
		}
		// Counter-clockwise on screen is a negative angle with y down.
		want := -deg * math.Pi / 180
		d := math.Remainder(r.Angle()-want, 2*math.Pi)
		if math.Abs(d) > 0.05 {
			t.Errorf("%v degrees: angle %v, want %v", deg, r.Angle(), want)
		}
	}
}

func TestDetectRejectsSolidSquare(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 20; y < 80; y++ {
		for x := 20; x < 80; x++ {
			img.SetGray(x, y, color.Gray{})
		}
	}
	if regions := scan(t, bitmap(img)); len(regions) != 0 {
		t.Errorf("found %d regions in a solid square", len(regions))
	}
}

func TestDetectDamaged(t *testing.T) {
	f := fixture{rows: 18, cols: 18, module: 5, quiet: 3}
	img, _ := f.render(t, "Damaged")
	// Blot out a 2x2 module patch inside the data area.
	q := f.quiet * f.module
	for y := q + 6*f.module; y < q+8*f.module; y++ {
		for x := q + 8*f.module; x < q+10*f.module; x++ {
			img.SetGray(x, y, color.Gray{Y: 255 - img.GrayAt(x, y).Y})
		}
	}
	regions := scan(t, bitmap(img))
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	r := regions[0]
	if r.Payload.String() != "Damaged" {
		t.Errorf("payload %q", r.Payload)
	}
	if r.ErrorsCorrected == 0 || r.Confidence >= 1 {
		t.Errorf("%d errors corrected, confidence %v", r.ErrorsCorrected, r.Confidence)
	}
}

func TestDetectorRegistered(t *testing.T) {
	found := false
	for _, name := range symscan.Detectors() {
		if name == Name {
			found = true
		}
	}
	if !found {
		t.Errorf("%q missing from %v", Name, symscan.Detectors())
	}
}

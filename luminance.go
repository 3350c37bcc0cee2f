package symscan

import (
	"image"

	"github.com/ericlevine/symscan/bitutil"
)

// LuminanceSource provides 8-bit greyscale values for an image, 0 black.
type LuminanceSource interface {
	// Row returns row y, reusing row when it is large enough.
	Row(y int, row []byte) []byte

	// Matrix returns the whole image, row-major.
	Matrix() []byte

	Width() int
	Height() int
}

// Binarizer turns luminance into black and white modules.
type Binarizer interface {
	BlackMatrix() (*bitutil.BitMatrix, error)
	LuminanceSource() LuminanceSource
}

// ImageLuminanceSource is a LuminanceSource over a decoded image.
type ImageLuminanceSource struct {
	luminances []byte
	width      int
	height     int
}

// NewImageLuminanceSource converts img to luminance with the weights
// (306R + 601G + 117B) / 1024 on 8-bit components. Fully transparent pixels
// read as white.
func NewImageLuminanceSource(img image.Image) *ImageLuminanceSource {
	if g, ok := img.(*image.Gray); ok {
		return NewGrayLuminanceSource(g)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	luminances := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a == 0 {
				luminances[y*w+x] = 0xFF
				continue
			}
			luminances[y*w+x] = byte((306*(r>>8) + 601*(g>>8) + 117*(b>>8) + 0x200) >> 10)
		}
	}
	return &ImageLuminanceSource{luminances: luminances, width: w, height: h}
}

// NewGrayLuminanceSource copies the pixels of img.
func NewGrayLuminanceSource(img *image.Gray) *ImageLuminanceSource {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	luminances := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(luminances[y*w:(y+1)*w], img.Pix[off:off+w])
	}
	return &ImageLuminanceSource{luminances: luminances, width: w, height: h}
}

// Row returns a copy of row y, or nil when y is out of range.
func (s *ImageLuminanceSource) Row(y int, row []byte) []byte {
	if y < 0 || y >= s.height {
		return nil
	}
	if len(row) < s.width {
		row = make([]byte, s.width)
	}
	copy(row, s.luminances[y*s.width:(y+1)*s.width])
	return row
}

// Matrix returns the luminance buffer. Callers must not modify it.
func (s *ImageLuminanceSource) Matrix() []byte { return s.luminances }

func (s *ImageLuminanceSource) Width() int  { return s.width }
func (s *ImageLuminanceSource) Height() int { return s.height }

package symscan

import (
	"math"

	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/geometry"
)

// Bitmap is the binarized image the locators read. Coordinates outside the
// image read as white.
type Bitmap interface {
	Width() int
	Height() int

	// IsBlack reports whether pixel (x, y) is black.
	IsBlack(x, y int) bool

	// Gray returns the gray level of (x, y) in [0, 1], 0 being black.
	Gray(x, y int) float64

	// Row and Column extract black pixels into a bit array, reusing dst
	// when it is large enough.
	Row(y int, dst *bitutil.BitArray) *bitutil.BitArray
	Column(x int, dst *bitutil.BitArray) *bitutil.BitArray

	// BWThreshold is the gray level below which a pixel counts as black.
	BWThreshold() float64
	SetBWThreshold(t float64)
}

// Viewer is implemented by bitmaps that can hand out views sharing the
// read-only pixels but carrying an independent threshold, one per worker.
type Viewer interface {
	View() Bitmap
}

// In reports whether p lies inside bm.
func In(bm Bitmap, p geometry.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < float64(bm.Width()) && p.Y < float64(bm.Height())
}

// IsBlackAt classifies the pixel containing p.
func IsBlackAt(bm Bitmap, p geometry.Point) bool {
	x, y := p.Floor()
	return bm.IsBlack(x, y)
}

// sampleModule is the module length from which IsBlackSample votes over a
// neighbourhood instead of reading a single pixel.
const sampleModule = 3

// IsBlackSample classifies the module centered at p. Modules shorter than
// three pixels are read directly; larger ones take the majority of a 3x3
// neighbourhood spaced a quarter module apart, which suppresses single-pixel
// noise at the module center.
func IsBlackSample(bm Bitmap, p geometry.Point, moduleLength float64) bool {
	if moduleLength < sampleModule {
		return IsBlackAt(bm, p)
	}
	d := moduleLength / 4
	black, total := 0, 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			q := geometry.Pt(p.X+float64(dx)*d, p.Y+float64(dy)*d)
			if !In(bm, q) {
				continue
			}
			total++
			if IsBlackAt(bm, q) {
				black++
			}
		}
	}
	return total > 0 && 2*black > total
}

// GrayBitmap thresholds a luminance buffer.
type GrayBitmap struct {
	lum       []byte
	width     int
	height    int
	threshold float64
}

// NewGrayBitmap builds a bitmap over src. threshold is a gray level in
// (0, 1); values outside that range select 0.5.
func NewGrayBitmap(src LuminanceSource, threshold float64) *GrayBitmap {
	if threshold <= 0 || threshold >= 1 || math.IsNaN(threshold) {
		threshold = 0.5
	}
	return &GrayBitmap{
		lum:       src.Matrix(),
		width:     src.Width(),
		height:    src.Height(),
		threshold: threshold,
	}
}

func (b *GrayBitmap) Width() int  { return b.width }
func (b *GrayBitmap) Height() int { return b.height }

func (b *GrayBitmap) Gray(x, y int) float64 {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 1
	}
	return float64(b.lum[y*b.width+x]) / 255
}

func (b *GrayBitmap) IsBlack(x, y int) bool {
	return b.Gray(x, y) < b.threshold
}

func (b *GrayBitmap) Row(y int, dst *bitutil.BitArray) *bitutil.BitArray {
	dst = reuse(dst, b.width)
	if y < 0 || y >= b.height {
		return dst
	}
	limit := b.threshold * 255
	for x, v := range b.lum[y*b.width : (y+1)*b.width] {
		if float64(v) < limit {
			dst.Set(x)
		}
	}
	return dst
}

func (b *GrayBitmap) Column(x int, dst *bitutil.BitArray) *bitutil.BitArray {
	dst = reuse(dst, b.height)
	if x < 0 || x >= b.width {
		return dst
	}
	limit := b.threshold * 255
	for y := 0; y < b.height; y++ {
		if float64(b.lum[y*b.width+x]) < limit {
			dst.Set(y)
		}
	}
	return dst
}

func (b *GrayBitmap) BWThreshold() float64 { return b.threshold }

func (b *GrayBitmap) SetBWThreshold(t float64) {
	if t > 0 && t < 1 {
		b.threshold = t
	}
}

// View returns a bitmap sharing b's pixels with its own threshold.
func (b *GrayBitmap) View() Bitmap {
	v := *b
	return &v
}

// MatrixBitmap reads an already binarized matrix. Its threshold is recorded
// but does not change the bits.
type MatrixBitmap struct {
	m         *bitutil.BitMatrix
	threshold float64
}

// NewMatrixBitmap wraps m.
func NewMatrixBitmap(m *bitutil.BitMatrix) *MatrixBitmap {
	return &MatrixBitmap{m: m, threshold: 0.5}
}

// Matrix returns the wrapped matrix.
func (b *MatrixBitmap) Matrix() *bitutil.BitMatrix { return b.m }

func (b *MatrixBitmap) Width() int  { return b.m.Width() }
func (b *MatrixBitmap) Height() int { return b.m.Height() }

func (b *MatrixBitmap) IsBlack(x, y int) bool {
	if x < 0 || y < 0 || x >= b.m.Width() || y >= b.m.Height() {
		return false
	}
	return b.m.Get(x, y)
}

func (b *MatrixBitmap) Gray(x, y int) float64 {
	if b.IsBlack(x, y) {
		return 0
	}
	return 1
}

func (b *MatrixBitmap) Row(y int, dst *bitutil.BitArray) *bitutil.BitArray {
	dst = reuse(dst, b.m.Width())
	if y < 0 || y >= b.m.Height() {
		return dst
	}
	return b.m.Row(y, dst)
}

func (b *MatrixBitmap) Column(x int, dst *bitutil.BitArray) *bitutil.BitArray {
	dst = reuse(dst, b.m.Height())
	for y := 0; y < b.m.Height(); y++ {
		if b.IsBlack(x, y) {
			dst.Set(y)
		}
	}
	return dst
}

func (b *MatrixBitmap) BWThreshold() float64 { return b.threshold }

func (b *MatrixBitmap) SetBWThreshold(t float64) {
	if t > 0 && t < 1 {
		b.threshold = t
	}
}

// View returns a copy with an independent threshold.
func (b *MatrixBitmap) View() Bitmap {
	v := *b
	return &v
}

func reuse(a *bitutil.BitArray, size int) *bitutil.BitArray {
	if a == nil || a.Size() < size {
		return bitutil.NewBitArray(size)
	}
	a.Clear()
	return a
}

package bitutil

import (
	"math/bits"
	"strings"
)

// BitMatrix is a packed grid of bits with x across and y down from the top
// left corner. Each row starts on a word boundary.
type BitMatrix struct {
	width, height int
	stride        int
	w             []uint64
}

// NewBitMatrix creates a cleared width x height matrix.
func NewBitMatrix(width, height int) *BitMatrix {
	width, height = max(width, 0), max(height, 0)
	stride := words(width)
	return &BitMatrix{width: width, height: height, stride: stride, w: make([]uint64, stride*height)}
}

func (m *BitMatrix) Width() int  { return m.width }
func (m *BitMatrix) Height() int { return m.height }

func (m *BitMatrix) index(x, y int) (int, uint64) {
	return y*m.stride + x/wordBits, 1 << (x % wordBits)
}

func (m *BitMatrix) Get(x, y int) bool {
	i, b := m.index(x, y)
	return m.w[i]&b != 0
}

func (m *BitMatrix) Set(x, y int) {
	i, b := m.index(x, y)
	m.w[i] |= b
}

func (m *BitMatrix) Flip(x, y int) {
	i, b := m.index(x, y)
	m.w[i] ^= b
}

// SetRegion sets the width x height rectangle at (left, top), clipped to
// the matrix.
func (m *BitMatrix) SetRegion(left, top, width, height int) {
	x0, y0 := max(left, 0), max(top, 0)
	x1, y1 := min(left+width, m.width), min(top+height, m.height)
	if x0 >= x1 {
		return
	}
	for y := y0; y < y1; y++ {
		row := BitArray{w: m.w[y*m.stride : (y+1)*m.stride], size: m.width}
		row.SetRange(x0, x1)
	}
}

// Row copies row y into dst, allocating when dst is nil or too short.
func (m *BitMatrix) Row(y int, dst *BitArray) *BitArray {
	if dst == nil || dst.Size() < m.width {
		dst = NewBitArray(m.width)
	} else {
		dst.Clear()
	}
	copy(dst.w, m.w[y*m.stride:(y+1)*m.stride])
	return dst
}

// Count returns the number of set bits.
func (m *BitMatrix) Count() int {
	n := 0
	for y := 0; y < m.height; y++ {
		row := m.w[y*m.stride : (y+1)*m.stride]
		for _, w := range row {
			n += bits.OnesCount64(w)
		}
	}
	return n
}

// String draws the matrix one row per line, set bits as "X ".
func (m *BitMatrix) String() string {
	var sb strings.Builder
	sb.Grow(m.height * (2*m.width + 1))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.Get(x, y) {
				sb.WriteString("X ")
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

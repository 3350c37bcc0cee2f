// Package bitutil holds packed bit rows and matrices for thresholded
// images and a reader for bit streams that do not fall on byte boundaries.
package bitutil

import (
	"math/bits"
	"strings"
)

const wordBits = 64

func words(n int) int { return (n + wordBits - 1) / wordBits }

// BitArray is a fixed-size row of bits.
type BitArray struct {
	w    []uint64
	size int
}

// NewBitArray creates a cleared array of size bits.
func NewBitArray(size int) *BitArray {
	size = max(size, 0)
	return &BitArray{w: make([]uint64, words(size)), size: size}
}

// Size returns the number of bits.
func (a *BitArray) Size() int { return a.size }

func (a *BitArray) Get(i int) bool { return a.w[i/wordBits]>>(i%wordBits)&1 != 0 }
func (a *BitArray) Set(i int)      { a.w[i/wordBits] |= 1 << (i % wordBits) }
func (a *BitArray) Flip(i int)     { a.w[i/wordBits] ^= 1 << (i % wordBits) }

// SetRange sets bits [start, end).
func (a *BitArray) SetRange(start, end int) {
	start, end = max(start, 0), min(end, a.size)
	for i := start; i < end; {
		k, off := i/wordBits, i%wordBits
		n := min(wordBits-off, end-i)
		mask := ^uint64(0) >> (wordBits - n) << off
		a.w[k] |= mask
		i += n
	}
}

// Clear unsets every bit.
func (a *BitArray) Clear() { clear(a.w) }

// NextSet returns the index of the first set bit at or after from, or Size
// when there is none.
func (a *BitArray) NextSet(from int) int { return a.next(from, 0) }

// NextUnset returns the index of the first unset bit at or after from, or
// Size when there is none.
func (a *BitArray) NextUnset(from int) int { return a.next(from, ^uint64(0)) }

func (a *BitArray) next(from int, invert uint64) int {
	if from >= a.size {
		return a.size
	}
	from = max(from, 0)
	k := from / wordBits
	cur := (a.w[k] ^ invert) &^ (1<<(from%wordBits) - 1)
	for cur == 0 {
		k++
		if k == len(a.w) {
			return a.size
		}
		cur = a.w[k] ^ invert
	}
	return min(k*wordBits+bits.TrailingZeros64(cur), a.size)
}

// String draws set bits as 'X' and unset bits as '.'.
func (a *BitArray) String() string {
	var sb strings.Builder
	sb.Grow(a.size)
	for i := 0; i < a.size; i++ {
		if a.Get(i) {
			sb.WriteByte('X')
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

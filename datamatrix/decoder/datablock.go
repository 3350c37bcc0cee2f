package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/reedsolomon"
)

// Block is one error correction block: its data codewords followed by its
// check codewords.
type Block struct {
	Data      int
	Codewords []byte
}

// slots returns the block and index of every raw codeword in symbol order.
// Data codewords are interleaved across the blocks, then check codewords.
// In the 144x144 symbol the check codewords start with the ninth block.
func slots(v *Version) [][2]int {
	var data []int
	for _, b := range v.Blocks {
		for i := 0; i < b.Count; i++ {
			data = append(data, b.Data)
		}
	}
	n := len(data)
	longest := 0
	for _, d := range data {
		longest = max(longest, d)
	}
	out := make([][2]int, 0, v.Total)
	for i := 0; i < longest; i++ {
		for j := 0; j < n; j++ {
			if i < data[j] {
				out = append(out, [2]int{j, i})
			}
		}
	}
	for e := 0; e < v.ECW; e++ {
		for j := 0; j < n; j++ {
			jj := j
			if v.Number == 24 {
				jj = (j + 8) % n
			}
			out = append(out, [2]int{jj, data[jj] + e})
		}
	}
	return out
}

func newBlocks(v *Version) []Block {
	var out []Block
	for _, b := range v.Blocks {
		for i := 0; i < b.Count; i++ {
			out = append(out, Block{Data: b.Data, Codewords: make([]byte, b.Data+v.ECW)})
		}
	}
	return out
}

// Split separates the raw codewords of a symbol into its blocks.
func Split(raw []byte, v *Version) ([]Block, error) {
	if len(raw) != v.Total {
		return nil, fmt.Errorf("datamatrix: %d codewords for %v, want %d: %w", len(raw), v, v.Total, symscan.ErrFormat)
	}
	blocks := newBlocks(v)
	for i, s := range slots(v) {
		blocks[s[0]].Codewords[s[1]] = raw[i]
	}
	return blocks, nil
}

// Interleave computes the check codewords for the data codewords of a
// symbol and returns the raw codewords in symbol order. It is the inverse
// of Split followed by correction.
func Interleave(v *Version, data []byte) ([]byte, error) {
	if len(data) != v.DataCodewords() {
		return nil, fmt.Errorf("datamatrix: %d data codewords for %v, want %d: %w", len(data), v, v.DataCodewords(), symscan.ErrFormat)
	}
	blocks := newBlocks(v)
	n := len(blocks)
	enc := reedsolomon.NewEncoder(reedsolomon.DataMatrixField256)
	for j := range blocks {
		b := &blocks[j]
		cw := make([]int, len(b.Codewords))
		for i := 0; i < b.Data; i++ {
			cw[i] = int(data[i*n+j])
		}
		enc.Encode(cw, v.ECW)
		for i, c := range cw {
			b.Codewords[i] = byte(c)
		}
	}
	raw := make([]byte, v.Total)
	for i, s := range slots(v) {
		raw[i] = blocks[s[0]].Codewords[s[1]]
	}
	return raw, nil
}

package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/reedsolomon"
)

// Result is a decoded symbol.
type Result struct {
	Version         *Version
	Payload         symscan.Payload
	ErrorsCorrected int
	// Confidence is the lowest correction confidence of any block.
	Confidence float64
}

// Decoder decodes Data Matrix ECC 200 symbols.
type Decoder struct {
	rs *reedsolomon.Decoder
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{rs: reedsolomon.NewDecoder(reedsolomon.DataMatrixField256)}
}

// Decode decodes the modules of a symbol, finder and alignment patterns
// included. The matrix is read with row 0 at the top timing pattern and
// column 0 at the solid left side.
func (d *Decoder) Decode(bits *bitutil.BitMatrix) (*Result, error) {
	raw, v, err := ReadCodewords(bits)
	if err != nil {
		return nil, err
	}
	blocks, err := Split(raw, v)
	if err != nil {
		return nil, err
	}

	res := &Result{Version: v, Confidence: 1}
	data := make([]byte, v.DataCodewords())
	n := len(blocks)
	for j, b := range blocks {
		c, err := d.correct(b)
		if err != nil {
			return nil, fmt.Errorf("datamatrix: block %d of %d: %w", j+1, n, err)
		}
		res.ErrorsCorrected += c.Errors
		res.Confidence = min(res.Confidence, c.Confidence)
		for i := 0; i < b.Data; i++ {
			data[i*n+j] = b.Codewords[i]
		}
	}

	if res.Payload, err = DecodeBitStream(data); err != nil {
		return nil, err
	}
	return res, nil
}

// correct repairs a block in place.
func (d *Decoder) correct(b Block) (reedsolomon.Correction, error) {
	cw := make([]int, len(b.Codewords))
	for i, c := range b.Codewords {
		cw[i] = int(c)
	}
	c, err := d.rs.Decode(cw, len(cw)-b.Data)
	if err != nil {
		return c, err
	}
	for i := 0; i < b.Data; i++ {
		b.Codewords[i] = byte(cw[i])
	}
	return c, nil
}

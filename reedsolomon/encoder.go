package reedsolomon

import "sync"

// Encoder appends Reed-Solomon check codewords. Generator polynomials are
// cached per degree; an Encoder may be shared between goroutines.
type Encoder struct {
	field *GenericGF

	mu         sync.Mutex
	generators []*Poly
}

// NewEncoder creates an Encoder over field.
func NewEncoder(field *GenericGF) *Encoder {
	return &Encoder{
		field:      field,
		generators: []*Poly{field.One()},
	}
}

func (e *Encoder) generator(degree int) *Poly {
	e.mu.Lock()
	defer e.mu.Unlock()
	for d := len(e.generators); d <= degree; d++ {
		last := e.generators[d-1]
		root := newPoly(e.field, []int{1, e.field.Exp(d - 1 + e.field.GeneratorBase())})
		e.generators = append(e.generators, last.Mul(root))
	}
	return e.generators[degree]
}

// Encode fills the last ecw entries of codewords with check words computed
// over the leading data words.
func (e *Encoder) Encode(codewords []int, ecw int) {
	if ecw <= 0 {
		panic("reedsolomon: no error correction codewords")
	}
	dataLen := len(codewords) - ecw
	if dataLen <= 0 {
		panic("reedsolomon: no data codewords")
	}
	data := make([]int, dataLen)
	copy(data, codewords[:dataLen])
	info := newPoly(e.field, data).MulMonomial(ecw, 1)
	_, remainder := info.DivMod(e.generator(ecw))
	coefficients := remainder.Coefficients()
	pad := ecw - len(coefficients)
	for i := 0; i < pad; i++ {
		codewords[dataLen+i] = 0
	}
	copy(codewords[dataLen+pad:], coefficients)
}

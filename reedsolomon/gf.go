// Package reedsolomon implements Galois field arithmetic and Reed-Solomon
// error correction over GF(2^m).
package reedsolomon

import (
	"errors"
	"fmt"
)

// ErrDivideByZero is returned by Divide when the divisor is zero.
var ErrDivideByZero = errors.New("reedsolomon: division by zero")

// GenericGF is the field GF(2^m) described by a primitive polynomial, with
// the exponent of the generator's first root. Fields are immutable once built
// and safe for concurrent use.
type GenericGF struct {
	expTable      []int
	logTable      []int
	zero          *Poly
	one           *Poly
	size          int
	primitive     int
	generatorBase int
}

// Pre-defined fields.
var (
	QRCodeField256     = NewGenericGF(0x011D, 256, 0) // x^8 + x^4 + x^3 + x^2 + 1
	DataMatrixField256 = NewGenericGF(0x012D, 256, 1) // x^8 + x^5 + x^3 + x^2 + 1
)

// NewGenericGF builds GF(size) from the primitive polynomial given as an
// integer bit mask. size must be a power of two.
func NewGenericGF(primitive, size, generatorBase int) *GenericGF {
	if size < 2 || size&(size-1) != 0 {
		panic("reedsolomon: field size must be a power of two")
	}
	gf := &GenericGF{
		primitive:     primitive,
		size:          size,
		generatorBase: generatorBase,
		expTable:      make([]int, size),
		logTable:      make([]int, size),
	}

	x := 1
	for i := 0; i < size; i++ {
		gf.expTable[i] = x
		x <<= 1
		if x >= size {
			x ^= primitive
			x &= size - 1
		}
	}
	for i := 0; i < size-1; i++ {
		gf.logTable[gf.expTable[i]] = i
	}

	gf.zero = newPoly(gf, []int{0})
	gf.one = newPoly(gf, []int{1})
	return gf
}

// NewFieldFromPolynomial builds a field from the binary coefficients of its
// primitive polynomial, highest degree first. {1,0,0,1,1} is x^4 + x + 1 and
// yields GF(16).
func NewFieldFromPolynomial(bits []int, generatorBase int) (*GenericGF, error) {
	if len(bits) < 2 || bits[0] != 1 {
		return nil, fmt.Errorf("reedsolomon: invalid primitive polynomial %v", bits)
	}
	primitive := 0
	for _, b := range bits {
		if b != 0 && b != 1 {
			return nil, fmt.Errorf("reedsolomon: coefficient %d is not binary", b)
		}
		primitive = primitive<<1 | b
	}
	gf := NewGenericGF(primitive, 1<<(len(bits)-1), generatorBase)
	// A reducible polynomial repeats an element before the table wraps.
	for i := 1; i < gf.size-1; i++ {
		if gf.expTable[i] == 1 {
			return nil, fmt.Errorf("reedsolomon: polynomial %v is not primitive", bits)
		}
	}
	return gf, nil
}

// Zero returns the zero polynomial.
func (gf *GenericGF) Zero() *Poly { return gf.zero }

// One returns the one polynomial.
func (gf *GenericGF) One() *Poly { return gf.one }

// Monomial returns coefficient * x^degree.
func (gf *GenericGF) Monomial(degree, coefficient int) *Poly {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if coefficient == 0 {
		return gf.zero
	}
	coefficients := make([]int, degree+1)
	coefficients[0] = coefficient
	return newPoly(gf, coefficients)
}

// AddOrSubtract computes a XOR b; addition and subtraction coincide in GF(2^m).
func AddOrSubtract(a, b int) int {
	return a ^ b
}

// Exp returns alpha^a.
func (gf *GenericGF) Exp(a int) int {
	return gf.expTable[a%(gf.size-1)]
}

// Log returns the discrete logarithm of a.
func (gf *GenericGF) Log(a int) int {
	if a == 0 {
		panic("reedsolomon: log(0)")
	}
	return gf.logTable[a]
}

// Inverse returns the multiplicative inverse of a.
func (gf *GenericGF) Inverse(a int) int {
	if a == 0 {
		panic("reedsolomon: inverse(0)")
	}
	return gf.expTable[gf.size-gf.logTable[a]-1]
}

// Multiply returns a * b.
func (gf *GenericGF) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return gf.expTable[(gf.logTable[a]+gf.logTable[b])%(gf.size-1)]
}

// Divide returns a / b. Dividing zero yields zero; dividing by zero is an error.
func (gf *GenericGF) Divide(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == 0 {
		return 0, nil
	}
	n := gf.size - 1
	return gf.expTable[(gf.logTable[a]+n-gf.logTable[b])%n], nil
}

// Size returns the number of field elements.
func (gf *GenericGF) Size() int { return gf.size }

// GeneratorBase returns the exponent of the generator polynomial's first root.
func (gf *GenericGF) GeneratorBase() int { return gf.generatorBase }

func (gf *GenericGF) String() string {
	return fmt.Sprintf("GF(0x%x,%d)", gf.primitive, gf.size)
}

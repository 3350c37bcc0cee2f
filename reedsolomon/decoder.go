package reedsolomon

import (
	"errors"
	"slices"
)

// ErrUncorrectable reports a codeword sequence with more errors than its
// check words can repair.
var ErrUncorrectable = errors.New("reedsolomon: uncorrectable codewords")

// Algorithm selects how the error locator polynomial is computed.
type Algorithm int

const (
	// BerlekampMassey builds the locator iteratively from the syndromes.
	BerlekampMassey Algorithm = iota
	// Euclidean runs the extended Euclidean algorithm on x^ecw and the
	// syndrome polynomial.
	Euclidean
)

func (a Algorithm) String() string {
	switch a {
	case BerlekampMassey:
		return "berlekamp-massey"
	case Euclidean:
		return "euclidean"
	}
	return "unknown"
}

// Correction describes a successful decode.
type Correction struct {
	// Errors is the number of codewords that were repaired.
	Errors int
	// Confidence is (ecw/2 - Errors) / (ecw/2): 1 for a clean read, 0 when
	// the full correction capacity was used.
	Confidence float64
}

// Decoder performs Reed-Solomon error correction.
type Decoder struct {
	field     *GenericGF
	Algorithm Algorithm
}

// NewDecoder creates a Berlekamp-Massey decoder over field.
func NewDecoder(field *GenericGF) *Decoder {
	return &Decoder{field: field}
}

// Field returns the decoder's field.
func (d *Decoder) Field() *GenericGF { return d.field }

// Decode corrects received in place. ecw is the number of check codewords at
// the end of received. On error, received is left untouched.
func (d *Decoder) Decode(received []int, ecw int) (Correction, error) {
	if ecw <= 0 || ecw >= len(received) {
		return Correction{}, ErrUncorrectable
	}
	capacity := ecw / 2

	poly := newPoly(d.field, received)
	syndromes := make([]int, ecw)
	clean := true
	for i := 0; i < ecw; i++ {
		s := poly.Eval(d.field.Exp(i + d.field.GeneratorBase()))
		syndromes[i] = s
		if s != 0 {
			clean = false
		}
	}
	if clean {
		return Correction{Confidence: 1}, nil
	}

	var sigma, omega *Poly
	var err error
	switch d.Algorithm {
	case Euclidean:
		sigma, omega, err = d.euclidean(syndromes)
	default:
		sigma, omega, err = d.berlekampMassey(syndromes)
	}
	if err != nil {
		return Correction{}, err
	}
	degree := sigma.Degree()
	if degree == 0 || degree > capacity {
		return Correction{}, ErrUncorrectable
	}

	locations, err := d.chienSearch(sigma)
	if err != nil {
		return Correction{}, err
	}
	positions := make([]int, len(locations))
	for i, loc := range locations {
		positions[i] = len(received) - 1 - d.field.Log(loc)
		if positions[i] < 0 {
			return Correction{}, ErrUncorrectable
		}
	}
	// An evaluator of the locator's degree or more means the syndromes
	// describe more errors than the locator found.
	if omega.Degree() >= degree {
		return Correction{}, ErrUncorrectable
	}
	magnitudes, err := d.forney(omega, locations)
	if err != nil {
		return Correction{}, err
	}
	fixed := slices.Clone(received)
	for i, pos := range positions {
		fixed[pos] = AddOrSubtract(fixed[pos], magnitudes[i])
	}
	if !d.isCodeword(fixed, ecw) {
		return Correction{}, ErrUncorrectable
	}
	copy(received, fixed)
	return Correction{
		Errors:     degree,
		Confidence: float64(capacity-degree) / float64(capacity),
	}, nil
}

func (d *Decoder) isCodeword(codewords []int, ecw int) bool {
	p := newPoly(d.field, codewords)
	for i := 0; i < ecw; i++ {
		if p.Eval(d.field.Exp(i+d.field.GeneratorBase())) != 0 {
			return false
		}
	}
	return true
}

// syndromePoly returns S(x) = sum S_i x^i.
func (d *Decoder) syndromePoly(syndromes []int) *Poly {
	coefficients := make([]int, len(syndromes))
	for i, s := range syndromes {
		coefficients[len(syndromes)-1-i] = s
	}
	return newPoly(d.field, coefficients)
}

// berlekampMassey returns the minimal error locator Lambda(x) with
// Lambda(0) = 1 and the evaluator S(x)Lambda(x) mod x^ecw.
func (d *Decoder) berlekampMassey(syndromes []int) (sigma, omega *Poly, err error) {
	f := d.field
	n := len(syndromes)
	// Coefficient slices are stored lowest degree first.
	c := make([]int, n+1)
	b := make([]int, n+1)
	c[0], b[0] = 1, 1
	l, m, lastDiscrepancy := 0, 1, 1
	scratch := make([]int, n+1)

	for k := 0; k < n; k++ {
		discrepancy := syndromes[k]
		for i := 1; i <= l; i++ {
			discrepancy ^= f.Multiply(c[i], syndromes[k-i])
		}
		if discrepancy == 0 {
			m++
			continue
		}
		scale, err := f.Divide(discrepancy, lastDiscrepancy)
		if err != nil {
			return nil, nil, ErrUncorrectable
		}
		if 2*l <= k {
			copy(scratch, c)
			for i := 0; i+m <= n; i++ {
				c[i+m] ^= f.Multiply(scale, b[i])
			}
			l = k + 1 - l
			copy(b, scratch)
			lastDiscrepancy = discrepancy
			m = 1
		} else {
			for i := 0; i+m <= n; i++ {
				c[i+m] ^= f.Multiply(scale, b[i])
			}
			m++
		}
	}
	if l > n/2 {
		return nil, nil, ErrUncorrectable
	}

	high := make([]int, l+1)
	for i := 0; i <= l; i++ {
		high[l-i] = c[i]
	}
	sigma = newPoly(f, high)
	if sigma.Degree() != l {
		// The locator collapsed below the register length: roots are missing.
		return nil, nil, ErrUncorrectable
	}
	omega = d.syndromePoly(syndromes).Mul(sigma).Truncate(n)
	return sigma, omega, nil
}

func (d *Decoder) euclidean(syndromes []int) (sigma, omega *Poly, err error) {
	f := d.field
	R := len(syndromes)
	a := f.Monomial(R, 1)
	b := d.syndromePoly(syndromes)
	if a.Degree() < b.Degree() {
		a, b = b, a
	}

	rLast, r := a, b
	tLast, t := f.Zero(), f.One()
	for 2*r.Degree() >= R {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.IsZero() {
			return nil, nil, ErrUncorrectable
		}
		r = rLastLast
		q := f.Zero()
		dltInverse := f.Inverse(rLast.Coeff(rLast.Degree()))
		for r.Degree() >= rLast.Degree() && !r.IsZero() {
			degreeDiff := r.Degree() - rLast.Degree()
			scale := f.Multiply(r.Coeff(r.Degree()), dltInverse)
			q = q.Add(f.Monomial(degreeDiff, scale))
			r = r.Add(rLast.MulMonomial(degreeDiff, scale))
		}
		t = q.Mul(tLast).Add(tLastLast)
		if r.Degree() >= rLast.Degree() {
			return nil, nil, ErrUncorrectable
		}
	}

	sigmaTildeAtZero := t.Coeff(0)
	if sigmaTildeAtZero == 0 {
		return nil, nil, ErrUncorrectable
	}
	inverse := f.Inverse(sigmaTildeAtZero)
	return t.Scale(inverse), r.Scale(inverse), nil
}

// chienSearch evaluates the locator at every nonzero element and returns the
// inverses of its roots, the error locations X_i.
func (d *Decoder) chienSearch(sigma *Poly) ([]int, error) {
	want := sigma.Degree()
	locations := make([]int, 0, want)
	for i := 1; i < d.field.Size(); i++ {
		if sigma.Eval(i) == 0 {
			locations = append(locations, d.field.Inverse(i))
		}
	}
	if len(locations) != want {
		return nil, ErrUncorrectable
	}
	return locations, nil
}

// forney computes error magnitudes from the evaluator at each location.
func (d *Decoder) forney(omega *Poly, locations []int) ([]int, error) {
	f := d.field
	magnitudes := make([]int, len(locations))
	for i, xi := range locations {
		xiInverse := f.Inverse(xi)
		denominator := 1
		for j, xj := range locations {
			if i != j {
				denominator = f.Multiply(denominator, AddOrSubtract(1, f.Multiply(xj, xiInverse)))
			}
		}
		m, err := f.Divide(omega.Eval(xiInverse), denominator)
		if err != nil {
			return nil, ErrUncorrectable
		}
		if base := f.GeneratorBase(); base != 0 {
			m = f.Multiply(m, f.Exp(f.Log(xiInverse)*base))
		}
		magnitudes[i] = m
	}
	return magnitudes, nil
}

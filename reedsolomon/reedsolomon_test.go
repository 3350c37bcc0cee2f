package reedsolomon

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
)

func encodeSequential(field *GenericGF, dataLen, ecw int) []int {
	codewords := make([]int, dataLen+ecw)
	for i := 0; i < dataLen; i++ {
		codewords[i] = (i*37 + 11) % field.Size()
	}
	NewEncoder(field).Encode(codewords, ecw)
	return codewords
}

// corrupt flips k distinct positions of a copy of codewords to different values.
func corrupt(rng *rand.Rand, field *GenericGF, codewords []int, k int) []int {
	received := slices.Clone(codewords)
	for _, pos := range rng.Perm(len(codewords))[:k] {
		received[pos] ^= 1 + rng.Intn(field.Size()-1)
	}
	return received
}

func isCodeword(field *GenericGF, codewords []int, ecw int) bool {
	poly := newPoly(field, codewords)
	for i := 0; i < ecw; i++ {
		if poly.Eval(field.Exp(i+field.GeneratorBase())) != 0 {
			return false
		}
	}
	return true
}

func TestFieldRoundTrip(t *testing.T) {
	gf16, err := NewFieldFromPolynomial([]int{1, 0, 0, 1, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []*GenericGF{gf16, QRCodeField256, DataMatrixField256} {
		t.Run(field.String(), func(t *testing.T) {
			for a := 1; a < field.Size(); a++ {
				for b := 1; b < field.Size(); b++ {
					q, err := field.Divide(field.Multiply(a, b), b)
					if err != nil || q != a {
						t.Fatalf("div(mult(%d,%d),%d) = %d, %v", a, b, b, q, err)
					}
					q, _ = field.Divide(a, b)
					if got := field.Multiply(q, b); got != a {
						t.Fatalf("mult(div(%d,%d),%d) = %d", a, b, b, got)
					}
				}
			}
		})
	}
}

func TestFieldZeroHandling(t *testing.T) {
	field := DataMatrixField256
	if field.Multiply(0, 100) != 0 || field.Multiply(100, 0) != 0 {
		t.Error("multiply by 0 should be 0")
	}
	if q, err := field.Divide(0, 7); err != nil || q != 0 {
		t.Errorf("Divide(0, 7) = %d, %v", q, err)
	}
	if _, err := field.Divide(7, 0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Divide(7, 0) err = %v, want ErrDivideByZero", err)
	}
	for a := 1; a < 256; a++ {
		if got := field.Multiply(a, field.Inverse(a)); got != 1 {
			t.Fatalf("a=%d: a*inv(a) = %d", a, got)
		}
	}
}

func TestNewFieldFromPolynomial(t *testing.T) {
	field, err := NewFieldFromPolynomial([]int{1, 0, 0, 1, 0, 1, 1, 0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 255; i++ {
		if field.Exp(i) != DataMatrixField256.Exp(i) {
			t.Fatalf("exp[%d] differs from the 0x12D field", i)
		}
	}
	tests := []struct {
		name string
		bits []int
	}{
		{"empty", nil},
		{"leading zero", []int{0, 1, 1}},
		{"non binary", []int{1, 2, 1}},
		{"reducible", []int{1, 0, 1, 0, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFieldFromPolynomial(tc.bits, 0); err == nil {
				t.Errorf("NewFieldFromPolynomial(%v) succeeded", tc.bits)
			}
		})
	}
}

func TestDecodeNoErrors(t *testing.T) {
	codewords := encodeSequential(DataMatrixField256, 5, 4)
	got, err := NewDecoder(DataMatrixField256).Decode(codewords, 4)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Errors != 0 || got.Confidence != 1 {
		t.Errorf("Decode = %+v, want no errors at confidence 1", got)
	}
}

func TestCorrectionBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fields := []*GenericGF{QRCodeField256, DataMatrixField256}
	for _, field := range fields {
		for _, alg := range []Algorithm{BerlekampMassey, Euclidean} {
			t.Run(field.String()+"/"+alg.String(), func(t *testing.T) {
				dec := NewDecoder(field)
				dec.Algorithm = alg
				const dataLen, ecw = 18, 10
				original := encodeSequential(field, dataLen, ecw)
				for k := 1; k <= ecw/2; k++ {
					for trial := 0; trial < 20; trial++ {
						received := corrupt(rng, field, original, k)
						got, err := dec.Decode(received, ecw)
						if err != nil {
							t.Fatalf("k=%d: Decode: %v", k, err)
						}
						if got.Errors != k {
							t.Errorf("k=%d: corrected %d", k, got.Errors)
						}
						want := float64(ecw/2-k) / float64(ecw/2)
						if got.Confidence != want {
							t.Errorf("k=%d: confidence %v, want %v", k, got.Confidence, want)
						}
						if !slices.Equal(received, original) {
							t.Fatalf("k=%d: not recovered", k)
						}
					}
				}
			})
		}
	}
}

func TestBeyondCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	field := DataMatrixField256
	const dataLen, ecw = 12, 8
	original := encodeSequential(field, dataLen, ecw)
	for _, alg := range []Algorithm{BerlekampMassey, Euclidean} {
		dec := NewDecoder(field)
		dec.Algorithm = alg
		for k := ecw/2 + 1; k <= ecw; k++ {
			for trial := 0; trial < 50; trial++ {
				received := corrupt(rng, field, original, k)
				before := slices.Clone(received)
				_, err := dec.Decode(received, ecw)
				if err != nil {
					if !errors.Is(err, ErrUncorrectable) {
						t.Fatalf("%v k=%d: unexpected error %v", alg, k, err)
					}
					if !slices.Equal(received, before) {
						t.Fatalf("%v k=%d: failed decode modified its input", alg, k)
					}
					continue
				}
				// A miscorrection can only land on another valid codeword.
				if !isCodeword(field, received, ecw) {
					t.Fatalf("%v k=%d: returned data that is not a codeword", alg, k)
				}
			}
		}
	}
}

func TestAlgorithmsAgree(t *testing.T) {
	gf16, err := NewFieldFromPolynomial([]int{1, 0, 0, 1, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name         string
		field        *GenericGF
		dataLen, ecw int
		maxErrors    int
	}{
		{"qr256 within capacity", QRCodeField256, 20, 12, 6},
		{"gf16 over capacity", gf16, 5, 10, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(3))
			original := encodeSequential(tc.field, tc.dataLen, tc.ecw)
			bm := NewDecoder(tc.field)
			eu := NewDecoder(tc.field)
			eu.Algorithm = Euclidean
			for trial := 0; trial < 500; trial++ {
				received := corrupt(rng, tc.field, original, 1+rng.Intn(tc.maxErrors))
				a, b := slices.Clone(received), slices.Clone(received)
				ca, errA := bm.Decode(a, tc.ecw)
				cb, errB := eu.Decode(b, tc.ecw)
				if (errA == nil) != (errB == nil) {
					t.Fatalf("trial %d: errors %v / %v", trial, errA, errB)
				}
				if errA != nil {
					if !slices.Equal(a, received) || !slices.Equal(b, received) {
						t.Fatalf("trial %d: failed decode modified its input", trial)
					}
					continue
				}
				if ca != cb || !slices.Equal(a, b) {
					t.Fatalf("trial %d: results differ: %+v vs %+v", trial, ca, cb)
				}
				if !isCodeword(tc.field, a, tc.ecw) {
					t.Fatalf("trial %d: decoded %v is not a codeword", trial, a)
				}
			}
		})
	}
}

func TestDecodeRejectsBadLengths(t *testing.T) {
	dec := NewDecoder(DataMatrixField256)
	if _, err := dec.Decode([]int{1, 2, 3}, 0); !errors.Is(err, ErrUncorrectable) {
		t.Errorf("ecw=0: err = %v", err)
	}
	if _, err := dec.Decode([]int{1, 2, 3}, 3); !errors.Is(err, ErrUncorrectable) {
		t.Errorf("ecw=len: err = %v", err)
	}
}

func TestPoly(t *testing.T) {
	field := QRCodeField256
	if !field.Zero().IsZero() {
		t.Error("zero should be zero")
	}
	if one := field.One(); one.IsZero() || one.Degree() != 0 {
		t.Errorf("one = %v", one.Coefficients())
	}
	p := newPoly(field, []int{2, 3})
	if p.Eval(0) != 3 {
		t.Errorf("p(0) = %d, want 3", p.Eval(0))
	}
	if p.Scale(1) != p {
		t.Error("multiply by 1 should return the same polynomial")
	}
	if got := newPoly(field, []int{5, 0, 7, 9}).Truncate(2).Coefficients(); !slices.Equal(got, []int{7, 9}) {
		t.Errorf("Truncate(2) = %v", got)
	}
	q, r := newPoly(field, []int{1, 0, 0}).DivMod(newPoly(field, []int{1, 1}))
	back := q.Mul(newPoly(field, []int{1, 1})).Add(r)
	if !slices.Equal(back.Coefficients(), []int{1, 0, 0}) {
		t.Errorf("q*d + r = %v", back.Coefficients())
	}
}

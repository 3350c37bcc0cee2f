package reedsolomon

// Poly is an immutable polynomial over a GenericGF. Coefficients are stored
// highest degree first with no leading zeros, except for the zero
// polynomial, which is {0}.
type Poly struct {
	field *GenericGF
	c     []int
}

// newPoly takes ownership of c unless it has leading zeros to strip.
func newPoly(field *GenericGF, c []int) *Poly {
	if len(c) == 0 {
		panic("reedsolomon: empty coefficients")
	}
	i := 0
	for i < len(c)-1 && c[i] == 0 {
		i++
	}
	if i > 0 {
		c = append([]int(nil), c[i:]...)
	}
	return &Poly{field: field, c: c}
}

// Coefficients returns the coefficients, highest degree first. The slice
// must not be modified.
func (p *Poly) Coefficients() []int { return p.c }

func (p *Poly) Degree() int  { return len(p.c) - 1 }
func (p *Poly) IsZero() bool { return p.c[0] == 0 }

// Coeff returns the coefficient of x^degree.
func (p *Poly) Coeff(degree int) int { return p.c[len(p.c)-1-degree] }

// Eval returns p(a) by Horner's rule.
func (p *Poly) Eval(a int) int {
	switch a {
	case 0:
		return p.Coeff(0)
	case 1:
		sum := 0
		for _, v := range p.c {
			sum ^= v
		}
		return sum
	}
	acc := 0
	for _, v := range p.c {
		acc = p.field.Multiply(a, acc) ^ v
	}
	return acc
}

// Add returns p + q, which is also p - q.
func (p *Poly) Add(q *Poly) *Poly {
	switch {
	case p.IsZero():
		return q
	case q.IsZero():
		return p
	}
	long, short := p.c, q.c
	if len(long) < len(short) {
		long, short = short, long
	}
	sum := append([]int(nil), long...)
	off := len(long) - len(short)
	for i, v := range short {
		sum[off+i] ^= v
	}
	return newPoly(p.field, sum)
}

// Mul returns p * q.
func (p *Poly) Mul(q *Poly) *Poly {
	if p.IsZero() || q.IsZero() {
		return p.field.Zero()
	}
	out := make([]int, len(p.c)+len(q.c)-1)
	for i, a := range p.c {
		for j, b := range q.c {
			out[i+j] ^= p.field.Multiply(a, b)
		}
	}
	return newPoly(p.field, out)
}

// Scale returns s * p.
func (p *Poly) Scale(s int) *Poly {
	switch s {
	case 0:
		return p.field.Zero()
	case 1:
		return p
	}
	return p.MulMonomial(0, s)
}

// MulMonomial returns p * s * x^degree.
func (p *Poly) MulMonomial(degree, s int) *Poly {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if s == 0 || p.IsZero() {
		return p.field.Zero()
	}
	out := make([]int, len(p.c)+degree)
	for i, v := range p.c {
		out[i] = p.field.Multiply(v, s)
	}
	return newPoly(p.field, out)
}

// DivMod returns the quotient and remainder of p / d. It panics when d is
// zero.
func (p *Poly) DivMod(d *Poly) (quo, rem *Poly) {
	if d.IsZero() {
		panic("reedsolomon: divide by zero polynomial")
	}
	f := p.field
	inv := f.Inverse(d.Coeff(d.Degree()))
	quo, rem = f.Zero(), p
	for !rem.IsZero() && rem.Degree() >= d.Degree() {
		shift := rem.Degree() - d.Degree()
		s := f.Multiply(rem.Coeff(rem.Degree()), inv)
		quo = quo.Add(f.Monomial(shift, s))
		rem = rem.Add(d.MulMonomial(shift, s))
	}
	return quo, rem
}

// Truncate returns p mod x^n.
func (p *Poly) Truncate(n int) *Poly {
	if n <= 0 {
		return p.field.Zero()
	}
	if len(p.c) <= n {
		return p
	}
	return newPoly(p.field, append([]int(nil), p.c[len(p.c)-n:]...))
}

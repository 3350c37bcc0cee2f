package square

import (
	"errors"
	"math"
	"testing"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/geometry"
)

// fill sets every pixel whose center passes inside.
func fill(w, h int, inside func(geometry.Point) bool) *symscan.MatrixBitmap {
	m := bitutil.NewBitMatrix(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if inside(geometry.Pt(float64(x)+0.5, float64(y)+0.5)) {
				m.Set(x, y)
			}
		}
	}
	return symscan.NewMatrixBitmap(m)
}

func assertCorners(t *testing.T, got, want geometry.Quad, tol float64) {
	t.Helper()
	g, w := got.Corners(), want.Corners()
	for i := range g {
		if d := g[i].Dist(w[i]); d > tol {
			t.Errorf("corner %d = %v, want %v (off by %.2f)", i, g[i], w[i], d)
		}
	}
}

func TestValidateAxisAligned(t *testing.T) {
	m := bitutil.NewBitMatrix(150, 150)
	m.SetRegion(30, 30, 84, 84)
	bm := symscan.NewMatrixBitmap(m)

	sq, err := Validate(bm, geometry.Pt(30, 72), geometry.Pt(114, 72), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := geometry.Quad{A: geometry.Pt(30, 30), B: geometry.Pt(114, 30), C: geometry.Pt(114, 114), D: geometry.Pt(30, 114)}
	assertCorners(t, sq.Quad, want, 1)
	if math.Abs(sq.Angle()) > 0.01 {
		t.Errorf("angle = %v", sq.Angle())
	}
	sq.SetModules(21, 21)
	if ml := sq.ModuleLength(); math.Abs(ml-4) > 0.1 {
		t.Errorf("module length = %v", ml)
	}
	if math.Abs(sq.ModuleX.X-4) > 0.1 || math.Abs(sq.ModuleY.Y-4) > 0.1 {
		t.Errorf("module vectors %v %v", sq.ModuleX, sq.ModuleY)
	}
}

func TestValidateRotated(t *testing.T) {
	for _, deg := range []float64{10, 20, 35, -25} {
		r := geometry.OrientedRect{Center: geometry.Pt(100, 100), HalfW: 42, HalfH: 42, Angle: deg * math.Pi / 180}
		bm := fill(200, 200, r.Contains)
		u := geometry.Pt(1, 0).Rotate(r.Angle)
		sq, err := Validate(bm, r.Center.Sub(u.Mul(42)), r.Center.Add(u.Mul(42)), nil)
		if err != nil {
			t.Fatalf("%v degrees: %v", deg, err)
		}
		assertCorners(t, sq.Quad, r.Corners(), 1.5)
		if d := math.Abs(sq.Angle() - r.Angle); d > 0.03 {
			t.Errorf("%v degrees: angle off by %v", deg, d)
		}
	}
}

func TestValidateTimingSides(t *testing.T) {
	// Solid left column and bottom row, alternating top row and right
	// column, nothing inside: 14 modules of 4 px.
	const n, mod, off = 14, 4, 20
	m := bitutil.NewBitMatrix(100, 100)
	for i := 0; i < n; i++ {
		m.SetRegion(off, off+i*mod, mod, mod)
		m.SetRegion(off+i*mod, off+(n-1)*mod, mod, mod)
		if i%2 == 0 {
			m.SetRegion(off+i*mod, off, mod, mod)
		}
		if (n-1-i)%2 == 0 {
			m.SetRegion(off+(n-1)*mod, off+i*mod, mod, mod)
		}
	}
	bm := symscan.NewMatrixBitmap(m)
	side := float64(n * mod)
	sq, err := Validate(bm, geometry.Pt(off, off+side/2), geometry.Pt(off+side, off+side/2), nil)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := float64(off), float64(off)+side
	want := geometry.Quad{A: geometry.Pt(lo, lo), B: geometry.Pt(hi, lo), C: geometry.Pt(hi, hi), D: geometry.Pt(lo, hi)}
	assertCorners(t, sq.Quad, want, 1)
}

func TestValidateRectangle(t *testing.T) {
	m := bitutil.NewBitMatrix(160, 140)
	m.SetRegion(20, 50, 120, 40)
	bm := symscan.NewMatrixBitmap(m)
	left, right := geometry.Pt(20, 70), geometry.Pt(140, 70)

	if _, err := Validate(bm, left, right, nil); !errors.Is(err, symscan.ErrGeometryRejected) {
		t.Errorf("square assumption: err = %v", err)
	}
	sq, err := Validate(bm, left, right, &Options{Height: 40})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sq.Width-120) > 1.5 || math.Abs(sq.Height-40) > 1.5 {
		t.Errorf("size %.1f x %.1f", sq.Width, sq.Height)
	}
}

func TestValidateRejects(t *testing.T) {
	skew := geometry.Quad{A: geometry.Pt(30, 30), B: geometry.Pt(110, 30), C: geometry.Pt(150, 100), D: geometry.Pt(70, 100)}
	tests := []struct {
		name        string
		bm          symscan.Bitmap
		left, right geometry.Point
	}{
		{"blank", fill(100, 100, func(geometry.Point) bool { return false }), geometry.Pt(20, 50), geometry.Pt(80, 50)},
		{"parallelogram", fill(200, 140, skew.Contains), geometry.Pt(50, 65), geometry.Pt(130, 65)},
		{"too small", fill(50, 50, func(geometry.Point) bool { return true }), geometry.Pt(20, 20), geometry.Pt(22, 20)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Validate(tc.bm, tc.left, tc.right, nil); !errors.Is(err, symscan.ErrGeometryRejected) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestSquareFinderRotate90(t *testing.T) {
	q := geometry.Quad{A: geometry.Pt(0, 0), B: geometry.Pt(100, 0), C: geometry.Pt(100, 50), D: geometry.Pt(0, 50)}
	sq := NewSquareFinder(q)
	sq.SetModules(20, 10)
	sq.Rotate90(1)
	if sq.A != q.B || sq.Cols != 10 || sq.Rows != 20 {
		t.Fatalf("after Rotate90: A=%v cols=%d rows=%d", sq.A, sq.Cols, sq.Rows)
	}
	if math.Abs(sq.Width-50) > 1e-9 || math.Abs(sq.Height-100) > 1e-9 {
		t.Errorf("size %v x %v", sq.Width, sq.Height)
	}
	if ml := sq.ModuleLength(); math.Abs(ml-5) > 1e-9 {
		t.Errorf("module length %v", ml)
	}
	if math.Abs(sq.Angle()-math.Pi/2) > 1e-9 {
		t.Errorf("angle %v", sq.Angle())
	}
}

func TestEdgeVarEnvelope(t *testing.T) {
	e := NewEdgeVar(geometry.Pt(0, -1))
	for x := 0; x < 40; x++ {
		y := 10.0
		if (x/4)%2 == 1 {
			y = 14 + float64(x%3)
		}
		e.Add(geometry.Pt(float64(x), y))
	}
	if err := e.Envelope(1); err != nil {
		t.Fatal(err)
	}
	if e.Len() != 20 {
		t.Errorf("kept %d points, want 20", e.Len())
	}
	if d := e.Line().Dist(geometry.Pt(100, 10)); math.Abs(d) > 1e-9 {
		t.Errorf("line off the outer edge by %v", d)
	}
	if mean, v := e.Slope(); math.Abs(mean) > 1e-9 || v > 1e-9 {
		t.Errorf("slope %v variance %v", mean, v)
	}
	if d := e.Line().Dist(geometry.Pt(5, 0)); d <= 0 {
		t.Error("line normal does not face outward")
	}
}

func TestEdgeVarSlopeVariance(t *testing.T) {
	e := NewEdgeVar(geometry.Pt(0, -1))
	for x := 0; x < 20; x++ {
		e.Add(geometry.Pt(float64(x), float64(x%2)))
	}
	e.slopes(geometry.LineFromNormal(geometry.Pt(0, -1), geometry.Pt(0, 0.5)))
	// 19 local slopes alternating between +1 and -1.
	mean, v := e.Slope()
	if math.Abs(math.Abs(mean)-1.0/19) > 1e-9 {
		t.Errorf("mean slope %v, want magnitude 1/19", mean)
	}
	if want := 360.0 / 361; math.Abs(v-want) > 1e-9 {
		t.Errorf("variance %v, want the population variance %v", v, want)
	}
}

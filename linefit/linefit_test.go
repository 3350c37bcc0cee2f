package linefit

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/geometry"
)

func TestFitLine(t *testing.T) {
	tests := []struct {
		name string
		p, q geometry.Point
	}{
		{"shallow", geometry.Pt(0, 3), geometry.Pt(40, 13)},
		{"steep", geometry.Pt(5, 0), geometry.Pt(9, 50)},
		{"vertical", geometry.Pt(7, 0), geometry.Pt(7, 30)},
		{"horizontal", geometry.Pt(0, 4), geometry.Pt(30, 4)},
		{"far from origin", geometry.Pt(4000, 3000), geometry.Pt(4030, 3012)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var pts []geometry.Point
			for i := 0; i <= 20; i++ {
				pts = append(pts, tc.p.Lerp(tc.q, float64(i)/20))
			}
			l, res, err := FitLine(pts)
			if err != nil {
				t.Fatal(err)
			}
			if res > 1e-9 {
				t.Errorf("residual = %v", res)
			}
			for _, p := range []geometry.Point{tc.p, tc.q} {
				if d := math.Abs(l.Dist(p)); d > 1e-9 {
					t.Errorf("distance of %v = %v", p, d)
				}
			}
		})
	}
}

func TestFitLineDegenerate(t *testing.T) {
	for _, pts := range [][]geometry.Point{nil, {geometry.Pt(1, 1)}, {geometry.Pt(1, 1), geometry.Pt(1, 1)}} {
		if _, _, err := FitLine(pts); !errors.Is(err, symscan.ErrDegenerateGeometry) {
			t.Errorf("FitLine(%v) err = %v", pts, err)
		}
	}
}

func TestRegressionPicksCleanerSide(t *testing.T) {
	var r Regression
	// Edge A is exact, edge B is noisy; both are parallel to y = x/2.
	for i := 0; i < 30; i++ {
		x := float64(i)
		r.AddA(geometry.Pt(x, x/2))
		noise := 0.8
		if i%2 == 0 {
			noise = -0.8
		}
		r.AddB(geometry.Pt(x, x/2+10+noise))
	}
	if err := r.Fit(); err != nil {
		t.Fatal(err)
	}
	n := r.Normal()
	want := geometry.Pt(-0.5, 1).Norm()
	if math.Abs(n.X-want.X) > 1e-9 || math.Abs(n.Y-want.Y) > 1e-9 {
		t.Errorf("normal = %v, want %v", n, want)
	}
	if d := r.DistA(geometry.Pt(100, 50)); math.Abs(d) > 1e-9 {
		t.Errorf("DistA = %v", d)
	}
	if s := r.Spacing(); math.Abs(s-10*want.Y) > 1e-6 {
		t.Errorf("Spacing = %v, want %v", s, 10*want.Y)
	}
	if r.DistA(geometry.Pt(0, 10)) <= 0 {
		t.Error("normal does not point from A to B")
	}
}

func TestRegressionSinglePointSide(t *testing.T) {
	var r Regression
	r.AddA(geometry.Pt(0, 0))
	r.AddA(geometry.Pt(10, 0))
	r.AddB(geometry.Pt(5, 7))
	if err := r.Fit(); err != nil {
		t.Fatal(err)
	}
	if d := r.LineB().Dist(geometry.Pt(-20, 7)); math.Abs(d) > 1e-9 {
		t.Errorf("edge B misplaced, distance %v", d)
	}
}

func TestRegressionEmpty(t *testing.T) {
	var r Regression
	if err := r.Fit(); !errors.Is(err, symscan.ErrDegenerateGeometry) {
		t.Fatalf("Fit err = %v", err)
	}
	if r.LineA().Valid() || r.LineB().Valid() || r.Valid() {
		t.Error("empty regression produced a valid line")
	}
	if _, ok := geometry.Intersect(r.LineA(), r.LineB()); ok {
		t.Error("intersection of invalid lines reported ok")
	}
}

func TestHoughStrongestLine(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	h := NewHough(180, 200, bounds)
	p, q := geometry.Pt(10, 20), geometry.Pt(90, 60)
	for i := 0; i <= 80; i++ {
		h.Add(p.Lerp(q, float64(i)/80), 1, i)
	}
	// Clutter.
	for i := 0; i < 20; i++ {
		h.Add(geometry.Pt(float64(i*5), float64((i*37)%100)), 1, -1)
	}
	cells := h.Cells()
	if len(cells) == 0 {
		t.Fatal("no cells")
	}
	best := cells[0]
	for i := 1; i < len(cells); i++ {
		if cells[i].Weight > cells[i-1].Weight {
			t.Fatal("cells are not sorted by weight")
		}
	}
	l := h.CellLine(best)
	for _, pt := range []geometry.Point{p, q} {
		if d := math.Abs(l.Dist(pt)); d > 2 {
			t.Errorf("strongest line is %v px from %v", d, pt)
		}
	}
	if best.Count < 20 || len(best.Objects) != best.Count {
		t.Errorf("best cell count = %d, objects = %d", best.Count, len(best.Objects))
	}
}

func TestHoughDirectedWindow(t *testing.T) {
	h := NewHough(90, 50, image.Rect(0, 0, 50, 50))
	h.AddDirected(geometry.Pt(25, 10), math.Pi/2, 4, nil)
	angles := map[int]float64{}
	for _, c := range h.Cells() {
		if c.Count > 0 {
			angles[c.Angle] += c.Weight
		}
	}
	if len(angles) != 2*directedWindow+1 {
		t.Fatalf("voted %d angle buckets, want %d", len(angles), 2*directedWindow+1)
	}
	center := 45
	if _, ok := angles[center]; !ok {
		t.Fatalf("center bucket %d missing: %v", center, angles)
	}
	for k := 1; k <= directedWindow; k++ {
		if angles[center+k] >= angles[center+k-1] {
			t.Errorf("weight does not fall off at offset %d", k)
		}
	}
}

func TestHoughDirectedWraps(t *testing.T) {
	h := NewHough(36, 40, image.Rect(0, 0, 40, 40))
	h.AddDirected(geometry.Pt(5, 20), 0.01, 1, nil)
	seen := map[int]bool{}
	for _, c := range h.Cells() {
		if c.Count > 0 {
			seen[c.Angle] = true
		}
	}
	for _, want := range []int{33, 34, 35, 0, 1, 2, 3} {
		if !seen[want] {
			t.Errorf("angle bucket %d not voted", want)
		}
	}
}

func TestHoughSegment(t *testing.T) {
	bounds := image.Rect(0, 0, 120, 80)
	tests := []struct {
		name string
		p, q geometry.Point
	}{
		{"left to right", geometry.Pt(0, 10), geometry.Pt(119, 60)},
		{"top to bottom", geometry.Pt(30, 0), geometry.Pt(50, 79)},
		{"left to bottom", geometry.Pt(0, 30), geometry.Pt(60, 79)},
		{"top to right", geometry.Pt(70, 0), geometry.Pt(119, 30)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHough(360, 400, bounds)
			for i := 0; i <= 100; i++ {
				h.Add(tc.p.Lerp(tc.q, float64(i)/100), 1, nil)
			}
			a, b, ok := h.Segment(h.Cells()[0], bounds)
			if !ok {
				t.Fatal("segment misses the bounds")
			}
			if a.Dist(tc.p)+b.Dist(tc.q) > 8 && a.Dist(tc.q)+b.Dist(tc.p) > 8 {
				t.Errorf("segment %v-%v, want %v-%v", a, b, tc.p, tc.q)
			}
		})
	}
}

func TestHoughReset(t *testing.T) {
	h := NewHough(10, 10, image.Rect(0, 0, 10, 10))
	h.Add(geometry.Pt(3, 3), 1, nil)
	h.Reset()
	if n := len(h.Cells()); n != 0 {
		t.Errorf("%d cells after Reset", n)
	}
}

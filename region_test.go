package symscan

import (
	"testing"

	"github.com/ericlevine/symscan/geometry"
)

func rect(x, y, w, h float64) geometry.Quad {
	return geometry.Quad{A: geometry.Pt(x, y), B: geometry.Pt(x+w, y), C: geometry.Pt(x+w, y+h), D: geometry.Pt(x, y+h)}
}

func region(q geometry.Quad, text string) *BarCodeRegion {
	r := &BarCodeRegion{Quad: q, Symbology: "test", StartPattern: 1, Confidence: 0.5}
	if text != "" {
		r.Payload = Payload{TextSegment{Value: text}}
	}
	return r
}

func TestIsSimilar(t *testing.T) {
	base := region(rect(10, 10, 50, 20), "")
	tests := []struct {
		name  string
		other *BarCodeRegion
		want  bool
	}{
		{"identical", region(rect(10, 10, 50, 20), ""), true},
		{"within two pixels", region(rect(11.5, 11, 50, 20), ""), true},
		{"beyond two pixels", region(rect(13, 10, 50, 20), ""), false},
		{"other start pattern", &BarCodeRegion{Quad: rect(10, 10, 50, 20), Symbology: "test", StartPattern: 2}, false},
		{"other symbology", &BarCodeRegion{Quad: rect(10, 10, 50, 20), Symbology: "x", StartPattern: 1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.IsSimilar(tc.other, 2); got != tc.want {
				t.Errorf("IsSimilar = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMergeTakesOuterCorners(t *testing.T) {
	a := region(rect(10, 10, 50, 20), "")
	b := region(rect(9, 11, 52, 20), "abc")
	b.Confidence = 0.9
	a.Merge(b)
	want := geometry.Quad{A: geometry.Pt(9, 11), B: geometry.Pt(61, 11), C: geometry.Pt(61, 31), D: geometry.Pt(9, 31)}
	if a.Quad != want {
		t.Errorf("merged corners %v, want %v", a.Quad, want)
	}
	if a.Confidence != 0.9 {
		t.Errorf("confidence = %v", a.Confidence)
	}
	if a.Payload.String() != "abc" {
		t.Errorf("payload = %q", a.Payload.String())
	}
}

func TestRegionList(t *testing.T) {
	l := NewRegionList(2)
	if !l.Add(region(rect(100, 50, 40, 10), "x")) {
		t.Fatal("first region not appended")
	}
	if l.Add(region(rect(101, 50, 40, 10), "x")) {
		t.Error("duplicate appended")
	}
	if !l.Add(region(rect(10, 50, 40, 10), "y")) {
		t.Error("distinct region not appended")
	}
	if !l.Add(region(rect(10, 5, 40, 10), "z")) {
		t.Error("distinct region not appended")
	}
	got := l.Regions()
	if len(got) != 3 || l.Len() != 3 {
		t.Fatalf("got %d regions", len(got))
	}
	for i, want := range []string{"z", "y", "x"} {
		if s := got[i].Payload.String(); s != want {
			t.Errorf("region %d = %q, want %q", i, s, want)
		}
	}
}

func TestRegionListKeepsStackedTwins(t *testing.T) {
	// Two symbols carrying the same data, one just above the other.
	l := NewRegionList(2)
	l.Add(region(rect(20, 40, 60, 9), "twin"))
	if !l.Add(region(rect(20, 50, 60, 30), "twin")) {
		t.Fatal("second symbol merged into the first")
	}
	got := l.Regions()
	if len(got) != 2 {
		t.Fatalf("got %d regions", len(got))
	}
	if got[0].A != geometry.Pt(20, 40) || got[0].C != geometry.Pt(80, 49) {
		t.Errorf("upper corners changed to %v %v", got[0].A, got[0].C)
	}
	if got[1].A != geometry.Pt(20, 50) || got[1].C != geometry.Pt(80, 80) {
		t.Errorf("lower corners changed to %v %v", got[1].A, got[1].C)
	}
}

func TestRegionValidate(t *testing.T) {
	r := region(rect(0, 0, 10, 10), "")
	if err := r.Validate(); err != nil {
		t.Error(err)
	}
	r.C, r.D = r.D, r.C
	if err := r.Validate(); err == nil {
		t.Error("bow tie accepted")
	}
}

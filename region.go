package symscan

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ericlevine/symscan/geometry"
)

// BarCodeRegion is a located symbol. The embedded Quad holds its corners in
// symbol orientation: A top-left, B top-right, C bottom-right, D bottom-left.
type BarCodeRegion struct {
	geometry.Quad

	// Symbology names the detector that produced the region.
	Symbology string
	// StartPattern identifies the start or finder pattern the region was
	// grown from, -1 when the symbology has only one.
	StartPattern int
	// Confidence is in [0, 1].
	Confidence float64
	Payload    Payload
	// ErrorsCorrected counts codewords repaired by error correction.
	ErrorsCorrected int
}

// Angle returns the direction of the A->B edge in radians.
func (r *BarCodeRegion) Angle() float64 {
	return r.B.Sub(r.A).Angle()
}

// Validate rejects regions whose corners do not form a simple quadrilateral.
func (r *BarCodeRegion) Validate() error {
	if !r.IsSimple() {
		return fmt.Errorf("corners %v %v %v %v: %w", r.A, r.B, r.C, r.D, ErrGeometryRejected)
	}
	return nil
}

// IsSimilar reports whether o describes the same symbol: every corner lies
// within tol pixels of its counterpart and both share a start pattern.
func (r *BarCodeRegion) IsSimilar(o *BarCodeRegion, tol float64) bool {
	return r.Symbology == o.Symbology &&
		r.StartPattern == o.StartPattern &&
		r.Quad.Near(o.Quad, tol)
}

// Merge enlarges r to cover o. Each corner takes whichever of the pair lies
// further from the common center.
func (r *BarCodeRegion) Merge(o *BarCodeRegion) {
	center := geometry.Centroid(r.Center(), o.Center())
	a, b := r.Corners(), o.Corners()
	for i := range a {
		if b[i].Dist(center) > a[i].Dist(center) {
			a[i] = b[i]
		}
	}
	r.Quad = geometry.QuadOf(a)
	if o.Confidence > r.Confidence {
		r.Confidence = o.Confidence
	}
	if len(r.Payload) == 0 {
		r.Payload = o.Payload
		r.ErrorsCorrected = o.ErrorsCorrected
	}
}

func (r *BarCodeRegion) String() string {
	return fmt.Sprintf("[%s] %q conf=%.2f %v %v %v %v", r.Symbology, r.Payload.String(), r.Confidence, r.A, r.B, r.C, r.D)
}

// RegionList collects regions reported by independent workers, merging the
// duplicates.
type RegionList struct {
	tol     float64
	regions []*BarCodeRegion
}

// NewRegionList creates a list that treats corners within tol pixels as the
// same location.
func NewRegionList(tol float64) *RegionList {
	return &RegionList{tol: tol}
}

// Add merges r into a similar region already in the list or appends it. It
// reports whether r was appended as a new region.
func (l *RegionList) Add(r *BarCodeRegion) bool {
	for _, o := range l.regions {
		if o.IsSimilar(r, l.tol) {
			o.Merge(r)
			return false
		}
	}
	l.regions = append(l.regions, r)
	return true
}

// Len returns the number of distinct regions.
func (l *RegionList) Len() int { return len(l.regions) }

// Regions returns the regions ordered top to bottom, then left to right.
func (l *RegionList) Regions() []*BarCodeRegion {
	out := slices.Clone(l.regions)
	slices.SortStableFunc(out, func(a, b *BarCodeRegion) int {
		ba, bb := a.Bounds(), b.Bounds()
		if c := cmp.Compare(ba.Min.Y, bb.Min.Y); c != 0 {
			return c
		}
		return cmp.Compare(ba.Min.X, bb.Min.X)
	})
	return out
}

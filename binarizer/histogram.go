// Package binarizer turns luminance into the black and white pixels the
// symbol locators read, either with one global threshold or with
// thresholds local to 8x8 blocks.
package binarizer

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

const (
	luminanceBits    = 5
	luminanceShift   = 8 - luminanceBits
	luminanceBuckets = 1 << luminanceBits
)

// Histogram counts luminance values in 32 buckets.
type Histogram [luminanceBuckets]int

// Add counts every value of lum.
func (h *Histogram) Add(lum []byte) {
	for _, v := range lum {
		h[v>>luminanceShift]++
	}
}

// BlackPoint returns the luminance separating the two dominant peaks of h.
// It fails with ErrNotFound when the peaks are too close to tell ink from
// paper.
func (h *Histogram) BlackPoint() (int, error) {
	peak, peakSize, maxCount := 0, 0, 0
	for x, n := range h {
		if n > peakSize {
			peak, peakSize = x, n
		}
		maxCount = max(maxCount, n)
	}

	// The second peak is weighted by its squared distance from the first
	// so a shoulder of the first peak does not win.
	second, secondScore := 0, 0
	for x, n := range h {
		d := x - peak
		if score := n * d * d; score > secondScore {
			second, secondScore = x, score
		}
	}
	if secondScore == 0 {
		return 0, fmt.Errorf("histogram has one peak at %d: %w", peak, symscan.ErrNotFound)
	}
	lo, hi := min(peak, second), max(peak, second)
	if hi-lo <= luminanceBuckets/16 {
		return 0, fmt.Errorf("histogram peaks at %d and %d: %w", lo, hi, symscan.ErrNotFound)
	}

	valley, valleyScore := hi-1, -1
	for x := hi - 1; x > lo; x-- {
		from := x - lo
		if score := from * from * (hi - x) * (maxCount - h[x]); score > valleyScore {
			valley, valleyScore = x, score
		}
	}
	return valley << luminanceShift, nil
}

// sampleHistogram counts the middle three fifths of four rows spread over
// the image.
func sampleHistogram(src symscan.LuminanceSource) *Histogram {
	var h Histogram
	w, ht := src.Width(), src.Height()
	var row []byte
	for i := 1; i < 5; i++ {
		row = src.Row(ht*i/5, row)
		if row == nil {
			continue
		}
		h.Add(row[w/5 : w*4/5])
	}
	return &h
}

// EstimateThreshold returns a global gray threshold for src in (0, 1),
// as taken by symscan.NewGrayBitmap.
func EstimateThreshold(src symscan.LuminanceSource) (float64, error) {
	bp, err := sampleHistogram(src).BlackPoint()
	if err != nil {
		return 0, err
	}
	return float64(bp) / 255, nil
}

// GlobalHistogram binarizes the whole image with the black point of a
// sampled histogram.
type GlobalHistogram struct {
	source symscan.LuminanceSource
}

// NewGlobalHistogram creates a GlobalHistogram binarizer over source.
func NewGlobalHistogram(source symscan.LuminanceSource) *GlobalHistogram {
	return &GlobalHistogram{source: source}
}

func (g *GlobalHistogram) LuminanceSource() symscan.LuminanceSource { return g.source }

// BlackMatrix sets every pixel darker than the black point.
func (g *GlobalHistogram) BlackMatrix() (*bitutil.BitMatrix, error) {
	bp, err := sampleHistogram(g.source).BlackPoint()
	if err != nil {
		return nil, err
	}
	w, h := g.source.Width(), g.source.Height()
	m := bitutil.NewBitMatrix(w, h)
	lum := g.source.Matrix()
	for y := 0; y < h; y++ {
		for x, v := range lum[y*w : (y+1)*w] {
			if int(v) < bp {
				m.Set(x, y)
			}
		}
	}
	return m, nil
}

package oned

import (
	"context"
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/pattern"
)

// Name is the symbology reported by the Code 128 detector.
const Name = "code128"

// Row grouping limits.
const (
	maxRowGap    = 4
	timeConstant = 0.1
	minRows      = 2
)

// reversedID marks start ids of symbols read right to left.
const reversedID = 1 << 8

// Detector finds Code 128 symbols. Every row of the band is searched left
// to right, and right to left when that finds nothing; decoded rows are
// grouped into symbols by a pattern.Accumulator.
type Detector struct{}

func (Detector) Name() string { return Name }

// Detect scans the rows of bm from a few rows above the band, so that a
// symbol started in the band above is recognised and left to that band,
// and continues below the band until the symbols it owns are complete.
func (Detector) Detect(ctx context.Context, bm symscan.Bitmap, rows symscan.RowRange, opts *symscan.ScanOptions) ([]*symscan.BarCodeRegion, error) {
	if opts == nil {
		opts = symscan.DefaultScanOptions()
	}
	log := opts.Log()
	acc := &pattern.Accumulator{MaxGap: maxRowGap, TimeConstant: timeConstant, MinRows: minRows}
	if bm.Height() == 1 {
		acc.MinRows = 1
	}
	s := &rowScanner{
		bm:        bm,
		finder:    pattern.NewFinder(code128Starts, opts.NoiseLevel),
		calibrate: opts.Calibrate,
	}

	var out []*symscan.BarCodeRegion
	emit := func(done []*pattern.StackedPattern) {
		for _, p := range done {
			if !rows.Contains(p.FirstRow) {
				continue
			}
			r, err := region(p)
			if err != nil {
				log.Debug("candidate rejected", "detector", Name, "row", p.FirstRow, "reason", err)
				continue
			}
			out = append(out, r)
		}
	}

	for y := max(rows.Start-maxRowGap-1, 0); y < bm.Height(); y++ {
		if y >= rows.End && !acc.LiveSince(rows.End) {
			break
		}
		if err := symscan.CheckContext(ctx); err != nil {
			return nil, err
		}
		emit(acc.Prune(y))
		for _, h := range s.scanRow(y) {
			acc.Add(h)
		}
	}
	emit(acc.Flush())
	return out, nil
}

// region builds the result for a finished candidate.
func region(p *pattern.StackedPattern) (*symscan.BarCodeRegion, error) {
	codes, support := p.Majority()
	payload, err := decodeCode128(codes)
	if err != nil {
		return nil, err
	}
	q, err := p.Corners()
	if err != nil {
		return nil, err
	}
	start := p.StartID
	if start&reversedID != 0 {
		// Read right to left: the symbol is upside down in the image.
		start &^= reversedID
		q = geometry.Quad{A: q.D, B: q.C, C: q.B, D: q.A}
	}
	return &symscan.BarCodeRegion{
		Quad:         q,
		Symbology:    Name,
		StartPattern: start,
		Confidence:   p.Confidence * float64(support) / float64(p.Hits),
		Payload:      payload,
	}, nil
}

// rowScanner decodes the symbols crossing single rows.
type rowScanner struct {
	bm        symscan.Bitmap
	finder    *pattern.Finder
	calibrate bool
}

// scanRow returns a hit for every symbol decoded on row y.
func (s *rowScanner) scanRow(y int) []pattern.Hit {
	src := pattern.BitmapRow(s.bm, y)
	hits := s.scan(src, y, false)
	if len(hits) == 0 {
		hits = s.scan(pattern.Reversed(src), y, true)
	}
	return hits
}

func (s *rowScanner) scan(src pattern.Source, y int, reversed bool) []pattern.Hit {
	f := s.finder
	f.NewSearch(src, 0)
	var hits []pattern.Hit
	for f.Position() < src.Len() {
		f.SetTable(code128Starts)
		start, err := f.FindStart()
		if err != nil {
			break
		}
		h, end, err := s.readSymbol(src, start)
		if err != nil {
			// Look for another start inside the rejected one.
			f.Seek(start.Start + start.Widths[0] + start.Widths[1])
			continue
		}
		if s.calibrate {
			if t, ok := f.Calibrate(start); ok {
				s.bm.SetBWThreshold(t)
			}
		}
		left, right := float64(start.Start), float64(end)
		if reversed {
			n := float64(src.Len())
			left, right = n-left, n-right
			h.StartID |= reversedID
		}
		row := float64(y) + 0.5
		h.Row = y
		h.Left, h.Right = geometry.Pt(left, row), geometry.Pt(right, row)
		hits = append(hits, h)
		f.Seek(end)
	}
	return hits
}

// readSymbol reads codewords after start up to the stop pattern and checks
// the final bar and the trailing quiet zone. It returns the hit and the end
// of the final bar.
func (s *rowScanner) readSymbol(src pattern.Source, start pattern.FoundPattern) (pattern.Hit, int, error) {
	f := s.finder
	f.SetTable(code128Table)
	code := code128StartA + start.Index
	h := pattern.Hit{
		StartID:   code,
		Codewords: []int{code},
	}
	conf, module, n := start.Confidence, start.ModuleLength, 1.0
	for {
		p, err := f.ReadPattern()
		if err != nil {
			return h, 0, err
		}
		conf += p.Confidence
		module += p.ModuleLength
		n++
		if p.Index == code128Stop {
			module /= n
			end, err := finalBar(src, p, module)
			if err != nil {
				return h, 0, err
			}
			h.Confidence, h.ModuleLength = conf/n, module
			if !code128Checksum(h.Codewords) {
				return h, 0, symscan.ErrChecksum
			}
			return h, end, nil
		}
		if p.Index >= code128StartA {
			return h, 0, fmt.Errorf("code128 codeword %d inside the data: %w", p.Index, symscan.ErrFormat)
		}
		h.Codewords = append(h.Codewords, p.Index)
	}
}

// finalBar checks the 2-module bar that closes the stop pattern and the
// quiet zone after it. Specks of up to the match's noise level are skipped.
func finalBar(src pattern.Source, stop pattern.FoundPattern, module float64) (int, error) {
	bar := runLength(src, stop.End, true, stop.Level)
	if w := float64(bar) / module; w < 1 || w > 3 {
		return 0, fmt.Errorf("code128 final bar of %.1f modules: %w", w, symscan.ErrPatternNotMatched)
	}
	end := stop.End + bar
	quiet := runLength(src, end, false, stop.Level)
	if end+quiet < src.Len() && float64(quiet) < code128Table.QuietZone*module {
		return 0, fmt.Errorf("code128 trailing quiet zone: %w", symscan.ErrInsufficientQuietZone)
	}
	return end, nil
}

// runLength measures the run of the given colour at pos, bridging runs of
// the other colour no longer than gap.
func runLength(src pattern.Source, pos int, black bool, gap int) int {
	end := pos
	for i := pos; i < src.Len(); {
		if src.Black(i) == black {
			i++
			end = i
			continue
		}
		j := i
		for j < src.Len() && src.Black(j) != black {
			j++
		}
		if j-i > gap || j == src.Len() {
			break
		}
		i = j
	}
	return end - pos
}

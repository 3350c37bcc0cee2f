// Package datamatrix locates and decodes Data Matrix ECC 200 symbols.
package datamatrix

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/datamatrix/decoder"
	"github.com/ericlevine/symscan/datamatrix/detector"
	"github.com/ericlevine/symscan/grid"
	"github.com/ericlevine/symscan/slicer"
)

// Name is the symbology reported by the Data Matrix detector.
const Name = "datamatrix"

// DefaultSlicerOptions bound the components tried as symbols. Black pixels
// two apart are joined so that the finder holds together through single
// pixel breaks.
var DefaultSlicerOptions = slicer.Options{
	MinDist: 2,
	MinRad:  12,
	MaxRad:  1000,
}

// Detector finds Data Matrix symbols. Every connected component whose top
// row lies in the band is tried as the finder of a symbol.
type Detector struct {
	// Slicer overrides DefaultSlicerOptions.
	Slicer *slicer.Options
}

func (Detector) Name() string { return Name }

func (d Detector) Detect(ctx context.Context, bm symscan.Bitmap, rows symscan.RowRange, opts *symscan.ScanOptions) ([]*symscan.BarCodeRegion, error) {
	log := opts.Log()
	so := DefaultSlicerOptions
	if d.Slicer != nil {
		so = *d.Slicer
	}
	s := slicer.New(so)
	segs, err := s.Run(ctx, bm, rows)
	if err != nil {
		return nil, err
	}

	dec := decoder.NewDecoder()
	var out []*symscan.BarCodeRegion
	for _, seg := range segs {
		if err := symscan.CheckContext(ctx); err != nil {
			return nil, err
		}
		sym, err := detector.Locate(bm, s, seg)
		if err != nil {
			log.Debug("candidate rejected", "detector", Name, "row", seg.Bounds.Min.Y, "reason", err)
			continue
		}
		r, err := read(bm, sym, dec)
		if err != nil {
			log.Debug("candidate rejected", "detector", Name, "row", seg.Bounds.Min.Y, "size", sym.Version, "reason", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// read samples the symbol with each of its grids until one decodes.
func read(bm symscan.Bitmap, sym *detector.Symbol, dec *decoder.Decoder) (*symscan.BarCodeRegion, error) {
	var errs []error
	for _, g := range sym.Grids() {
		bits, err := grid.Sample(bm, g, sym.ModuleLength())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res, err := dec.Decode(bits)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return &symscan.BarCodeRegion{
			Quad:            sym.Quad,
			Symbology:       Name,
			StartPattern:    -1,
			Confidence:      res.Confidence,
			Payload:         res.Payload,
			ErrorsCorrected: res.ErrorsCorrected,
		}, nil
	}
	return nil, fmt.Errorf("datamatrix: %v symbol: %w", sym.Version, errors.Join(errs...))
}

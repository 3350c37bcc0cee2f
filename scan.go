package symscan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// RowRange is the half-open band of rows [Start, End) owned by one worker.
// A detector may read outside its band but reports only candidates whose
// first row lies inside it, so that neighbouring workers never both report
// the same symbol.
type RowRange struct {
	Start, End int
}

// Contains reports whether row y is owned by r.
func (r RowRange) Contains(y int) bool { return y >= r.Start && y < r.End }

// Len returns the number of rows in r.
func (r RowRange) Len() int { return r.End - r.Start }

// Detector locates and decodes one symbology. Detect is called concurrently
// for different row bands; implementations keep all scan state local to the
// call.
type Detector interface {
	Name() string
	Detect(ctx context.Context, bm Bitmap, rows RowRange, opts *ScanOptions) ([]*BarCodeRegion, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Detector{}
)

// RegisterDetector makes a detector available to Scan. Symbology packages
// call it from init.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name()] = d
}

// Detectors returns the names of all registered detectors, sorted.
func Detectors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func selectDetectors(names []string) ([]Detector, error) {
	if len(names) == 0 {
		names = Detectors()
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Detector, 0, len(names))
	for _, name := range names {
		d, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("symscan: unknown detector %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

// Chunks splits [0, height) into n contiguous bands of near equal size.
func Chunks(height, n int) []RowRange {
	if n < 1 {
		n = 1
	}
	if n > height {
		n = max(height, 1)
	}
	out := make([]RowRange, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, RowRange{Start: height * i / n, End: height * (i + 1) / n})
	}
	return out
}

// CheckContext returns ErrScanTimeout once the deadline of ctx has passed,
// and the context error after cancellation. Detectors poll it at row and
// scan line boundaries.
func CheckContext(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrScanTimeout, err)
	}
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, ErrScanTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Scan runs the selected detectors over bm. The rows are split into
// opts.Workers bands scanned in parallel, each with a private bitmap view
// when bm implements Viewer. Results are merged once every band is done.
// Per-candidate failures only drop the candidate; a timeout aborts the scan
// with ErrScanTimeout.
func Scan(ctx context.Context, bm Bitmap, opts *ScanOptions) ([]*BarCodeRegion, error) {
	opts = opts.withDefaults()
	dets, err := selectDetectors(opts.Detectors)
	if err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	log := opts.Log()

	chunks := Chunks(bm.Height(), opts.Workers)
	found := make([][]*BarCodeRegion, len(dets)*len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for di, det := range dets {
		for ci, rows := range chunks {
			g.Go(func() error {
				view := bm
				if v, ok := bm.(Viewer); ok {
					view = v.View()
				}
				regions, err := det.Detect(gctx, view, rows, opts)
				if err != nil {
					if isContextErr(err) {
						return err
					}
					log.Debug("detector failed", "detector", det.Name(), "rows", rows, "err", err)
					return nil
				}
				found[di*len(chunks)+ci] = regions
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrScanTimeout) {
			err = fmt.Errorf("%w: %w", ErrScanTimeout, err)
		}
		return nil, err
	}

	list := NewRegionList(opts.DedupTolerance)
	for _, regions := range found {
		for _, r := range regions {
			if err := r.Validate(); err != nil {
				log.Debug("region dropped", "detector", r.Symbology, "err", err)
				continue
			}
			list.Add(r)
		}
	}
	log.Debug("scan done", "regions", list.Len(), "workers", opts.Workers)
	return list.Regions(), nil
}

package symscan

import (
	"log/slog"
	"time"
)

// Defaults applied by ScanOptions for zero fields.
const (
	DefaultWorkers        = 4
	DefaultNoiseLevel     = 3
	DefaultDedupTolerance = 2.0
)

// ScanOptions configures Scan. The zero value selects the defaults.
type ScanOptions struct {
	// Workers is the number of row chunks scanned in parallel.
	Workers int

	// Timeout bounds the whole scan; zero means no limit.
	Timeout time.Duration

	// NoiseLevel is the number of pattern finder noise levels. At level k
	// runs of up to k pixels are folded into their neighbours.
	NoiseLevel int

	// Detectors restricts the scan to the named detectors. Empty runs all
	// registered detectors.
	Detectors []string

	// DedupTolerance is the corner distance in pixels within which two
	// regions are considered the same symbol.
	DedupTolerance float64

	// Calibrate lets detectors move the bitmap threshold after a confident
	// match.
	Calibrate bool

	// Logger receives debug records for rejected candidates.
	Logger *slog.Logger
}

// DefaultScanOptions returns options with every default filled in.
func DefaultScanOptions() *ScanOptions {
	return (&ScanOptions{}).withDefaults()
}

func (o *ScanOptions) withDefaults() *ScanOptions {
	var c ScanOptions
	if o != nil {
		c = *o
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.NoiseLevel <= 0 {
		c.NoiseLevel = DefaultNoiseLevel
	}
	if c.DedupTolerance <= 0 {
		c.DedupTolerance = DefaultDedupTolerance
	}
	if c.Logger == nil {
		c.Logger = discard
	}
	return &c
}

// Log returns the configured logger, never nil.
func (o *ScanOptions) Log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discard
	}
	return o.Logger
}

var discard = slog.New(slog.DiscardHandler)

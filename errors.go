package symscan

import (
	"errors"

	"github.com/ericlevine/symscan/reedsolomon"
)

var (
	// ErrNotFound is returned when no symbol is found in the image.
	ErrNotFound = errors.New("symbol not found")

	// ErrGeometryRejected is returned when a candidate's edges, angles or
	// aspect ratio fail validation.
	ErrGeometryRejected = errors.New("geometry rejected")

	// ErrPatternNotMatched is returned when no pattern table entry lies
	// within the distance bounds.
	ErrPatternNotMatched = errors.New("pattern not matched")

	// ErrInsufficientQuietZone is returned when a matched pattern lacks the
	// blank margin its symbology requires.
	ErrInsufficientQuietZone = errors.New("insufficient quiet zone")

	// ErrUncorrectable is returned when error correction cannot repair the
	// sampled codewords.
	ErrUncorrectable = reedsolomon.ErrUncorrectable

	// ErrDegenerateGeometry is returned by fits and intersections that have
	// no defined result, such as a regression over zero points.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrScanTimeout is returned when a scan exceeds its time budget.
	ErrScanTimeout = errors.New("scan timeout")

	// ErrChecksum is returned when a symbol's check digit does not match.
	ErrChecksum = errors.New("checksum error")

	// ErrFormat is returned when codewords do not form a valid payload.
	ErrFormat = errors.New("format error")
)

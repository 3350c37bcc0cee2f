// Package decoder turns the sampled modules of a Data Matrix ECC 200 symbol
// into a payload.
package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
)

// Blocks is a run of error correction blocks with the same number of data
// codewords.
type Blocks struct {
	Count int
	Data  int
}

// Version is one ECC 200 symbol size.
type Version struct {
	Number int
	// Rows and Cols count the modules of the whole symbol, finder and
	// alignment patterns included.
	Rows, Cols int
	// RegionRows and RegionCols count the data modules of one data region.
	RegionRows, RegionCols int
	// ECW is the number of check codewords in every block.
	ECW    int
	Blocks []Blocks
	// Total is the number of data and check codewords.
	Total int
}

func newVersion(number, rows, cols, regionRows, regionCols, ecw int, blocks ...Blocks) Version {
	total := 0
	for _, b := range blocks {
		total += b.Count * (b.Data + ecw)
	}
	return Version{
		Number:     number,
		Rows:       rows,
		Cols:       cols,
		RegionRows: regionRows,
		RegionCols: regionCols,
		ECW:        ecw,
		Blocks:     blocks,
		Total:      total,
	}
}

// Regions returns the number of data regions across and down.
func (v *Version) Regions() (across, down int) {
	return v.Cols / (v.RegionCols + 2), v.Rows / (v.RegionRows + 2)
}

// MappingSize returns the size of the mapping matrix, the data regions
// joined without their finder and alignment patterns.
func (v *Version) MappingSize() (cols, rows int) {
	across, down := v.Regions()
	return across * v.RegionCols, down * v.RegionRows
}

// DataCodewords returns the number of data codewords over all blocks.
func (v *Version) DataCodewords() int {
	n := 0
	for _, b := range v.Blocks {
		n += b.Count * b.Data
	}
	return n
}

// BlockCount returns the number of error correction blocks.
func (v *Version) BlockCount() int {
	n := 0
	for _, b := range v.Blocks {
		n += b.Count
	}
	return n
}

func (v *Version) String() string { return fmt.Sprintf("%dx%d", v.Rows, v.Cols) }

// Lookup returns the version of a symbol with the given number of rows and
// columns.
func Lookup(rows, cols int) (*Version, error) {
	for i := range versions {
		if versions[i].Rows == rows && versions[i].Cols == cols {
			return &versions[i], nil
		}
	}
	return nil, fmt.Errorf("datamatrix: no symbol of %dx%d modules: %w", rows, cols, symscan.ErrFormat)
}

// Versions returns every symbol size, square sizes first.
func Versions() []*Version {
	out := make([]*Version, len(versions))
	for i := range versions {
		out[i] = &versions[i]
	}
	return out
}

// The ISO/IEC 16022 square and rectangular sizes followed by the ISO/IEC
// 21471 rectangular extensions.
var versions = [...]Version{
	newVersion(1, 10, 10, 8, 8, 5, Blocks{1, 3}),
	newVersion(2, 12, 12, 10, 10, 7, Blocks{1, 5}),
	newVersion(3, 14, 14, 12, 12, 10, Blocks{1, 8}),
	newVersion(4, 16, 16, 14, 14, 12, Blocks{1, 12}),
	newVersion(5, 18, 18, 16, 16, 14, Blocks{1, 18}),
	newVersion(6, 20, 20, 18, 18, 18, Blocks{1, 22}),
	newVersion(7, 22, 22, 20, 20, 20, Blocks{1, 30}),
	newVersion(8, 24, 24, 22, 22, 24, Blocks{1, 36}),
	newVersion(9, 26, 26, 24, 24, 28, Blocks{1, 44}),
	newVersion(10, 32, 32, 14, 14, 36, Blocks{1, 62}),
	newVersion(11, 36, 36, 16, 16, 42, Blocks{1, 86}),
	newVersion(12, 40, 40, 18, 18, 48, Blocks{1, 114}),
	newVersion(13, 44, 44, 20, 20, 56, Blocks{1, 144}),
	newVersion(14, 48, 48, 22, 22, 68, Blocks{1, 174}),
	newVersion(15, 52, 52, 24, 24, 42, Blocks{2, 102}),
	newVersion(16, 64, 64, 14, 14, 56, Blocks{2, 140}),
	newVersion(17, 72, 72, 16, 16, 36, Blocks{4, 92}),
	newVersion(18, 80, 80, 18, 18, 48, Blocks{4, 114}),
	newVersion(19, 88, 88, 20, 20, 56, Blocks{4, 144}),
	newVersion(20, 96, 96, 22, 22, 68, Blocks{4, 174}),
	newVersion(21, 104, 104, 24, 24, 56, Blocks{6, 136}),
	newVersion(22, 120, 120, 18, 18, 68, Blocks{6, 175}),
	newVersion(23, 132, 132, 20, 20, 62, Blocks{8, 163}),
	newVersion(24, 144, 144, 22, 22, 62, Blocks{8, 156}, Blocks{2, 155}),

	newVersion(25, 8, 18, 6, 16, 7, Blocks{1, 5}),
	newVersion(26, 8, 32, 6, 14, 11, Blocks{1, 10}),
	newVersion(27, 12, 26, 10, 24, 14, Blocks{1, 16}),
	newVersion(28, 12, 36, 10, 16, 18, Blocks{1, 22}),
	newVersion(29, 16, 36, 14, 16, 24, Blocks{1, 32}),
	newVersion(30, 16, 48, 14, 22, 28, Blocks{1, 49}),

	newVersion(31, 8, 48, 6, 22, 15, Blocks{1, 18}),
	newVersion(32, 8, 64, 6, 14, 18, Blocks{1, 24}),
	newVersion(33, 8, 80, 6, 18, 22, Blocks{1, 32}),
	newVersion(34, 8, 96, 6, 22, 28, Blocks{1, 38}),
	newVersion(35, 8, 120, 6, 18, 32, Blocks{1, 49}),
	newVersion(36, 8, 144, 6, 22, 36, Blocks{1, 63}),
	newVersion(37, 12, 64, 10, 14, 27, Blocks{1, 43}),
	newVersion(38, 12, 88, 10, 20, 36, Blocks{1, 64}),
	newVersion(39, 16, 64, 14, 14, 36, Blocks{1, 62}),
	newVersion(40, 20, 36, 18, 16, 28, Blocks{1, 44}),
	newVersion(41, 20, 44, 18, 20, 34, Blocks{1, 56}),
	newVersion(42, 20, 64, 18, 14, 42, Blocks{1, 84}),
	newVersion(43, 22, 48, 20, 22, 38, Blocks{1, 72}),
	newVersion(44, 24, 48, 22, 22, 41, Blocks{1, 80}),
	newVersion(45, 24, 64, 22, 14, 46, Blocks{1, 108}),
	newVersion(46, 26, 40, 24, 18, 38, Blocks{1, 70}),
	newVersion(47, 26, 48, 24, 22, 42, Blocks{1, 90}),
	newVersion(48, 26, 64, 24, 14, 50, Blocks{1, 118}),
}

package decoder

import (
	"fmt"
	"sync"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// module is one position of the mapping matrix.
type module struct {
	row, col int
}

// layout lists, for every codeword of a mapping matrix, the positions of
// its eight bits from the most significant down.
type layout struct {
	codewords [][8]module
	// fixed is set when the lower right 2x2 corner holds no codeword and
	// carries the fixed pattern instead.
	fixed bool
}

var (
	layoutsMu sync.Mutex
	layouts   = map[[2]int]*layout{}
)

func layoutFor(rows, cols int) *layout {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()
	key := [2]int{rows, cols}
	l, ok := layouts[key]
	if !ok {
		l = newLayout(rows, cols)
		layouts[key] = l
	}
	return l
}

// newLayout walks the mapping matrix diagonally, placing the standard
// "utah" shaped codewords and the four corner shapes, with positions
// that fall off one side wrapping around to the other.
func newLayout(rows, cols int) *layout {
	used := make([]bool, rows*cols)
	at := func(r, c int) module {
		if r < 0 {
			r += rows
			c += 4 - (rows+4)%8
		}
		if c < 0 {
			c += cols
			r += 4 - (cols+4)%8
		}
		if r >= rows {
			r -= rows
		}
		if c >= cols {
			c -= cols
		}
		used[r*cols+c] = true
		return module{r, c}
	}
	place := func(pos [8][2]int) [8]module {
		var m [8]module
		for i, p := range pos {
			m[i] = at(p[0], p[1])
		}
		return m
	}
	utah := func(r, c int) [8]module {
		return place([8][2]int{
			{r - 2, c - 2}, {r - 2, c - 1}, {r - 1, c - 2}, {r - 1, c - 1},
			{r - 1, c}, {r, c - 2}, {r, c - 1}, {r, c},
		})
	}
	R, C := rows, cols
	corners := [4][8][2]int{
		{{R - 1, 0}, {R - 1, 1}, {R - 1, 2}, {0, C - 2}, {0, C - 1}, {1, C - 1}, {2, C - 1}, {3, C - 1}},
		{{R - 3, 0}, {R - 2, 0}, {R - 1, 0}, {0, C - 4}, {0, C - 3}, {0, C - 2}, {0, C - 1}, {1, C - 1}},
		{{R - 3, 0}, {R - 2, 0}, {R - 1, 0}, {0, C - 2}, {0, C - 1}, {1, C - 1}, {2, C - 1}, {3, C - 1}},
		{{R - 1, 0}, {R - 1, C - 1}, {0, C - 3}, {0, C - 2}, {0, C - 1}, {1, C - 3}, {1, C - 2}, {1, C - 1}},
	}
	free := func(r, c int) bool {
		return r >= 0 && r < R && c >= 0 && c < C && !used[r*C+c]
	}

	l := &layout{}
	row, col := 4, 0
	for {
		switch {
		case row == R && col == 0:
			l.codewords = append(l.codewords, place(corners[0]))
		case row == R-2 && col == 0 && C%4 != 0:
			l.codewords = append(l.codewords, place(corners[1]))
		case row == R-2 && col == 0 && C%8 == 4:
			l.codewords = append(l.codewords, place(corners[2]))
		case row == R+4 && col == 2 && C%8 == 0:
			l.codewords = append(l.codewords, place(corners[3]))
		}
		// Up and to the right.
		for {
			if free(row, col) {
				l.codewords = append(l.codewords, utah(row, col))
			}
			row -= 2
			col += 2
			if row < 0 || col >= C {
				break
			}
		}
		row++
		col += 3
		// Down and to the left.
		for {
			if free(row, col) {
				l.codewords = append(l.codewords, utah(row, col))
			}
			row += 2
			col -= 2
			if row >= R || col < 0 {
				break
			}
		}
		row += 3
		col++
		if row >= R && col >= C {
			break
		}
	}
	l.fixed = !used[R*C-1]
	return l
}

// mapping returns the layout of a version and checks that it holds exactly
// the version's codewords.
func mapping(v *Version) (*layout, int, int, error) {
	cols, rows := v.MappingSize()
	l := layoutFor(rows, cols)
	if len(l.codewords) != v.Total {
		return nil, 0, 0, fmt.Errorf("datamatrix: %v places %d codewords, want %d: %w", v, len(l.codewords), v.Total, symscan.ErrFormat)
	}
	return l, cols, rows, nil
}

// ReadCodewords reads the raw codewords of a sampled symbol, finder and
// alignment patterns included, in placement order.
func ReadCodewords(bits *bitutil.BitMatrix) ([]byte, *Version, error) {
	v, err := Lookup(bits.Height(), bits.Width())
	if err != nil {
		return nil, nil, err
	}
	l, _, _, err := mapping(v)
	if err != nil {
		return nil, nil, err
	}
	across, down := v.Regions()
	m := extractMapping(bits, v, across, down)
	out := make([]byte, v.Total)
	for i, cw := range l.codewords {
		var b byte
		for _, p := range cw {
			b <<= 1
			if m.Get(p.col, p.row) {
				b |= 1
			}
		}
		out[i] = b
	}
	return out, v, nil
}

// extractMapping joins the data regions of a symbol into the mapping
// matrix.
func extractMapping(bits *bitutil.BitMatrix, v *Version, across, down int) *bitutil.BitMatrix {
	m := bitutil.NewBitMatrix(across*v.RegionCols, down*v.RegionRows)
	for ry := 0; ry < down; ry++ {
		for rx := 0; rx < across; rx++ {
			for i := 0; i < v.RegionRows; i++ {
				y := ry*(v.RegionRows+2) + 1 + i
				for j := 0; j < v.RegionCols; j++ {
					if bits.Get(rx*(v.RegionCols+2)+1+j, y) {
						m.Set(rx*v.RegionCols+j, ry*v.RegionRows+i)
					}
				}
			}
		}
	}
	return m
}

// Place lays out raw codewords in a symbol of version v and adds the
// finder and alignment patterns. It is the inverse of ReadCodewords.
func Place(v *Version, codewords []byte) (*bitutil.BitMatrix, error) {
	l, cols, rows, err := mapping(v)
	if err != nil {
		return nil, err
	}
	if len(codewords) != v.Total {
		return nil, fmt.Errorf("datamatrix: %d codewords for %v, want %d: %w", len(codewords), v, v.Total, symscan.ErrFormat)
	}
	m := bitutil.NewBitMatrix(cols, rows)
	for i, cw := range l.codewords {
		for k, p := range cw {
			if codewords[i]&(0x80>>k) != 0 {
				m.Set(p.col, p.row)
			}
		}
	}
	if l.fixed {
		m.Set(cols-1, rows-1)
		m.Set(cols-2, rows-2)
	}

	across, down := v.Regions()
	h, w := v.RegionRows+2, v.RegionCols+2
	bits := bitutil.NewBitMatrix(v.Cols, v.Rows)
	for ry := 0; ry < down; ry++ {
		for rx := 0; rx < across; rx++ {
			x0, y0 := rx*w, ry*h
			bits.SetRegion(x0, y0, 1, h)
			bits.SetRegion(x0, y0+h-1, w, 1)
			for x := 0; x < w; x += 2 {
				bits.Set(x0+x, y0)
			}
			for y := 1; y < h; y += 2 {
				bits.Set(x0+w-1, y0+y)
			}
			for i := 0; i < v.RegionRows; i++ {
				for j := 0; j < v.RegionCols; j++ {
					if m.Get(rx*v.RegionCols+j, ry*v.RegionRows+i) {
						bits.Set(x0+1+j, y0+1+i)
					}
				}
			}
		}
	}
	return bits, nil
}

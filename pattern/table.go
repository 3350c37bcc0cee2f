// Package pattern finds and matches run-length encoded bar/space patterns
// along scan lines, and accumulates row matches of stacked symbols.
package pattern

import (
	"errors"
	"fmt"
)

// Defaults applied by NewTable.
const (
	DefaultMaxDistance = 0.25
	DefaultMinGap      = 0
	DefaultQuietZone   = 5
)

// Table is a set of candidate patterns of equal element count. Each pattern
// lists module widths of alternating elements, the first one black unless
// FirstWhite is set.
type Table struct {
	Name     string
	Patterns [][]int

	// FirstWhite marks tables whose patterns begin with a space.
	FirstWhite bool

	// EForm matches on sums of adjacent element pairs. Pair sums are
	// insensitive to ink spread, so no black/white compensation is applied.
	EForm bool

	// MaxModuleDistance caps the distance of a single element, in modules.
	// Zero selects a cap of 2.0 at one pixel per module falling to 1.0 at
	// four pixels per module.
	MaxModuleDistance float64

	// MaxDistance caps the summed element distance divided by the modules
	// of the pattern.
	MaxDistance float64

	// MinGap is the distance the second best pattern must lie behind the
	// best one for the match to be unambiguous.
	MinGap float64

	// QuietZone is the length, in modules, of the opposite-colour run that
	// must precede a pattern found by FindStart.
	QuietZone float64

	elements int
	modules  []int
	even     []int // modules of the even elements
	eforms   [][]int
}

// NewTable validates patterns and returns a table with the default limits.
// All patterns must have the same positive number of elements and every
// element must span at least one module.
func NewTable(name string, patterns [][]int) (*Table, error) {
	if len(patterns) == 0 {
		return nil, errors.New("pattern: empty table")
	}
	t := &Table{
		Name:        name,
		Patterns:    patterns,
		MaxDistance: DefaultMaxDistance,
		MinGap:      DefaultMinGap,
		QuietZone:   DefaultQuietZone,
		elements:    len(patterns[0]),
		modules:     make([]int, len(patterns)),
		even:        make([]int, len(patterns)),
		eforms:      make([][]int, len(patterns)),
	}
	if t.elements < 2 {
		return nil, fmt.Errorf("pattern: table %s has %d elements", name, t.elements)
	}
	for i, p := range patterns {
		if len(p) != t.elements {
			return nil, fmt.Errorf("pattern: table %s entry %d has %d elements, want %d", name, i, len(p), t.elements)
		}
		for j, m := range p {
			if m < 1 {
				return nil, fmt.Errorf("pattern: table %s entry %d element %d is %d modules", name, i, j, m)
			}
			t.modules[i] += m
			if j%2 == 0 {
				t.even[i] += m
			}
		}
		e := make([]int, t.elements-1)
		for j := range e {
			e[j] = p[j] + p[j+1]
		}
		t.eforms[i] = e
	}
	return t, nil
}

// MustTable is NewTable for package level tables.
func MustTable(name string, patterns [][]int) *Table {
	t, err := NewTable(name, patterns)
	if err != nil {
		panic(err)
	}
	return t
}

// Elements returns the number of bars and spaces per pattern.
func (t *Table) Elements() int { return t.elements }

// Modules returns the width of pattern i in modules.
func (t *Table) Modules(i int) int { return t.modules[i] }

// ToEForm returns the adjacent pair sums of pattern i.
func (t *Table) ToEForm(i int) []int { return t.eforms[i] }

// firstBlack reports the colour of the first element.
func (t *Table) firstBlack() bool { return !t.FirstWhite }

// moduleCap returns the per-element distance cap for a module length.
func (t *Table) moduleCap(moduleLength float64) float64 {
	if t.MaxModuleDistance > 0 {
		return t.MaxModuleDistance
	}
	switch {
	case moduleLength <= 1:
		return 2
	case moduleLength >= 4:
		return 1
	}
	return 2 - (moduleLength-1)/3
}

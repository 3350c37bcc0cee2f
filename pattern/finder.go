package pattern

import (
	"fmt"
	"math"
	"slices"

	"github.com/ericlevine/symscan"
)

// Compensation limits. A channel that needs more correction than this is
// not the pattern, whatever the ink spread.
const (
	minComp = 0.6
	maxComp = 1.67
)

// Match is the best table entry for one set of element widths.
type Match struct {
	Index int

	// Distance is the summed element distance per pattern module.
	Distance   float64
	Confidence float64

	// BlackComp and WhiteComp scale the measured bars and spaces to the
	// module length. They are 1 for E-form tables.
	BlackComp, WhiteComp float64

	// ModuleLength is the pattern width divided by its modules, in pixels.
	ModuleLength float64

	// LastModuleLength is the module length measured on the last element.
	LastModuleLength float64
}

// Match finds the entry of t closest to widths. ok is false when no entry
// passes the distance limits or when the runner-up lies within MinGap.
func (t *Table) Match(widths []int) (m Match, ok bool) {
	n := t.elements
	if len(widths) != n {
		return Match{}, false
	}
	total, even := 0, 0
	for j, w := range widths {
		total += w
		if j%2 == 0 {
			even += w
		}
	}
	odd := total - even
	if total == 0 || even == 0 || odd == 0 {
		return Match{}, false
	}

	best, second := math.Inf(1), math.Inf(1)
	for i, p := range t.Patterns {
		unit := float64(total) / float64(t.modules[i])
		ce, co := 1.0, 1.0
		if !t.EForm {
			ce = float64(t.even[i]) * unit / float64(even)
			co = float64(t.modules[i]-t.even[i]) * unit / float64(odd)
			if ce < minComp || ce > maxComp || co < minComp || co > maxComp {
				continue
			}
		}
		limit := t.moduleCap(unit)
		sum, rejected := 0.0, false
		if t.EForm {
			e := t.eforms[i]
			for j := range e {
				d := math.Abs(float64(widths[j]+widths[j+1])/unit - float64(e[j]))
				rejected = rejected || d > limit
				sum += d
			}
		} else {
			for j, w := range widths {
				c := ce
				if j%2 == 1 {
					c = co
				}
				d := math.Abs(float64(w)*c/unit - float64(p[j]))
				rejected = rejected || d > limit
				sum += d
			}
		}
		dist := sum / float64(t.modules[i])
		switch {
		case dist < best && !rejected:
			second = min(second, best)
			best = dist
			last := ce
			if (n-1)%2 == 1 {
				last = co
			}
			m = Match{
				Index:            i,
				Distance:         dist,
				BlackComp:        ce,
				WhiteComp:        co,
				ModuleLength:     unit,
				LastModuleLength: float64(widths[n-1]) * last / float64(p[n-1]),
			}
		case dist < second:
			second = dist
		}
	}
	if math.IsInf(best, 1) || best > t.MaxDistance {
		return Match{}, false
	}
	if t.MinGap > 0 && second-best < t.MinGap {
		return Match{}, false
	}
	if t.FirstWhite {
		m.BlackComp, m.WhiteComp = m.WhiteComp, m.BlackComp
	}
	m.Confidence = 1
	if t.MaxDistance > 0 {
		m.Confidence = 1 - best/t.MaxDistance
	}
	return m, true
}

// FoundPattern is a match located on a scan line.
type FoundPattern struct {
	Match

	// Start and End delimit the pattern, End being exclusive.
	Start, End int

	// Level is the noise level the pattern was matched at.
	Level int

	// QuietZone reports whether the pattern is preceded by a quiet zone or
	// starts at the beginning of the line.
	QuietZone bool

	Widths []int
}

// Finder searches a Source for the patterns of a table. Runs of up to k
// pixels are folded into their neighbours at noise level k, and every
// level is searched; the earliest match wins. A Finder is not safe for
// concurrent use.
type Finder struct {
	table  *Table
	levels int
	src    Source
	runs   [][]Run
	pos    int
}

// NewFinder creates a finder over noiseLevel levels, at least one.
func NewFinder(table *Table, noiseLevel int) *Finder {
	return &Finder{table: table, levels: max(noiseLevel, 1)}
}

// Table returns the current table.
func (f *Finder) Table() *Table { return f.table }

// SetTable switches to another table, keeping the line and position.
func (f *Finder) SetTable(t *Table) { f.table = t }

// Position returns where the next search starts.
func (f *Finder) Position() int { return f.pos }

// Seek moves the position of the next search within the current line.
func (f *Finder) Seek(pos int) {
	f.pos = min(max(pos, 0), f.src.Len())
}

// Source returns the line being searched.
func (f *Finder) Source() Source { return f.src }

// NewSearch starts a search of src at position start.
func (f *Finder) NewSearch(src Source, start int) {
	f.src = src
	f.pos = max(start, 0)
	base := Runs(src)
	if cap(f.runs) < f.levels {
		f.runs = make([][]Run, f.levels)
	}
	f.runs = f.runs[:f.levels]
	for k := range f.runs {
		f.runs[k] = Fold(base, k)
	}
}

// Match matches raw element widths against the current table.
func (f *Finder) Match(widths []int) (Match, bool) { return f.table.Match(widths) }

// NextPattern slides along the line from the current position and returns
// the first pattern of the table. On a mismatch the window advances by one
// bar and one space. The last run is cut by the end of the line and is
// tested like any other. The position moves past the returned pattern.
func (f *Finder) NextPattern() (FoundPattern, error) {
	var best FoundPattern
	found := false
	for k := range f.runs {
		p, ok := f.slide(k)
		if !ok {
			continue
		}
		if !found || p.Start < best.Start || (p.Start == best.Start && p.Distance < best.Distance) {
			best, found = p, true
		}
	}
	if !found {
		err := fmt.Errorf("%s pattern after %d: %w", f.table.Name, f.pos, symscan.ErrPatternNotMatched)
		f.pos = f.src.Len()
		return FoundPattern{}, err
	}
	f.pos = best.End
	return best, nil
}

func (f *Finder) slide(k int) (FoundPattern, bool) {
	runs := f.runs[k]
	n := f.table.elements
	i, _ := slices.BinarySearchFunc(runs, f.pos, func(r Run, pos int) int { return r.Start - pos })
	if i < len(runs) && runs[i].Black != f.table.firstBlack() {
		i++
	}
	widths := make([]int, n)
	for ; i+n <= len(runs); i += 2 {
		for j := range widths {
			widths[j] = runs[i+j].Len
		}
		if m, ok := f.table.Match(widths); ok {
			return f.found(runs, i, k, m, widths), true
		}
	}
	return FoundPattern{}, false
}

func (f *Finder) found(runs []Run, i, level int, m Match, widths []int) FoundPattern {
	n := f.table.elements
	p := FoundPattern{
		Match:  m,
		Start:  runs[i].Start,
		End:    runs[i+n-1].End(),
		Level:  level,
		Widths: slices.Clone(widths),
	}
	p.QuietZone = i == 0 || float64(runs[i-1].Len) >= f.table.QuietZone*m.ModuleLength
	return p
}

// ReadPattern reads the pattern that starts where the previous one ended.
// A start up to k pixels off is accepted at noise level k. The level with
// the smallest distance wins.
func (f *Finder) ReadPattern() (FoundPattern, error) {
	var best FoundPattern
	found := false
	n := f.table.elements
	widths := make([]int, n)
	for k, runs := range f.runs {
		i, _ := slices.BinarySearchFunc(runs, f.pos-k, func(r Run, pos int) int { return r.Start - pos })
		for ; i < len(runs) && runs[i].Start <= f.pos+k; i++ {
			if runs[i].Black != f.table.firstBlack() || i+n > len(runs) {
				continue
			}
			for j := range widths {
				widths[j] = runs[i+j].Len
			}
			m, ok := f.table.Match(widths)
			if !ok {
				continue
			}
			if !found || m.Distance < best.Distance {
				best, found = f.found(runs, i, k, m, widths), true
			}
		}
	}
	if !found {
		return FoundPattern{}, fmt.Errorf("%s pattern at %d: %w", f.table.Name, f.pos, symscan.ErrPatternNotMatched)
	}
	f.pos = best.End
	return best, nil
}

// FindStart calls NextPattern until it finds a pattern with a quiet zone.
func (f *Finder) FindStart() (FoundPattern, error) {
	lacking := false
	for {
		p, err := f.NextPattern()
		if err != nil {
			if lacking {
				return FoundPattern{}, fmt.Errorf("%s start: %w", f.table.Name, symscan.ErrInsufficientQuietZone)
			}
			return FoundPattern{}, err
		}
		if p.QuietZone {
			return p, nil
		}
		lacking = true
		// Resume one bar and space into the rejected pattern.
		f.pos = p.Start + p.Widths[0] + p.Widths[1]
	}
}

// calibrationContrast is the gray level difference between bars and spaces
// below which Calibrate gives up.
const calibrationContrast = 0.1

// Calibrate proposes a black/white threshold halfway between the mean gray
// of the bars and of the spaces of p. It needs a gray level source and a
// match of confidence 0.5 or better.
func (f *Finder) Calibrate(p FoundPattern) (float64, bool) {
	g, ok := f.src.(GraySource)
	if !ok || p.Confidence < 0.5 || p.Level >= len(f.runs) {
		return 0, false
	}
	var sum [2]float64
	var cnt [2]int
	for _, r := range f.runs[p.Level] {
		if r.End() <= p.Start || r.Start >= p.End {
			continue
		}
		c := 0
		if r.Black {
			c = 1
		}
		for x := max(r.Start, p.Start); x < min(r.End(), p.End); x++ {
			sum[c] += g.Gray(x)
			cnt[c]++
		}
	}
	if cnt[0] == 0 || cnt[1] == 0 {
		return 0, false
	}
	white, black := sum[0]/float64(cnt[0]), sum[1]/float64(cnt[1])
	if white-black < calibrationContrast {
		return 0, false
	}
	return (white + black) / 2, true
}

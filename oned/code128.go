// Package oned locates and decodes Code 128 symbols row by row, joining the
// rows of one symbol into a region.
package oned

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/pattern"
)

// Code 128 codeword values.
const (
	code128FNC3   = 96
	code128FNC2   = 97
	code128Shift  = 98
	code128CodeC  = 99
	code128CodeB  = 100
	code128CodeA  = 101
	code128FNC1   = 102
	code128FNC4A  = 101
	code128FNC4B  = 100
	code128StartA = 103
	code128StartB = 104
	code128StartC = 105
	code128Stop   = 106
)

// code128Patterns holds the element widths of every codeword. The stop
// pattern has a seventh element, a 2-module bar, which is checked apart.
var code128Patterns = [][]int{
	{2, 1, 2, 2, 2, 2}, // 0
	{2, 2, 2, 1, 2, 2},
	{2, 2, 2, 2, 2, 1},
	{1, 2, 1, 2, 2, 3},
	{1, 2, 1, 3, 2, 2},
	{1, 3, 1, 2, 2, 2},
	{1, 2, 2, 2, 1, 3},
	{1, 2, 2, 3, 1, 2},
	{1, 3, 2, 2, 1, 2},
	{2, 2, 1, 2, 1, 3},
	{2, 2, 1, 3, 1, 2}, // 10
	{2, 3, 1, 2, 1, 2},
	{1, 1, 2, 2, 3, 2},
	{1, 2, 2, 1, 3, 2},
	{1, 2, 2, 2, 3, 1},
	{1, 1, 3, 2, 2, 2},
	{1, 2, 3, 1, 2, 2},
	{1, 2, 3, 2, 2, 1},
	{2, 2, 3, 2, 1, 1},
	{2, 2, 1, 1, 3, 2},
	{2, 2, 1, 2, 3, 1}, // 20
	{2, 1, 3, 2, 1, 2},
	{2, 2, 3, 1, 1, 2},
	{3, 1, 2, 1, 3, 1},
	{3, 1, 1, 2, 2, 2},
	{3, 2, 1, 1, 2, 2},
	{3, 2, 1, 2, 2, 1},
	{3, 1, 2, 2, 1, 2},
	{3, 2, 2, 1, 1, 2},
	{3, 2, 2, 2, 1, 1},
	{2, 1, 2, 1, 2, 3}, // 30
	{2, 1, 2, 3, 2, 1},
	{2, 3, 2, 1, 2, 1},
	{1, 1, 1, 3, 2, 3},
	{1, 3, 1, 1, 2, 3},
	{1, 3, 1, 3, 2, 1},
	{1, 1, 2, 3, 1, 3},
	{1, 3, 2, 1, 1, 3},
	{1, 3, 2, 3, 1, 1},
	{2, 1, 1, 3, 1, 3},
	{2, 3, 1, 1, 1, 3}, // 40
	{2, 3, 1, 3, 1, 1},
	{1, 1, 2, 1, 3, 3},
	{1, 1, 2, 3, 3, 1},
	{1, 3, 2, 1, 3, 1},
	{1, 1, 3, 1, 2, 3},
	{1, 1, 3, 3, 2, 1},
	{1, 3, 3, 1, 2, 1},
	{3, 1, 3, 1, 2, 1},
	{2, 1, 1, 3, 3, 1},
	{2, 3, 1, 1, 3, 1}, // 50
	{2, 1, 3, 1, 1, 3},
	{2, 1, 3, 3, 1, 1},
	{2, 1, 3, 1, 3, 1},
	{3, 1, 1, 1, 2, 3},
	{3, 1, 1, 3, 2, 1},
	{3, 3, 1, 1, 2, 1},
	{3, 1, 2, 1, 1, 3},
	{3, 1, 2, 3, 1, 1},
	{3, 3, 2, 1, 1, 1},
	{3, 1, 4, 1, 1, 1}, // 60
	{2, 2, 1, 4, 1, 1},
	{4, 3, 1, 1, 1, 1},
	{1, 1, 1, 2, 2, 4},
	{1, 1, 1, 4, 2, 2},
	{1, 2, 1, 1, 2, 4},
	{1, 2, 1, 4, 2, 1},
	{1, 4, 1, 1, 2, 2},
	{1, 4, 1, 2, 2, 1},
	{1, 1, 2, 2, 1, 4},
	{1, 1, 2, 4, 1, 2}, // 70
	{1, 2, 2, 1, 1, 4},
	{1, 2, 2, 4, 1, 1},
	{1, 4, 2, 1, 1, 2},
	{1, 4, 2, 2, 1, 1},
	{2, 4, 1, 2, 1, 1},
	{2, 2, 1, 1, 1, 4},
	{4, 1, 3, 1, 1, 1},
	{2, 4, 1, 1, 1, 2},
	{1, 3, 4, 1, 1, 1},
	{1, 1, 1, 2, 4, 2}, // 80
	{1, 2, 1, 1, 4, 2},
	{1, 2, 1, 2, 4, 1},
	{1, 1, 4, 2, 1, 2},
	{1, 2, 4, 1, 1, 2},
	{1, 2, 4, 2, 1, 1},
	{4, 1, 1, 2, 1, 2},
	{4, 2, 1, 1, 1, 2},
	{4, 2, 1, 2, 1, 1},
	{2, 1, 2, 1, 4, 1},
	{2, 1, 4, 1, 2, 1}, // 90
	{4, 1, 2, 1, 2, 1},
	{1, 1, 1, 1, 4, 3},
	{1, 1, 1, 3, 4, 1},
	{1, 3, 1, 1, 4, 1},
	{1, 1, 4, 1, 1, 3},
	{1, 1, 4, 3, 1, 1},
	{4, 1, 1, 1, 1, 3},
	{4, 1, 1, 3, 1, 1},
	{1, 1, 3, 1, 4, 1},
	{1, 1, 4, 1, 3, 1}, // 100
	{3, 1, 1, 1, 4, 1},
	{4, 1, 1, 1, 3, 1},
	{2, 1, 1, 4, 1, 2}, // start A
	{2, 1, 1, 2, 1, 4}, // start B
	{2, 1, 1, 2, 3, 2}, // start C
	{2, 3, 3, 1, 1, 1}, // stop, less its final bar
}

var (
	code128Table  = pattern.MustTable("code128", code128Patterns)
	code128Starts = pattern.MustTable("code128 start", code128Patterns[code128StartA:code128Stop])
)

// code128Checksum reports whether the last codeword of codes is the
// weighted sum of the others modulo 103. codes begins with the start code
// and excludes the stop.
func code128Checksum(codes []int) bool {
	if len(codes) < 2 {
		return false
	}
	n := len(codes) - 1
	sum := codes[0]
	for i := 1; i < n; i++ {
		sum += i * codes[i]
	}
	return sum%103 == codes[n]
}

// code128Decoder turns data codewords into payload segments. Letters go to
// text segments and code set C pairs to numeric segments.
type code128Decoder struct {
	set        int
	shifted    bool
	upper      bool
	upperShift bool

	text    []rune
	digits  []byte
	payload symscan.Payload
}

func (d *code128Decoder) flush() {
	if len(d.text) > 0 {
		d.payload = append(d.payload, symscan.TextSegment{Value: string(d.text)})
		d.text = d.text[:0]
	}
	if len(d.digits) > 0 {
		d.payload = append(d.payload, symscan.NumericSegment{Digits: d.digits})
		d.digits = nil
	}
}

// char appends an ASCII character, moved to the upper half of Latin-1
// while FNC4 is in effect.
func (d *code128Decoder) char(c int) {
	if len(d.digits) > 0 {
		d.flush()
	}
	if d.upper != d.upperShift {
		c += 128
	}
	d.upperShift = false
	d.text = append(d.text, rune(c))
}

func (d *code128Decoder) control(kind symscan.ControlKind) {
	d.flush()
	d.payload = append(d.payload, symscan.ControlSegment{Kind: kind})
}

// fnc4 shifts the next character to the upper half; two in a row latch or
// unlatch the upper half.
func (d *code128Decoder) fnc4() {
	if d.upperShift {
		d.upper = !d.upper
		d.upperShift = false
		return
	}
	d.upperShift = true
}

// special handles the function and code set codewords shared by sets A
// and B. fnc4 is the value of FNC4 in the current set.
func (d *code128Decoder) special(code, fnc4, other int) error {
	switch code {
	case code128FNC1:
		d.control(symscan.ControlFNC1)
	case code128FNC2:
		// Message append carries no data.
	case code128FNC3:
		d.control(symscan.ControlReaderProgramming)
	case fnc4:
		d.fnc4()
	case code128Shift:
		d.shifted = true
		d.set = other
	case other:
		d.set = other
	case code128CodeC:
		d.set = code128CodeC
	default:
		return fmt.Errorf("codeword %d in code set %c: %w", code, 'A'+rune(code128CodeA-d.set), symscan.ErrFormat)
	}
	return nil
}

func (d *code128Decoder) decode(code int) error {
	if code >= code128StartA {
		return fmt.Errorf("codeword %d inside the data: %w", code, symscan.ErrFormat)
	}
	unshift := d.shifted
	d.shifted = false
	var err error
	switch d.set {
	case code128CodeA:
		switch {
		case code < 64:
			d.char(' ' + code)
		case code < 96:
			d.char(code - 64)
		default:
			err = d.special(code, code128FNC4A, code128CodeB)
		}
	case code128CodeB:
		if code < 96 {
			d.char(' ' + code)
		} else {
			err = d.special(code, code128FNC4B, code128CodeA)
		}
	case code128CodeC:
		switch {
		case code < 100:
			if len(d.text) > 0 {
				d.flush()
			}
			d.digits = append(d.digits, byte('0'+code/10), byte('0'+code%10))
		case code == code128FNC1:
			d.control(symscan.ControlFNC1)
		case code == code128CodeA || code == code128CodeB:
			d.set = code
		}
	}
	if unshift {
		if d.set == code128CodeA {
			d.set = code128CodeB
		} else {
			d.set = code128CodeA
		}
	}
	return err
}

// decodeCode128 verifies the check codeword and decodes the data between
// the start code and the check codeword.
func decodeCode128(codes []int) (symscan.Payload, error) {
	if len(codes) < 3 {
		return nil, fmt.Errorf("code128: %d codewords: %w", len(codes), symscan.ErrFormat)
	}
	if !code128Checksum(codes) {
		return nil, fmt.Errorf("code128: %w", symscan.ErrChecksum)
	}
	var d code128Decoder
	switch codes[0] {
	case code128StartA:
		d.set = code128CodeA
	case code128StartB:
		d.set = code128CodeB
	case code128StartC:
		d.set = code128CodeC
	default:
		return nil, fmt.Errorf("code128: start code %d: %w", codes[0], symscan.ErrFormat)
	}
	for _, c := range codes[1 : len(codes)-1] {
		if err := d.decode(c); err != nil {
			return nil, fmt.Errorf("code128: %w", err)
		}
	}
	d.flush()
	if len(d.payload) == 0 {
		return nil, fmt.Errorf("code128: empty symbol: %w", symscan.ErrFormat)
	}
	return d.payload, nil
}

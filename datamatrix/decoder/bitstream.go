package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/charset"
)

// mode is an encodation scheme of the data codewords.
type mode int

const (
	modeDone mode = iota
	modeASCII
	modeC40
	modeText
	modeX12
	modeEDIFACT
	modeBase256
)

// ASCII codewords above the character and digit pair ranges.
const (
	cwPad               = 129
	cwLatchC40          = 230
	cwLatchBase256      = 231
	cwFNC1              = 232
	cwStructuredAppend  = 233
	cwReaderProgramming = 234
	cwUpperShift        = 235
	cwMacro05           = 236
	cwMacro06           = 237
	cwLatchX12          = 238
	cwLatchText         = 239
	cwLatchEDIFACT      = 240
	cwECI               = 241
	cwUnlatch           = 254
)

// Character sets of the C40, Text and X12 schemes. The first three values
// of the basic sets are shifts.
const (
	c40Basic   = "\x00\x00\x00 0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	textBasic  = "\x00\x00\x00 0123456789abcdefghijklmnopqrstuvwxyz"
	shift2Set  = "!\"#$%&'()*+,-./:;<=>?@[\\]^_"
	textShift3 = "`ABCDEFGHIJKLMNOPQRSTUVWXYZ{|}~\x7f"
	x12Set     = "\r*> 0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Values of the second shift set past its characters.
const (
	shift2FNC1       = 27
	shift2UpperShift = 30
)

func formatErr(format string, args ...any) error {
	return fmt.Errorf("datamatrix: "+format+": %w", append(args, symscan.ErrFormat)...)
}

// streamDecoder collects the segments of a payload. Characters are kept
// as bytes until a segment boundary and then decoded with the character
// set in effect.
type streamDecoder struct {
	bits     *bitutil.BitSource
	payload  symscan.Payload
	text     []byte
	encoding string
	upper    bool
}

// DecodeBitStream parses the corrected data codewords of a symbol.
// Characters default to ISO-8859-1 until an ECI selects another set.
func DecodeBitStream(data []byte) (symscan.Payload, error) {
	d := &streamDecoder{bits: bitutil.NewBitSource(data), encoding: charset.ISO8859_1.Name}
	m := modeASCII
	for m != modeDone && d.bits.Available() >= 8 {
		var err error
		switch m {
		case modeASCII:
			m, err = d.ascii()
		case modeC40, modeText:
			err = d.c40(m == modeText)
			m = modeASCII
		case modeX12:
			err = d.x12()
			m = modeASCII
		case modeEDIFACT:
			err = d.edifact()
			m = modeASCII
		case modeBase256:
			err = d.base256()
			m = modeASCII
		}
		if err != nil {
			return nil, err
		}
	}
	d.flush()
	return d.payload, nil
}

func (d *streamDecoder) read8() (int, error) {
	v, err := d.bits.ReadBits(8)
	if err != nil {
		return 0, formatErr("codeword %d: %v", d.bits.ByteOffset(), err)
	}
	return v, nil
}

// char appends one character, applying a pending upper shift.
func (d *streamDecoder) char(b byte) {
	if d.upper {
		b += 128
		d.upper = false
	}
	d.text = append(d.text, b)
}

// flush closes the pending text segment.
func (d *streamDecoder) flush() {
	if len(d.text) == 0 {
		return
	}
	s, err := charset.Decode(d.text, d.encoding)
	if err != nil {
		s, _ = charset.Decode(d.text, charset.ISO8859_1.Name)
	}
	d.payload = append(d.payload, symscan.TextSegment{Value: s})
	d.text = d.text[:0]
}

func (d *streamDecoder) add(s symscan.Segment) {
	d.flush()
	d.payload = append(d.payload, s)
}

// digits appends a digit pair, extending a numeric segment it follows.
func (d *streamDecoder) digits(v int) {
	pair := []byte{byte('0' + v/10), byte('0' + v%10)}
	if len(d.text) == 0 && len(d.payload) > 0 {
		if n, ok := d.payload[len(d.payload)-1].(symscan.NumericSegment); ok {
			d.payload[len(d.payload)-1] = symscan.NumericSegment{Digits: append(n.Digits, pair...)}
			return
		}
	}
	d.add(symscan.NumericSegment{Digits: pair})
}

func (d *streamDecoder) ascii() (mode, error) {
	for d.bits.Available() >= 8 {
		c, err := d.read8()
		if err != nil {
			return modeDone, err
		}
		switch {
		case c == 0:
			return modeDone, formatErr("ASCII codeword 0")
		case c <= 128:
			d.char(byte(c - 1))
		case c == cwPad:
			return modeDone, nil
		case c < cwLatchC40:
			d.digits(c - 130)
		case c == cwLatchC40:
			return modeC40, nil
		case c == cwLatchBase256:
			return modeBase256, nil
		case c == cwFNC1:
			d.add(symscan.ControlSegment{Kind: symscan.ControlFNC1})
		case c == cwStructuredAppend:
			if err := d.structuredAppend(); err != nil {
				return modeDone, err
			}
		case c == cwReaderProgramming:
			d.add(symscan.ControlSegment{Kind: symscan.ControlReaderProgramming})
		case c == cwUpperShift:
			d.upper = true
		case c == cwMacro05:
			d.add(symscan.ControlSegment{Kind: symscan.ControlMacro05})
		case c == cwMacro06:
			d.add(symscan.ControlSegment{Kind: symscan.ControlMacro06})
		case c == cwLatchX12:
			return modeX12, nil
		case c == cwLatchText:
			return modeText, nil
		case c == cwLatchEDIFACT:
			return modeEDIFACT, nil
		case c == cwECI:
			if err := d.eci(); err != nil {
				return modeDone, err
			}
		case c == cwUnlatch && d.bits.Available() == 0:
			// Some encoders end ASCII data with a stray unlatch.
		default:
			return modeDone, formatErr("ASCII codeword %d", c)
		}
	}
	return modeDone, nil
}

func (d *streamDecoder) structuredAppend() error {
	var v [3]int
	for i := range v {
		c, err := d.read8()
		if err != nil {
			return err
		}
		v[i] = c
	}
	part, total := v[0]>>4+1, 17-v[0]&0x0f
	if total < 2 || total > 16 || part > total {
		return formatErr("structured append part %d of %d", part, total)
	}
	d.add(symscan.ControlSegment{
		Kind:   symscan.ControlStructuredAppend,
		Part:   part,
		Total:  total,
		FileID: v[1]<<8 | v[2],
	})
	return nil
}

// eci reads a one to three codeword ECI assignment and switches the
// character set of what follows.
func (d *streamDecoder) eci() error {
	c1, err := d.read8()
	if err != nil {
		return err
	}
	var v int
	switch {
	case c1 <= 127:
		v = c1 - 1
	case c1 <= 191:
		c2, err := d.read8()
		if err != nil {
			return err
		}
		v = (c1-128)*254 + 127 + c2 - 1
	default:
		c2, err := d.read8()
		if err != nil {
			return err
		}
		c3, err := d.read8()
		if err != nil {
			return err
		}
		v = (c1-192)*64516 + 16383 + (c2-1)*254 + c3 - 1
	}
	e, err := charset.ByValue(v)
	if err != nil {
		return fmt.Errorf("datamatrix: %w: %w", symscan.ErrFormat, err)
	}
	d.add(symscan.ControlSegment{Kind: symscan.ControlSwitchEncoding, ECI: v})
	d.encoding = e.Name
	return nil
}

// triplet reads two codewords packing three values below 40. ok is false
// at an unlatch or when a single codeword is left, which then belongs to
// the ASCII scheme.
func (d *streamDecoder) triplet() (v [3]int, ok bool, err error) {
	if d.bits.Available() < 16 {
		return v, false, nil
	}
	c1, err := d.read8()
	if err != nil || c1 == cwUnlatch {
		return v, false, err
	}
	c2, err := d.read8()
	if err != nil {
		return v, false, err
	}
	n := c1<<8 + c2 - 1
	return [3]int{n / 1600, n / 40 % 40, n % 40}, true, nil
}

// c40 decodes the C40 scheme, or the Text scheme with its lower case
// basic set.
func (d *streamDecoder) c40(text bool) error {
	basic, name := c40Basic, "C40"
	if text {
		basic, name = textBasic, "Text"
	}
	shift := 0
	for {
		vals, ok, err := d.triplet()
		if !ok {
			return err
		}
		for _, c := range vals {
			switch shift {
			case 0:
				if c < 3 {
					shift = c + 1
					continue
				}
				if c >= len(basic) {
					return formatErr("%s value %d", name, c)
				}
				d.char(basic[c])
			case 1:
				d.char(byte(c))
			case 2:
				switch {
				case c < len(shift2Set):
					d.char(shift2Set[c])
				case c == shift2FNC1:
					d.add(symscan.ControlSegment{Kind: symscan.ControlFNC1})
				case c == shift2UpperShift:
					d.upper = true
				default:
					return formatErr("%s shift 2 value %d", name, c)
				}
			case 3:
				switch {
				case c >= 32:
					return formatErr("%s shift 3 value %d", name, c)
				case text:
					d.char(textShift3[c])
				default:
					d.char(byte(c + 96))
				}
			}
			shift = 0
		}
	}
}

func (d *streamDecoder) x12() error {
	for {
		vals, ok, err := d.triplet()
		if !ok {
			return err
		}
		for _, c := range vals {
			if c >= len(x12Set) {
				return formatErr("X12 value %d", c)
			}
			d.char(x12Set[c])
		}
	}
}

// edifact decodes four six-bit values from every three codewords. The
// unlatch value returns to ASCII at the next codeword boundary.
func (d *streamDecoder) edifact() error {
	const unlatch = 0x1f
	for d.bits.Available() >= 24 {
		for i := 0; i < 4; i++ {
			v, err := d.bits.ReadBits(6)
			if err != nil {
				return formatErr("EDIFACT: %v", err)
			}
			if v == unlatch {
				if off := d.bits.BitOffset(); off != 0 {
					if _, err := d.bits.ReadBits(8 - off); err != nil {
						return formatErr("EDIFACT: %v", err)
					}
				}
				return nil
			}
			if v&0x20 == 0 {
				v |= 0x40
			}
			d.char(byte(v))
		}
	}
	return nil
}

// unrandomize255 undoes the 255-state randomising of Base 256 codeword
// pos, counted from 1.
func unrandomize255(v, pos int) int {
	t := v - (149*pos%255 + 1)
	if t < 0 {
		t += 256
	}
	return t
}

func (d *streamDecoder) base256() error {
	pos := d.bits.ByteOffset() + 1
	next := func() (int, error) {
		c, err := d.read8()
		if err != nil {
			return 0, err
		}
		v := unrandomize255(c, pos)
		pos++
		return v, nil
	}
	n, err := next()
	if err != nil {
		return err
	}
	switch {
	case n == 0:
		n = d.bits.Available() / 8
	case n >= 250:
		n2, err := next()
		if err != nil {
			return err
		}
		n = 250*(n-249) + n2
	}
	if n*8 > d.bits.Available() {
		return formatErr("Base 256 field of %d bytes with %d left", n, d.bits.Available()/8)
	}
	b := make([]byte, n)
	for i := range b {
		v, err := next()
		if err != nil {
			return err
		}
		b[i] = byte(v)
	}
	d.add(symscan.Base256Segment{Bytes: b, Encoding: d.encoding})
	return nil
}

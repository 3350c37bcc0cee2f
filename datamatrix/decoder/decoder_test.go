package decoder

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/charset"
	"github.com/ericlevine/symscan/reedsolomon"
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// encodeASCII encodes s in the ASCII scheme, packing digit pairs.
func encodeASCII(s string) []byte {
	var out []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isDigit(c) && i+1 < len(s) && isDigit(s[i+1]):
			out = append(out, byte(130+int(c-'0')*10+int(s[i+1]-'0')))
			i++
		case c >= 128:
			out = append(out, cwUpperShift, c-127)
		default:
			out = append(out, c+1)
		}
	}
	return out
}

// pad fills data up to n codewords with the pad codeword, randomised after
// the first.
func pad(data []byte, n int) []byte {
	for i := len(data); i < n; i++ {
		if i == len(data) {
			data = append(data, cwPad)
			continue
		}
		r := cwPad + 149*(i+1)%253 + 1
		if r > 254 {
			r -= 254
		}
		data = append(data, byte(r))
	}
	return data
}

func symbol(t *testing.T, rows, cols int, data []byte) *bitutil.BitMatrix {
	t.Helper()
	v, err := Lookup(rows, cols)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := Interleave(v, pad(data, v.DataCodewords()))
	if err != nil {
		t.Fatal(err)
	}
	bits, err := Place(v, raw)
	if err != nil {
		t.Fatal(err)
	}
	return bits
}

func TestLayoutCoversMapping(t *testing.T) {
	for _, v := range Versions() {
		t.Run(v.String(), func(t *testing.T) {
			l, cols, rows, err := mapping(v)
			if err != nil {
				t.Fatal(err)
			}
			seen := make(map[module]bool)
			for _, cw := range l.codewords {
				for _, m := range cw {
					if m.row < 0 || m.row >= rows || m.col < 0 || m.col >= cols {
						t.Fatalf("module %v outside %dx%d", m, cols, rows)
					}
					if seen[m] {
						t.Fatalf("module %v placed twice", m)
					}
					seen[m] = true
				}
			}
			spare := rows*cols - 8*v.Total
			if spare != 0 && spare != 4 {
				t.Errorf("%d modules left over", spare)
			}
			if l.fixed != (spare == 4) {
				t.Errorf("fixed corner = %v with %d modules left over", l.fixed, spare)
			}
		})
	}
}

func TestPlaceReadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, size := range [][2]int{{10, 10}, {12, 12}, {32, 32}, {8, 18}, {16, 48}, {144, 144}} {
		v, err := Lookup(size[0], size[1])
		if err != nil {
			t.Fatal(err)
		}
		t.Run(v.String(), func(t *testing.T) {
			raw := make([]byte, v.Total)
			rng.Read(raw)
			bits, err := Place(v, raw)
			if err != nil {
				t.Fatal(err)
			}
			if bits.Width() != v.Cols || bits.Height() != v.Rows {
				t.Fatalf("symbol is %dx%d", bits.Height(), bits.Width())
			}
			for x := 0; x < v.Cols; x++ {
				if !bits.Get(x, v.Rows-1) {
					t.Fatalf("bottom row is light at column %d", x)
				}
				if bits.Get(x, 0) != (x%2 == 0) {
					t.Fatalf("top timing wrong at column %d", x)
				}
			}
			got, gv, err := ReadCodewords(bits)
			if err != nil {
				t.Fatal(err)
			}
			if gv != v || !reflect.DeepEqual(got, raw) {
				t.Error("codewords differ after placement")
			}
		})
	}
}

func TestInterleaveSplit(t *testing.T) {
	rs := reedsolomon.NewDecoder(reedsolomon.DataMatrixField256)
	for _, size := range [][2]int{{12, 12}, {52, 52}, {72, 72}, {144, 144}} {
		v, _ := Lookup(size[0], size[1])
		t.Run(v.String(), func(t *testing.T) {
			data := make([]byte, v.DataCodewords())
			for i := range data {
				data[i] = byte(i*7 + 3)
			}
			raw, err := Interleave(v, data)
			if err != nil {
				t.Fatal(err)
			}
			blocks, err := Split(raw, v)
			if err != nil {
				t.Fatal(err)
			}
			if len(blocks) != v.BlockCount() {
				t.Fatalf("%d blocks, want %d", len(blocks), v.BlockCount())
			}
			n := len(blocks)
			for j, b := range blocks {
				cw := make([]int, len(b.Codewords))
				for i, c := range b.Codewords {
					cw[i] = int(c)
				}
				c, err := rs.Decode(cw, v.ECW)
				if err != nil || c.Errors != 0 {
					t.Fatalf("block %d: %v, %d errors", j, err, c.Errors)
				}
				for i := 0; i < b.Data; i++ {
					if b.Codewords[i] != data[i*n+j] {
						t.Fatalf("block %d codeword %d = %d, want %d", j, i, b.Codewords[i], data[i*n+j])
					}
				}
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		text       string
	}{
		{"smallest", 10, 10, "AB"},
		{"square", 12, 12, "Hello"},
		{"digits", 14, 14, "Go 1234567890"},
		{"four regions", 32, 32, "Data Matrix with four data regions"},
		{"rectangle", 8, 18, "Rect"},
		{"wide rectangle", 16, 48, "Rectangular symbol of three regions"},
	}
	dec := NewDecoder()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := dec.Decode(symbol(t, tc.rows, tc.cols, encodeASCII(tc.text)))
			if err != nil {
				t.Fatal(err)
			}
			if got := res.Payload.String(); got != tc.text {
				t.Errorf("payload %q, want %q", got, tc.text)
			}
			if res.ErrorsCorrected != 0 || res.Confidence != 1 {
				t.Errorf("%d errors corrected, confidence %v", res.ErrorsCorrected, res.Confidence)
			}
		})
	}
}

func TestDecodeCorrectsErrors(t *testing.T) {
	v, _ := Lookup(16, 16)
	raw, err := Interleave(v, pad(encodeASCII("Corrected"), v.DataCodewords()))
	if err != nil {
		t.Fatal(err)
	}
	dec := NewDecoder()

	// 12 check codewords repair up to 6 errors.
	for _, k := range []int{2, 6} {
		bad := append([]byte(nil), raw...)
		for i := 0; i < k; i++ {
			bad[3*i+1] ^= 0x5a
		}
		bits, err := Place(v, bad)
		if err != nil {
			t.Fatal(err)
		}
		res, err := dec.Decode(bits)
		if err != nil {
			t.Fatalf("%d errors: %v", k, err)
		}
		if res.Payload.String() != "Corrected" || res.ErrorsCorrected != k {
			t.Errorf("%d errors: payload %q, %d corrected", k, res.Payload, res.ErrorsCorrected)
		}
		if want := float64(6-k) / 6; res.Confidence != want {
			t.Errorf("%d errors: confidence %v, want %v", k, res.Confidence, want)
		}
	}

	bits := symbol(t, 16, 16, encodeASCII("Corrected"))
	for y := 1; y < 15; y++ {
		for x := 1; x < 8; x++ {
			bits.Flip(x, y)
		}
	}
	if _, err := dec.Decode(bits); !errors.Is(err, symscan.ErrUncorrectable) {
		t.Errorf("half the symbol flipped: err = %v", err)
	}
}

func TestDecodeUnknownSize(t *testing.T) {
	if _, err := NewDecoder().Decode(bitutil.NewBitMatrix(11, 11)); !errors.Is(err, symscan.ErrFormat) {
		t.Errorf("err = %v", err)
	}
}

// base256 latches to Base 256 at codeword index at and randomises a
// length field and the bytes.
func base256(at int, b ...byte) []byte {
	out := []byte{cwLatchBase256}
	vals := append([]byte{byte(len(b))}, b...)
	for i, v := range vals {
		pos := at + 2 + i
		r := int(v) + 149*pos%255 + 1
		if r > 255 {
			r -= 256
		}
		out = append(out, byte(r))
	}
	return out
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestDecodeBitStream(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want symscan.Payload
	}{
		{"ascii", []byte{66, 67, 68}, symscan.Payload{symscan.TextSegment{Value: "ABC"}}},
		{"digit pairs", []byte{142, 164}, symscan.Payload{symscan.NumericSegment{Digits: []byte("1234")}}},
		{"mixed", encodeASCII("A12B"), symscan.Payload{
			symscan.TextSegment{Value: "A"},
			symscan.NumericSegment{Digits: []byte("12")},
			symscan.TextSegment{Value: "B"},
		}},
		{"upper shift", []byte{cwUpperShift, 66}, symscan.Payload{symscan.TextSegment{Value: "Á"}}},
		{"fnc1", []byte{cwFNC1, 66}, symscan.Payload{
			symscan.ControlSegment{Kind: symscan.ControlFNC1},
			symscan.TextSegment{Value: "A"},
		}},
		{"pad ends data", []byte{66, cwPad, 66}, symscan.Payload{symscan.TextSegment{Value: "A"}}},
		{"macro 05", []byte{cwMacro05, 66}, symscan.Payload{
			symscan.ControlSegment{Kind: symscan.ControlMacro05},
			symscan.TextSegment{Value: "A"},
		}},
		{"reader programming", []byte{cwReaderProgramming}, symscan.Payload{
			symscan.ControlSegment{Kind: symscan.ControlReaderProgramming},
		}},
		{"structured append", []byte{cwStructuredAppend, 0x11, 0x12, 0x34, 66}, symscan.Payload{
			symscan.ControlSegment{Kind: symscan.ControlStructuredAppend, Part: 2, Total: 16, FileID: 0x1234},
			symscan.TextSegment{Value: "A"},
		}},
		{"c40", []byte{cwLatchC40, 91, 11, cwUnlatch, 99}, symscan.Payload{symscan.TextSegment{Value: "AIMb"}}},
		{"text", []byte{cwLatchText, 91, 11}, symscan.Payload{symscan.TextSegment{Value: "aim"}}},
		{"x12", []byte{cwLatchX12, 87, 171}, symscan.Payload{symscan.TextSegment{Value: "A*>"}}},
		{"edifact", []byte{cwLatchEDIFACT, 0x04, 0x20, 0xdf, 101}, symscan.Payload{symscan.TextSegment{Value: "ABCd"}}},
		{"base 256", cat([]byte{66}, base256(1, 0xe9, 0x41), []byte{67}), symscan.Payload{
			symscan.TextSegment{Value: "A"},
			symscan.Base256Segment{Bytes: []byte{0xe9, 0x41}, Encoding: charset.ISO8859_1.Name},
			symscan.TextSegment{Value: "B"},
		}},
		{"eci utf-8", []byte{cwECI, 27, cwUpperShift, 68, cwUpperShift, 42}, symscan.Payload{
			symscan.ControlSegment{Kind: symscan.ControlSwitchEncoding, ECI: 26},
			symscan.TextSegment{Value: "é"},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeBitStream(tc.data)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %#v\nwant %#v", got, tc.want)
			}
		})
	}
}

func TestDecodeBitStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"zero codeword", []byte{0}},
		{"reserved codeword", []byte{66, 250, 66}},
		{"base 256 overrun", base256(0, 1, 2, 3)[:3]},
		{"unknown eci", []byte{cwECI, 100, 66}},
		{"c40 value out of range", []byte{cwLatchC40, 250, 1}},
		{"short structured append", []byte{cwStructuredAppend, 0x11}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeBitStream(tc.data); !errors.Is(err, symscan.ErrFormat) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

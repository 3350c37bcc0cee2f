package charset

import (
	"errors"
	"testing"
)

func TestByValue(t *testing.T) {
	tests := []struct {
		value int
		want  *ECI
	}{
		{0, Cp437}, {2, Cp437}, {3, ISO8859_1}, {20, ShiftJIS}, {26, UTF8}, {170, ASCII},
	}
	for _, tc := range tests {
		got, err := ByValue(tc.value)
		if err != nil || got != tc.want {
			t.Errorf("ByValue(%d) = %v, %v; want %s", tc.value, got, err, tc.want.Name)
		}
	}
	if _, err := ByValue(899); !errors.Is(err, ErrUnknownECI) {
		t.Errorf("ByValue(899) err = %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
		want     string
	}{
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, "ISO-8859-1", "café"},
		{"alias", []byte{0xE9}, "iso8859_1", "é"},
		{"utf8", []byte("naïve"), "UTF-8", "naïve"},
		{"sjis", []byte{0x82, 0xA0}, "SJIS", "あ"},
		{"utf16", []byte{0x00, 'A', 0x00, 'B'}, "UTF-16BE", "AB"},
		{"guess latin1", []byte{'x', 0xFC}, "", "xü"},
		{"guess utf8", []byte("ü"), "", "ü"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.data, tc.encoding)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Decode = %q, want %q", got, tc.want)
			}
		})
	}
	if _, err := Decode([]byte("x"), "EBCDIC-XYZ"); err == nil {
		t.Error("unknown encoding should fail")
	}
}

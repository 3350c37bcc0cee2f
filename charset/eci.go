// Package charset maps Extended Channel Interpretation values to text
// encodings and converts symbol bytes to UTF-8.
package charset

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnknownECI is returned for ECI values outside the assignment table.
var ErrUnknownECI = errors.New("charset: unknown ECI value")

// ECI is one character set assignment.
type ECI struct {
	Value    int
	Name     string
	Aliases  []string
	Encoding encoding.Encoding // nil for UTF-8 and US-ASCII
}

// Assigned character sets.
var (
	Cp437      = &ECI{0, "IBM437", nil, charmap.CodePage437}
	ISO8859_1  = &ECI{1, "ISO-8859-1", []string{"ISO8859_1", "latin1"}, charmap.ISO8859_1}
	ISO8859_2  = &ECI{4, "ISO-8859-2", []string{"ISO8859_2"}, charmap.ISO8859_2}
	ISO8859_3  = &ECI{5, "ISO-8859-3", []string{"ISO8859_3"}, charmap.ISO8859_3}
	ISO8859_4  = &ECI{6, "ISO-8859-4", []string{"ISO8859_4"}, charmap.ISO8859_4}
	ISO8859_5  = &ECI{7, "ISO-8859-5", []string{"ISO8859_5"}, charmap.ISO8859_5}
	ISO8859_6  = &ECI{8, "ISO-8859-6", []string{"ISO8859_6"}, charmap.ISO8859_6}
	ISO8859_7  = &ECI{9, "ISO-8859-7", []string{"ISO8859_7"}, charmap.ISO8859_7}
	ISO8859_8  = &ECI{10, "ISO-8859-8", []string{"ISO8859_8"}, charmap.ISO8859_8}
	ISO8859_9  = &ECI{11, "ISO-8859-9", []string{"ISO8859_9"}, charmap.ISO8859_9}
	ISO8859_10 = &ECI{12, "ISO-8859-10", []string{"ISO8859_10"}, charmap.ISO8859_10}
	ISO8859_11 = &ECI{13, "ISO-8859-11", []string{"ISO8859_11", "TIS-620"}, charmap.Windows874}
	ISO8859_13 = &ECI{15, "ISO-8859-13", []string{"ISO8859_13"}, charmap.ISO8859_13}
	ISO8859_14 = &ECI{16, "ISO-8859-14", []string{"ISO8859_14"}, charmap.ISO8859_14}
	ISO8859_15 = &ECI{17, "ISO-8859-15", []string{"ISO8859_15"}, charmap.ISO8859_15}
	ISO8859_16 = &ECI{18, "ISO-8859-16", []string{"ISO8859_16"}, charmap.ISO8859_16}
	ShiftJIS   = &ECI{20, "Shift_JIS", []string{"SJIS"}, japanese.ShiftJIS}
	Cp1250     = &ECI{21, "windows-1250", []string{"Cp1250"}, charmap.Windows1250}
	Cp1251     = &ECI{22, "windows-1251", []string{"Cp1251"}, charmap.Windows1251}
	Cp1252     = &ECI{23, "windows-1252", []string{"Cp1252"}, charmap.Windows1252}
	Cp1256     = &ECI{24, "windows-1256", []string{"Cp1256"}, charmap.Windows1256}
	UTF16BE    = &ECI{25, "UTF-16BE", []string{"UnicodeBig"}, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
	UTF8       = &ECI{26, "UTF-8", []string{"UTF8"}, nil}
	ASCII      = &ECI{27, "US-ASCII", []string{"ASCII"}, nil}
	Big5       = &ECI{28, "Big5", nil, traditionalchinese.Big5}
	GB18030    = &ECI{29, "GB18030", []string{"GB2312", "GBK", "EUC_CN"}, simplifiedchinese.GB18030}
	EUCKR      = &ECI{30, "EUC-KR", []string{"EUC_KR"}, korean.EUCKR}
)

var (
	byValue = map[int]*ECI{}
	byName  = map[string]*ECI{}
)

func init() {
	for _, e := range []*ECI{
		Cp437, ISO8859_1, ISO8859_2, ISO8859_3, ISO8859_4, ISO8859_5,
		ISO8859_6, ISO8859_7, ISO8859_8, ISO8859_9, ISO8859_10, ISO8859_11,
		ISO8859_13, ISO8859_14, ISO8859_15, ISO8859_16, ShiftJIS, Cp1250,
		Cp1251, Cp1252, Cp1256, UTF16BE, UTF8, ASCII, Big5, GB18030, EUCKR,
	} {
		byValue[e.Value] = e
		byName[strings.ToUpper(e.Name)] = e
		for _, a := range e.Aliases {
			byName[strings.ToUpper(a)] = e
		}
	}
	// Legacy duplicates of the first assignments.
	byValue[2] = Cp437
	byValue[3] = ISO8859_1
	byValue[170] = ASCII
}

// ByValue returns the character set assigned to an ECI value.
func ByValue(value int) (*ECI, error) {
	if e, ok := byValue[value]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownECI, value)
}

// ByName looks up a character set by name or alias, ignoring case.
func ByName(name string) *ECI {
	return byName[strings.ToUpper(name)]
}

// Decode converts data in the named encoding to UTF-8. An empty name picks
// UTF-8 when data is valid UTF-8 and ISO-8859-1 otherwise.
func Decode(data []byte, name string) (string, error) {
	if name == "" {
		name = Guess(data)
	}
	e := ByName(name)
	if e == nil {
		return "", fmt.Errorf("charset: unsupported encoding %q", name)
	}
	if e.Encoding == nil {
		return string(data), nil
	}
	out, err := e.Encoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("charset: decoding %s: %w", e.Name, err)
	}
	return string(out), nil
}

// Guess names the most likely encoding of data.
func Guess(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return UTF16BE.Name
	}
	if utf8.Valid(data) {
		return UTF8.Name
	}
	return ISO8859_1.Name
}

package symscan

import (
	"fmt"
	"strings"

	"github.com/ericlevine/symscan/charset"
)

// Segment is one piece of a decoded payload. The concrete types are
// TextSegment, NumericSegment, Base256Segment and ControlSegment.
type Segment interface {
	segment()
	// Text is the segment's contribution to the payload string.
	Text() string
}

// TextSegment is plain text.
type TextSegment struct {
	Value string
}

// NumericSegment is a run of ASCII digits packed by the symbology.
type NumericSegment struct {
	Digits []byte
}

// Base256Segment is raw bytes with the text encoding that was in effect.
type Base256Segment struct {
	Bytes    []byte
	Encoding string
}

// ControlKind identifies a ControlSegment.
type ControlKind int

const (
	ControlSwitchEncoding ControlKind = iota
	ControlStructuredAppend
	ControlFNC1
	ControlReaderProgramming
	ControlMacro05
	ControlMacro06
)

var controlNames = [...]string{"switch-encoding", "structured-append", "fnc1", "reader-programming", "macro05", "macro06"}

func (k ControlKind) String() string {
	if int(k) < len(controlNames) {
		return controlNames[k]
	}
	return fmt.Sprintf("ControlKind(%d)", int(k))
}

// ControlSegment carries a symbol-level instruction rather than data.
type ControlSegment struct {
	Kind ControlKind
	// ECI is the new character set for ControlSwitchEncoding.
	ECI int
	// Part and Total locate the symbol in a structured append sequence,
	// Part counting from 1.
	Part, Total int
	FileID      int
}

func (TextSegment) segment()    {}
func (NumericSegment) segment() {}
func (Base256Segment) segment() {}
func (ControlSegment) segment() {}

func (s TextSegment) Text() string    { return s.Value }
func (s NumericSegment) Text() string { return string(s.Digits) }

// Text decodes the bytes with their encoding. Bytes that cannot be decoded
// are returned as Latin-1.
func (s Base256Segment) Text() string {
	text, err := charset.Decode(s.Bytes, s.Encoding)
	if err != nil {
		text, _ = charset.Decode(s.Bytes, charset.ISO8859_1.Name)
	}
	return text
}

// Text renders FNC1 as the GS separator and other controls as nothing.
func (s ControlSegment) Text() string {
	if s.Kind == ControlFNC1 {
		return "\x1d"
	}
	return ""
}

func (s ControlSegment) String() string {
	switch s.Kind {
	case ControlSwitchEncoding:
		return fmt.Sprintf("[eci %d]", s.ECI)
	case ControlStructuredAppend:
		return fmt.Sprintf("[part %d of %d]", s.Part, s.Total)
	}
	return "[" + s.Kind.String() + "]"
}

// Payload is the ordered content of a symbol.
type Payload []Segment

// String concatenates the text of every segment.
func (p Payload) String() string {
	var sb strings.Builder
	for _, s := range p {
		sb.WriteString(s.Text())
	}
	return sb.String()
}

// StructuredAppend returns the structured append control, if any.
func (p Payload) StructuredAppend() (ControlSegment, bool) {
	for _, s := range p {
		if c, ok := s.(ControlSegment); ok && c.Kind == ControlStructuredAppend {
			return c, true
		}
	}
	return ControlSegment{}, false
}

package bitutil

import (
	"errors"
	"fmt"
)

// ErrShortRead is returned when a read asks for more bits than remain.
var ErrShortRead = errors.New("bitutil: not enough bits")

// BitSource reads a byte slice as a stream of bits, most significant bit of
// each byte first.
type BitSource struct {
	data []byte
	pos  int // in bits
}

func NewBitSource(data []byte) *BitSource { return &BitSource{data: data} }

// ByteOffset returns the index of the byte holding the next bit.
func (s *BitSource) ByteOffset() int { return s.pos / 8 }

// BitOffset returns the position of the next bit within its byte.
func (s *BitSource) BitOffset() int { return s.pos % 8 }

// Available returns the number of unread bits.
func (s *BitSource) Available() int { return 8*len(s.data) - s.pos }

// ReadBits reads n bits, 1 <= n <= 32, into the low bits of the result.
func (s *BitSource) ReadBits(n int) (int, error) {
	if n < 1 || n > 32 {
		return 0, fmt.Errorf("bitutil: cannot read %d bits", n)
	}
	if n > s.Available() {
		return 0, fmt.Errorf("%w: want %d, have %d", ErrShortRead, n, s.Available())
	}
	v := 0
	for n > 0 {
		b := s.data[s.pos/8]
		off := s.pos % 8
		take := min(8-off, n)
		chunk := int(b>>(8-off-take)) & (1<<take - 1)
		v = v<<take | chunk
		s.pos += take
		n -= take
	}
	return v, nil
}

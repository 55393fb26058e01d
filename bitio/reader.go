// Package bitio implements the LSB-first bit stream primitives that
// the Vorbis setup and audio packet rewriters are built on: a bit
// reader over an arbitrary byte source, and a bit writer that packs
// bits into bytes for the Ogg page writer.
//
// Vorbis packets are bit-packed least-significant-bit first: the
// first bit read from a byte occupies its bit 0, and a multi-bit
// field's first-read bit lands in the result's bit 0 as well. This is
// the opposite convention from the page header's little-endian byte
// fields (see package oggstream), and the two are kept in separate
// types so the two conventions are never accidentally mixed.
package bitio

import (
	"io"

	"github.com/coconutbird/ww2ogg-core/werr"
)

// Reader produces bits least-significant-bit first from an underlying
// byte source.
type Reader struct {
	r        io.Reader
	cur      byte
	curBits  uint
	bitsRead int64
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// BitsRead returns the total number of bits consumed so far.
func (r *Reader) BitsRead() int64 { return r.bitsRead }

// ReadBit reads a single bit. It returns werr.ErrEndOfStream when the
// underlying source is exhausted.
func (r *Reader) ReadBit() (uint32, error) {
	if r.curBits == 0 {
		var b [1]byte
		n, err := io.ReadFull(r.r, b[:])
		if n == 0 || err != nil {
			return 0, werr.ErrEndOfStream
		}
		r.cur = b[0]
		r.curBits = 8
	}
	bit := uint32(r.cur & 1)
	r.cur >>= 1
	r.curBits--
	r.bitsRead++
	return bit, nil
}

// ReadBits reads n bits, 0 <= n <= 32, and returns them as a value
// whose bit 0 is the first bit read.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	var v uint32
	for i := uint(0); i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v |= bit << i
	}
	return v, nil
}

// ReadBool reads a single bit as a boolean.
func (r *Reader) ReadBool() (bool, error) {
	bit, err := r.ReadBit()
	if err != nil {
		return false, err
	}
	return bit != 0, nil
}

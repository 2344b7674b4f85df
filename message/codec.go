package message

import (
	"encoding/binary"
	"strings"

	"github.com/juju/errors"
)

// Reader consumes little endian fields from payload.
// First short read sets sticky error, later reads return zero values.
type Reader struct {
	b   []byte
	off int
	err error
}

func NewReader(b []byte) *Reader { return &Reader{b: b} }

func (r *Reader) Err() error     { return r.err }
func (r *Reader) Remaining() int { return len(r.b) - r.off }

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.err = errors.NotValidf("%s at offset=%d need=%d have=%d", what, r.off, n, r.Remaining())
		return nil
	}
	b := r.b[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	if b := r.take(1, "u8"); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) U16() uint16 {
	if b := r.take(2, "u16"); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) U32() uint32 {
	if b := r.take(4, "u32"); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// Vector reads u16 count then that many bytes. Returns copy.
func (r *Reader) Vector() []byte {
	n := int(r.U16())
	b := r.take(n, "vector")
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// Rest returns copy of remaining bytes.
func (r *Reader) Rest() []byte {
	b := r.take(r.Remaining(), "rest")
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// Chars reads remaining bytes as text, trailing NUL trimmed.
func (r *Reader) Chars() string {
	return strings.TrimRight(string(r.take(r.Remaining(), "chars")), "\x00")
}

// Writer appends little endian fields.
// Value not representable on wire sets sticky error, see Err.
type Writer struct {
	b   []byte
	err error
}

func (w *Writer) Bytes() []byte { return w.b }
func (w *Writer) Len() int      { return len(w.b) }
func (w *Writer) Err() error    { return w.err }

func (w *Writer) U8(x uint8) { w.b = append(w.b, x) }
func (w *Writer) U16(x uint16) {
	w.b = append(w.b, byte(x), byte(x>>8))
}
func (w *Writer) U32(x uint32) {
	w.b = append(w.b, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
}

// Vector writes u16 count prefix then b.
// Over 65535 bytes is written truncated and sets error.
func (w *Writer) Vector(b []byte) {
	if len(b) > 0xffff {
		if w.err == nil {
			w.err = errors.NotValidf("vector length=%d max=%d", len(b), 0xffff)
		}
		b = b[:0xffff]
	}
	w.U16(uint16(len(b)))
	w.b = append(w.b, b...)
}

func (w *Writer) Raw(b []byte)   { w.b = append(w.b, b...) }
func (w *Writer) Chars(s string) { w.b = append(w.b, s...) }

// Package wire implements forward read/write cursors over byte buffers for
// mog's fixed binary encodings: little-endian integers, length-prefixed
// strings, and 32-byte hashes, with explicit bounds checks at every step.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/javanhut/mog/internal/hash"
)

// ErrShortBuffer is wrapped into read errors when a cursor runs past the end
// of its backing buffer.
var ErrShortBuffer = fmt.Errorf("wire: short buffer")

// Reader is a forward-only cursor over a byte slice.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential reads starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("wire: need %d bytes at offset %d, have %d: %w", n, r.pos, len(r.buf)-r.pos, ErrShortBuffer)
	}
	return nil
}

// Bytes reads n raw bytes and advances the cursor. The returned slice aliases
// the backing buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// Hash reads a 32-byte hash.
func (r *Reader) Hash() (hash.Hash, error) {
	b, err := r.Bytes(hash.Size)
	if err != nil {
		return hash.Hash{}, err
	}
	var h hash.Hash
	copy(h[:], b)
	return h, nil
}

// ByteString reads a u32-length-prefixed byte string.
func (r *Reader) ByteString() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// String reads a u32-length-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	b, err := r.ByteString()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Writer accumulates bytes for a fixed binary encoding.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sized via capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// U64 appends a little-endian uint64.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// I64 appends a little-endian int64.
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// Hash appends a 32-byte hash verbatim.
func (w *Writer) Hash(h hash.Hash) { w.buf = append(w.buf, h[:]...) }

// ByteString appends a u32-length-prefixed byte string.
func (w *Writer) ByteString(b []byte) {
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// String appends a u32-length-prefixed UTF-8 string.
func (w *Writer) String(s string) { w.ByteString([]byte(s)) }

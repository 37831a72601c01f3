// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package encoding

import (
	"encoding/binary"
	"math/big"
	"unicode/utf8"
)

// Reader reads values in the canonical layout. Like [Writer], the first error
// is sticky and every later read returns a zero value.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Fail records an error if none has been recorded yet.
func (r *Reader) Fail(err error) {
	if r.err != nil || err == nil {
		return
	}
	if _, ok := err.(Error); !ok {
		err = Error{err}
	}
	r.err = err
}

func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Done returns the first error, or ErrTrailingData if the input was not fully
// consumed.
func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if n := r.Remaining(); n > 0 {
		return wrapf("%d bytes: %w", n, ErrTrailingData)
	}
	return nil
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.Fail(wrapf("want %d bytes at offset %d, have %d: %w", n, r.off, r.Remaining(), ErrNotEnoughData))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadU8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadBool() bool {
	switch v := r.ReadU8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.Fail(wrapf("%d is not a valid boolean: %w", v, ErrInvalidTag))
		return false
	}
}

func (r *Reader) ReadU32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) ReadU64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadU128 reads a 16-byte little-endian integer.
func (r *Reader) ReadU128() *big.Int {
	b := r.next(16)
	if b == nil {
		return nil
	}
	be := make([]byte, 16)
	for i := range be {
		be[i] = b[15-i]
	}
	v := new(big.Int).SetBytes(be)
	if v.Sign() == 0 {
		return new(big.Int)
	}
	return v
}

// ReadFixed reads exactly len(v) bytes into v.
func (r *Reader) ReadFixed(v []byte) {
	b := r.next(len(v))
	if b != nil {
		copy(v, b)
	}
}

// ReadLen reads a u32 length prefix. The length is checked against the
// remaining input so that a corrupt prefix cannot trigger a huge allocation.
func (r *Reader) ReadLen() int {
	n := r.ReadU32()
	if r.err != nil {
		return 0
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.Fail(wrapf("length %d exceeds remaining %d: %w", n, r.Remaining(), ErrNotEnoughData))
		return 0
	}
	return int(n)
}

// ReadBytes reads a length-prefixed byte slice. The result is a copy, or nil
// if the slice is empty.
func (r *Reader) ReadBytes() []byte {
	n := r.ReadLen()
	b := r.next(n)
	if len(b) == 0 {
		return nil
	}
	u := make([]byte, n)
	copy(u, b)
	return u
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() string {
	b := r.ReadBytes()
	if r.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.Fail(ErrInvalidUTF8)
		return ""
	}
	return string(b)
}

// ReadValue reads a nested value.
func (r *Reader) ReadValue(v BinaryReaderFrom) {
	if r.err != nil {
		return
	}
	v.ReadBinary(r)
}

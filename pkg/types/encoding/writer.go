// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package encoding

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"
)

// Writer writes values in the canonical layout. The first error is sticky;
// subsequent writes are ignored and the error is reported by Bytes.
type Writer struct {
	buf bytes.Buffer
	err error
}

func NewWriter() *Writer {
	return new(Writer)
}

// Fail records an error if none has been recorded yet.
func (w *Writer) Fail(err error) {
	if w.err != nil || err == nil {
		return
	}
	if _, ok := err.(Error); !ok {
		err = Error{err}
	}
	w.err = err
}

func (w *Writer) Err() error { return w.err }

// Bytes returns the encoded bytes, or the first error.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

func (w *Writer) WriteU8(v uint8) {
	if w.err != nil {
		return
	}
	w.buf.WriteByte(v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteU32(v uint32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteU64(v uint64) {
	if w.err != nil {
		return
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteU128 writes v as a 16-byte little-endian integer. A nil value is
// written as zero.
func (w *Writer) WriteU128(v *big.Int) {
	if w.err != nil {
		return
	}
	b, err := U128Bytes(v)
	if err != nil {
		w.Fail(err)
		return
	}
	w.buf.Write(b[:])
}

// WriteFixed writes b without a length prefix.
func (w *Writer) WriteFixed(b []byte) {
	if w.err != nil {
		return
	}
	w.buf.Write(b)
}

// WriteLen writes a u32 length prefix.
func (w *Writer) WriteLen(n int) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		w.Fail(wrapf("length %d: %w", n, ErrOverflow))
		return
	}
	w.WriteU32(uint32(n))
}

// WriteBytes writes a u32 length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteLen(len(b))
	w.WriteFixed(b)
}

// WriteString writes a u32 length prefix followed by the UTF-8 bytes of s.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// WriteValue writes a nested value.
func (w *Writer) WriteValue(v BinaryWriterTo) {
	if w.err != nil {
		return
	}
	v.WriteBinary(w)
}

// U128Bytes converts v to a 16-byte little-endian array. Negative values and
// values of 2^128 or more are rejected.
func U128Bytes(v *big.Int) ([16]byte, error) {
	var b [16]byte
	if v == nil {
		return b, nil
	}
	if v.Sign() < 0 {
		return b, Error{ErrNegative}
	}
	if v.BitLen() > 128 {
		return b, wrapf("u128: %w", ErrOverflow)
	}
	be := v.FillBytes(make([]byte, 16))
	for i := range be {
		b[i] = be[15-i]
	}
	return b, nil
}

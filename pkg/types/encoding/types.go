// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package encoding implements the canonical little-endian, length-prefixed
// binary layout (Borsh) used for transactions and signatures.
package encoding

import (
	"errors"
	"fmt"
)

var ErrNotEnoughData = errors.New("not enough data")
var ErrOverflow = errors.New("overflow")
var ErrNegative = errors.New("negative value")
var ErrTrailingData = errors.New("trailing data")
var ErrInvalidUTF8 = errors.New("invalid UTF-8")
var ErrInvalidTag = errors.New("invalid tag")

// Error marks an error as originating in the encoder or decoder.
type Error struct {
	E error
}

func (e Error) Error() string { return e.E.Error() }
func (e Error) Unwrap() error { return e.E }

func wrapf(format string, args ...any) Error {
	return Error{fmt.Errorf(format, args...)}
}

// BinaryWriterTo is implemented by values with a canonical binary encoding.
type BinaryWriterTo interface {
	WriteBinary(*Writer)
}

// BinaryReaderFrom is implemented by values that can decode their canonical
// binary encoding.
type BinaryReaderFrom interface {
	ReadBinary(*Reader)
}

// Marshal encodes v.
func Marshal(v BinaryWriterTo) ([]byte, error) {
	w := NewWriter()
	v.WriteBinary(w)
	return w.Bytes()
}

// Unmarshal decodes b into v. All of b must be consumed.
func Unmarshal(b []byte, v BinaryReaderFrom) error {
	r := NewReader(b)
	v.ReadBinary(r)
	return r.Done()
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"crypto/sha256"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
)

// Hash is a 32-byte digest. Block and transaction hashes are rendered in
// base58.
type Hash [sha256.Size]byte

// ParseHash decodes a base58 hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := base58.Decode(s)
	if err != nil {
		return h, errors.EncodingError.WithFormat("invalid hash %q: %w", s, err)
	}
	if len(b) != len(h) {
		return h, errors.EncodingError.WithFormat("invalid hash %q: want %d bytes, got %d", s, len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return base58.Encode(h[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(b []byte) error {
	v, err := ParseHash(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// NewValidator returns a validator with the near-account tag registered.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("near-account", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			panic(fmt.Errorf("%q is not a string", fl.FieldName()))
		}

		s := fl.Field().String()
		if len(s) == 0 {
			// allow empty
			return true
		}

		return AccountID(s).IsValid()
	})
	return v, err
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/types/encoding"
)

// KeyType is the curve of a public key or signature. It is encoded as the
// leading byte of both.
type KeyType uint8

const (
	KeyTypeED25519   KeyType = 0
	KeyTypeSECP256K1 KeyType = 1
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeED25519:
		return "ed25519"
	case KeyTypeSECP256K1:
		return "secp256k1"
	default:
		return fmt.Sprintf("KeyType(%d)", uint8(t))
	}
}

// KeyTypeByName returns the key type with the given name.
func KeyTypeByName(name string) (KeyType, bool) {
	switch strings.ToLower(name) {
	case "ed25519":
		return KeyTypeED25519, true
	case "secp256k1":
		return KeyTypeSECP256K1, true
	default:
		return 0, false
	}
}

// PublicKey is an ed25519 public key. Only ed25519 keys can be encoded.
type PublicKey struct {
	Type KeyType
	Data [ed25519.PublicKeySize]byte
}

// PublicKeyFromEd25519 converts a stdlib key.
func PublicKeyFromEd25519(key ed25519.PublicKey) (PublicKey, error) {
	var pk PublicKey
	if len(key) != ed25519.PublicKeySize {
		return pk, errors.BadRequest.WithFormat("invalid ed25519 public key length %d", len(key))
	}
	pk.Type = KeyTypeED25519
	copy(pk.Data[:], key)
	return pk, nil
}

// ParsePublicKey parses "ed25519:<base58>". A missing prefix implies ed25519.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	data := s
	if name, rest, ok := strings.Cut(s, ":"); ok {
		typ, ok := KeyTypeByName(name)
		if !ok {
			return pk, errors.BadRequest.WithFormat("unknown key type %q", name)
		}
		if typ != KeyTypeED25519 {
			return pk, errors.BadRequest.WithFormat("unsupported key type %v", typ)
		}
		data = rest
	}

	b, err := base58.Decode(data)
	if err != nil {
		return pk, errors.BadRequest.WithFormat("invalid public key %q: %w", s, err)
	}
	return PublicKeyFromEd25519(b)
}

// IsZero returns true if the key is unset.
func (k PublicKey) IsZero() bool {
	return k.Data == [ed25519.PublicKeySize]byte{}
}

func (k PublicKey) Equal(l PublicKey) bool {
	return k.Type == l.Type && k.Data == l.Data
}

// String formats the key as "ed25519:<base58>".
func (k PublicKey) String() string {
	return k.Type.String() + ":" + base58.Encode(k.Data[:])
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(b []byte) error {
	pk, err := ParsePublicKey(string(b))
	if err != nil {
		return err
	}
	*k = pk
	return nil
}

func (k PublicKey) WriteBinary(w *encoding.Writer) {
	if k.Type != KeyTypeED25519 {
		w.Fail(fmt.Errorf("public key type %v is not supported", k.Type))
		return
	}
	w.WriteU8(uint8(k.Type))
	w.WriteFixed(k.Data[:])
}

func (k *PublicKey) ReadBinary(r *encoding.Reader) {
	k.Type = KeyType(r.ReadU8())
	if r.Err() == nil && k.Type != KeyTypeED25519 {
		r.Fail(fmt.Errorf("public key type %v is not supported: %w", k.Type, encoding.ErrInvalidTag))
		return
	}
	r.ReadFixed(k.Data[:])
}

// Signature is an ed25519 signature.
type Signature struct {
	Type KeyType
	Data [ed25519.SignatureSize]byte
}

func (s Signature) String() string {
	return s.Type.String() + ":" + base58.Encode(s.Data[:])
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Signature) WriteBinary(w *encoding.Writer) {
	if s.Type != KeyTypeED25519 {
		w.Fail(fmt.Errorf("signature type %v is not supported", s.Type))
		return
	}
	w.WriteU8(uint8(s.Type))
	w.WriteFixed(s.Data[:])
}

func (s *Signature) ReadBinary(r *encoding.Reader) {
	s.Type = KeyType(r.ReadU8())
	if r.Err() == nil && s.Type != KeyTypeED25519 {
		r.Fail(fmt.Errorf("signature type %v is not supported: %w", s.Type, encoding.ErrInvalidTag))
		return
	}
	r.ReadFixed(s.Data[:])
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package signing

import (
	"crypto/ed25519"
	"io"
	"strings"

	"github.com/mr-tron/base58"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Signer is a key pair that can sign transaction hashes.
type Signer interface {
	PublicKey() (protocol.PublicKey, error)
	SignHash(hash []byte) (protocol.Signature, error)
}

// PrivateKey is an ed25519 private key, either the 64-byte seed and public key
// form or a bare 32-byte seed.
type PrivateKey []byte

var _ Signer = PrivateKey(nil)

// GenerateKey generates a new key pair. If rand is nil, crypto/rand is used.
func GenerateKey(rand io.Reader) (PrivateKey, error) {
	_, sk, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, errors.SigningError.WithFormat("generate key: %w", err)
	}
	return PrivateKey(sk), nil
}

// ParsePrivateKey parses "ed25519:<base58>". A missing prefix implies ed25519.
func ParsePrivateKey(s string) (PrivateKey, error) {
	data := s
	if name, rest, ok := strings.Cut(s, ":"); ok {
		typ, ok := protocol.KeyTypeByName(name)
		if !ok || typ != protocol.KeyTypeED25519 {
			return nil, errors.SigningError.WithFormat("unsupported key type %q", name)
		}
		data = rest
	}

	b, err := base58.Decode(data)
	if err != nil {
		return nil, errors.SigningError.WithFormat("invalid private key: %w", err)
	}

	k := PrivateKey(b)
	if _, err := k.key(); err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	return k, nil
}

// key returns the expanded stdlib key, verifying that the embedded public key
// matches the seed.
func (k PrivateKey) key() (ed25519.PrivateKey, error) {
	switch len(k) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(k), nil

	case ed25519.PrivateKeySize:
		sk := ed25519.NewKeyFromSeed(k[:ed25519.SeedSize])
		if !sk.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(k[ed25519.SeedSize:])) {
			return nil, errors.SigningError.With("private key does not match its public key")
		}
		return sk, nil

	default:
		return nil, errors.SigningError.WithFormat("invalid ed25519 private key length %d", len(k))
	}
}

func (k PrivateKey) PublicKey() (protocol.PublicKey, error) {
	sk, err := k.key()
	if err != nil {
		return protocol.PublicKey{}, err
	}
	pk, err := protocol.PublicKeyFromEd25519(sk.Public().(ed25519.PublicKey))
	if err != nil {
		return protocol.PublicKey{}, errors.SigningError.Wrap(err)
	}
	return pk, nil
}

// SignHash signs the hash. Ed25519 is deterministic so the same hash always
// yields the same signature.
func (k PrivateKey) SignHash(hash []byte) (protocol.Signature, error) {
	var sig protocol.Signature
	sk, err := k.key()
	if err != nil {
		return sig, err
	}
	sig.Type = protocol.KeyTypeED25519
	copy(sig.Data[:], ed25519.Sign(sk, hash))
	return sig, nil
}

// String formats the key as "ed25519:<base58>" using the 64-byte form.
func (k PrivateKey) String() string {
	sk, err := k.key()
	if err != nil {
		return "ed25519:(invalid)"
	}
	return protocol.KeyTypeED25519.String() + ":" + base58.Encode(sk)
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package signing

import (
	"crypto/ed25519"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Sign encodes the transaction, hashes the encoding, and signs the hash. The
// signer's public key must be the transaction's public key.
//
// Sign fails with [errors.EncodingError] if the transaction cannot be encoded
// and with [errors.SigningError] if the key pair is malformed or does not
// match.
func Sign(txn *protocol.Transaction, signer Signer) (*protocol.SignedTransaction, error) {
	if txn == nil {
		return nil, errors.BadRequest.With("missing transaction")
	}
	if signer == nil {
		return nil, errors.SigningError.With("missing signer")
	}

	hash, err := txn.Hash()
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}

	pk, err := signer.PublicKey()
	if err != nil {
		return nil, errors.SigningError.Wrap(err)
	}
	if !pk.Equal(txn.PublicKey) {
		return nil, errors.SigningError.WithFormat("signer key %v does not match transaction key %v", pk, txn.PublicKey)
	}

	sig, err := signer.SignHash(hash[:])
	if err != nil {
		return nil, errors.SigningError.Wrap(err)
	}

	return &protocol.SignedTransaction{Transaction: txn, Signature: sig}, nil
}

// Verify checks the signature of a signed transaction against its public key.
func Verify(st *protocol.SignedTransaction) error {
	if st == nil || st.Transaction == nil {
		return errors.BadRequest.With("missing transaction")
	}

	hash, err := st.Hash()
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}

	pk := st.Transaction.PublicKey
	if pk.Type != protocol.KeyTypeED25519 || st.Signature.Type != protocol.KeyTypeED25519 {
		return errors.SigningError.WithFormat("unsupported key type %v", pk.Type)
	}
	if !ed25519.Verify(pk.Data[:], hash[:], st.Signature.Data[:]) {
		return errors.SigningError.With("invalid signature")
	}
	return nil
}

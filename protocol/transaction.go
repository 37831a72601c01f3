// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"crypto/sha256"
	"fmt"
	"math"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/types/encoding"
)

// Transaction is an unsigned transaction. Fields are encoded in declaration
// order.
type Transaction struct {
	SignerID   AccountID
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID AccountID
	Actions    []Action
	BlockHash  Hash
}

func (t *Transaction) WriteBinary(w *encoding.Writer) {
	w.WriteString(string(t.SignerID))
	w.WriteValue(t.PublicKey)
	w.WriteU64(t.Nonce)
	w.WriteString(string(t.ReceiverID))
	if len(t.Actions) > math.MaxUint32 {
		w.Fail(fmt.Errorf("too many actions: %d", len(t.Actions)))
		return
	}
	w.WriteU32(uint32(len(t.Actions)))
	for _, a := range t.Actions {
		writeAction(w, a)
	}
	w.WriteFixed(t.BlockHash[:])
}

func (t *Transaction) ReadBinary(r *encoding.Reader) {
	t.SignerID = AccountID(r.ReadString())
	r.ReadValue(&t.PublicKey)
	t.Nonce = r.ReadU64()
	t.ReceiverID = AccountID(r.ReadString())

	// Every action is at least one byte
	n := r.ReadU32()
	if r.Err() != nil {
		return
	}
	if int64(n) > int64(r.Remaining()) {
		r.Fail(fmt.Errorf("action count %d exceeds remaining data: %w", n, encoding.ErrNotEnoughData))
		return
	}

	t.Actions = make([]Action, 0, n)
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		a := readAction(r)
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
	r.ReadFixed(t.BlockHash[:])
}

// MarshalBinary returns the canonical encoding of the transaction. Encoding
// failures are reported as [errors.EncodingError].
func (t *Transaction) MarshalBinary() ([]byte, error) {
	b, err := encoding.Marshal(t)
	if err != nil {
		return nil, errors.EncodingError.WithFormat("encode transaction: %w", err)
	}
	return b, nil
}

func (t *Transaction) UnmarshalBinary(b []byte) error {
	err := encoding.Unmarshal(b, t)
	if err != nil {
		return errors.EncodingError.WithFormat("decode transaction: %w", err)
	}
	return nil
}

// Hash returns the SHA-256 of the canonical encoding. This is both the
// transaction ID and the message that is signed.
func (t *Transaction) Hash() (Hash, error) {
	b, err := t.MarshalBinary()
	if err != nil {
		return Hash{}, errors.UnknownError.Wrap(err)
	}
	return sha256.Sum256(b), nil
}

// SignedTransaction is a transaction with the signature of its hash. The
// encoding is the transaction followed by the signature.
type SignedTransaction struct {
	Transaction *Transaction
	Signature   Signature
}

func (s *SignedTransaction) WriteBinary(w *encoding.Writer) {
	if s.Transaction == nil {
		w.Fail(fmt.Errorf("missing transaction"))
		return
	}
	w.WriteValue(s.Transaction)
	w.WriteValue(s.Signature)
}

func (s *SignedTransaction) ReadBinary(r *encoding.Reader) {
	s.Transaction = new(Transaction)
	r.ReadValue(s.Transaction)
	r.ReadValue(&s.Signature)
}

func (s *SignedTransaction) MarshalBinary() ([]byte, error) {
	b, err := encoding.Marshal(s)
	if err != nil {
		return nil, errors.EncodingError.WithFormat("encode signed transaction: %w", err)
	}
	return b, nil
}

func (s *SignedTransaction) UnmarshalBinary(b []byte) error {
	err := encoding.Unmarshal(b, s)
	if err != nil {
		return errors.EncodingError.WithFormat("decode signed transaction: %w", err)
	}
	return nil
}

// Hash returns the hash of the inner transaction.
func (s *SignedTransaction) Hash() (Hash, error) {
	if s.Transaction == nil {
		return Hash{}, errors.BadRequest.With("missing transaction")
	}
	return s.Transaction.Hash()
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package nonce allocates the nonces of a batch of transactions that share an
// access key.
package nonce

import (
	"math"
	"sync"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Allocate returns [base+1, ..., base+count]. It fails with
// [errors.SequencingError] if count is zero or the range overflows.
func Allocate(base uint64, count uint32) ([]uint64, error) {
	if count == 0 {
		return nil, errors.SequencingError.With("cannot allocate zero nonces")
	}
	if base > math.MaxUint64-uint64(count) {
		return nil, errors.SequencingError.WithFormat("allocating %d nonces after %d overflows", count, base)
	}

	nonces := make([]uint64, count)
	for i := range nonces {
		nonces[i] = base + uint64(i) + 1
	}
	return nonces, nil
}

type keyID struct {
	account protocol.AccountID
	key     protocol.PublicKey
}

// issue records the last allocation for an access key and the key state it
// was allocated against.
type issue struct {
	last   uint64
	height uint64
	block  protocol.Hash
}

// Sequencer tracks the nonces it has issued per access key so that allocating
// twice against the same resolved state is detected instead of producing
// overlapping ranges. A Sequencer is safe for concurrent use.
type Sequencer struct {
	mu     sync.Mutex
	issued map[keyID]issue
}

func NewSequencer() *Sequencer {
	return &Sequencer{issued: map[keyID]issue{}}
}

// Allocate allocates count nonces after the access key's nonce. It fails with
// [errors.SequencingError] if the range overlaps one issued previously against
// the same or an older key state, which happens when the key state was not
// resolved again after the last batch. A key state read at a later block is
// authoritative, so nonces lost in transit can be allocated again.
func (s *Sequencer) Allocate(key *protocol.AccessKey, count uint32) ([]uint64, error) {
	if key == nil {
		return nil, errors.BadRequest.With("missing access key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := keyID{key.AccountID, key.PublicKey}
	if prev, ok := s.issued[id]; ok && key.Nonce < prev.last && !prev.supersededBy(key) {
		return nil, errors.SequencingError.WithFormat("nonces up to %d were already issued for %v of %v against block %d but the access key nonce is %d at block %d; resolve the access key again",
			prev.last, key.PublicKey, key.AccountID, prev.height, key.Nonce, key.BlockHeight)
	}

	nonces, err := Allocate(key.Nonce, count)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	s.issued[id] = issue{
		last:   nonces[len(nonces)-1],
		height: key.BlockHeight,
		block:  key.BlockHash,
	}
	return nonces, nil
}

// supersededBy returns true if key was read at a later block than the one the
// allocation was made against.
func (i issue) supersededBy(key *protocol.AccessKey) bool {
	return key.BlockHeight > i.height && key.BlockHash != i.block
}

// Issued returns the highest nonce issued for the access key.
func (s *Sequencer) Issued(account protocol.AccountID, key protocol.PublicKey) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.issued[keyID{account, key}]
	return v.last, ok
}

// Forget discards the record for the access key, for example after the
// caller has abandoned a batch that was never broadcast.
func (s *Sequencer) Forget(account protocol.AccountID, key protocol.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.issued, keyID{account, key})
}

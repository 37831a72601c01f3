// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package batch_test

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api"
	. "gitlab.com/accumulatenetwork/nearbatch/pkg/batch"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/build"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, txn *protocol.SignedTransaction, opts api.SubmitOptions) (*api.Submission, error) {
	args := m.Called(ctx, txn, opts)
	sub, _ := args.Get(0).(*api.Submission)
	return sub, args.Error(1)
}

func testKey(seed string) signing.PrivateKey {
	h := sha256.Sum256([]byte(seed))
	return signing.PrivateKey(ed25519.NewKeyFromSeed(h[:]))
}

func signedCalls(t *testing.T, key signing.PrivateKey, nonces ...uint64) []*protocol.SignedTransaction {
	var txns []*protocol.SignedTransaction
	for _, nonce := range nonces {
		st, err := build.Transaction().
			WithSigner("alice.testnet").
			WithPublicKey(key).
			WithReceiver("guest-book.testnet").
			WithNonce(nonce).
			WithBlockHash(sha256.Sum256([]byte("block"))).
			FunctionCall("addMessage", map[string]any{"text": "hi"}, 30*protocol.TeraGas, 0).
			SignWith(key)
		require.NoError(t, err)
		txns = append(txns, st)
	}
	return txns
}

func hashOf(t *testing.T, st *protocol.SignedTransaction) protocol.Hash {
	h, err := st.Hash()
	require.NoError(t, err)
	return h
}

func TestSubmitAllIsolatesFailures(t *testing.T) {
	txns := signedCalls(t, testKey("alice"), 6, 7)

	s := new(mockSubmitter)
	s.On("Submit", mock.Anything, txns[0], mock.Anything).Return(&api.Submission{Success: true, Message: "executed"}, nil)
	s.On("Submit", mock.Anything, txns[1], mock.Anything).Return(nil, errors.NetworkError.With("connection reset"))

	b := &Broadcaster{Submitter: s, Logger: logging.NewTestLogger(t)}
	outcomes := b.SubmitAll(context.Background(), txns)
	s.AssertExpectations(t)

	require.Len(t, outcomes, 2)
	require.Equal(t, StatusAccepted, outcomes[0].Status)
	require.Equal(t, StatusNetworkError, outcomes[1].Status)
	for i, o := range outcomes {
		require.Equal(t, i, o.Index)
		require.Equal(t, hashOf(t, txns[i]), o.TxHash)
	}
	require.ErrorIs(t, outcomes[1].Err, errors.NetworkError)
	require.NotEqual(t, outcomes[0].TxHash, outcomes[1].TxHash)
}

func TestSubmitAllClassifiesOutcomes(t *testing.T) {
	txns := signedCalls(t, testKey("alice"), 1, 2, 3, 4)

	s := new(mockSubmitter)
	s.On("Submit", mock.Anything, txns[0], mock.Anything).Return(&api.Submission{Success: true}, nil)
	s.On("Submit", mock.Anything, txns[1], mock.Anything).Return(nil, errors.Rejected.With("InvalidNonce"))
	s.On("Submit", mock.Anything, txns[2], mock.Anything).Return(&api.Submission{Success: false, Message: "failed: ActionError"}, nil)
	s.On("Submit", mock.Anything, txns[3], mock.Anything).Return(nil, nil)

	outcomes := (&Broadcaster{Submitter: s}).SubmitAll(context.Background(), append(txns, nil))
	require.Len(t, outcomes, 5)
	require.Equal(t, StatusAccepted, outcomes[0].Status)
	require.Equal(t, StatusRejected, outcomes[1].Status)
	require.Equal(t, StatusRejected, outcomes[2].Status)
	require.Equal(t, "failed: ActionError", outcomes[2].Detail)
	require.Equal(t, StatusNetworkError, outcomes[3].Status)
	require.Equal(t, StatusRejected, outcomes[4].Status)
	require.Equal(t, 4, outcomes[4].Index)

	counts := Counts(outcomes)
	require.Equal(t, map[Status]int{StatusAccepted: 1, StatusRejected: 3, StatusNetworkError: 1}, counts)
}

func TestSubmitAllPassesMode(t *testing.T) {
	txns := signedCalls(t, testKey("alice"), 1)

	s := new(mockSubmitter)
	s.On("Submit", mock.Anything, txns[0], api.SubmitOptions{Mode: api.SubmitModeAsync}).Return(&api.Submission{Success: true}, nil)

	outcomes := (&Broadcaster{Submitter: s, Mode: api.SubmitModeAsync}).SubmitAll(context.Background(), txns)
	s.AssertExpectations(t)
	require.Equal(t, StatusAccepted, outcomes[0].Status)
}

func TestSubmitTimeoutIsPerTransaction(t *testing.T) {
	txns := signedCalls(t, testKey("alice"), 1, 2)

	s := new(mockSubmitter)
	s.On("Submit", mock.Anything, txns[0], mock.Anything).Return(&api.Submission{Success: true}, nil)
	s.On("Submit", mock.Anything, txns[1], mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(nil, errors.NetworkError.With("timed out"))

	b := &Broadcaster{Submitter: s, SubmitTimeout: 50 * time.Millisecond}
	outcomes := b.SubmitAll(context.Background(), txns)
	require.Equal(t, StatusAccepted, outcomes[0].Status)
	require.Equal(t, StatusNetworkError, outcomes[1].Status)
}

type countingSubmitter struct {
	current, max atomic.Int32
}

func (c *countingSubmitter) Submit(context.Context, *protocol.SignedTransaction, api.SubmitOptions) (*api.Submission, error) {
	n := c.current.Add(1)
	defer c.current.Add(-1)
	for {
		m := c.max.Load()
		if n <= m || c.max.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return &api.Submission{Success: true}, nil
}

func TestMaxInFlight(t *testing.T) {
	txns := signedCalls(t, testKey("alice"), 1, 2, 3, 4, 5, 6, 7, 8)

	s := new(countingSubmitter)
	outcomes := (&Broadcaster{Submitter: s, MaxInFlight: 2}).SubmitAll(context.Background(), txns)
	require.Len(t, outcomes, len(txns))
	for _, o := range outcomes {
		require.Equal(t, StatusAccepted, o.Status)
	}
	require.LessOrEqual(t, s.max.Load(), int32(2))
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package batch_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api/jsonrpc"
	. "gitlab.com/accumulatenetwork/nearbatch/pkg/batch"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/nonce"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
	"gitlab.com/accumulatenetwork/nearbatch/test/nearsim"
)

const alice protocol.AccountID = "alice.testnet"

func addMessage(text string) *Request {
	return &Request{
		Receiver: "guest-book.testnet",
		Actions: []protocol.Action{&protocol.FunctionCall{
			MethodName: "addMessage",
			Args:       []byte(`{"text":"` + text + `"}`),
			Gas:        30 * protocol.TeraGas,
			Deposit:    big.NewInt(0),
		}},
	}
}

func setupPipeline(t *testing.T, base uint64, perm protocol.Permission) (*nearsim.Simulator, *Pipeline) {
	pk, err := testKey("alice").PublicKey()
	require.NoError(t, err)

	sim := nearsim.New()
	sim.Logger = logging.NewTestLogger(t)
	sim.AddKey(alice, pk, base, perm)

	client := jsonrpc.NewClient(sim.Server(t))
	logger := logging.NewTestLogger(t)
	return sim, &Pipeline{
		Resolver:    client,
		Broadcaster: &Broadcaster{Submitter: client, Logger: logger},
		Sequencer:   nonce.NewSequencer(),
		Logger:      logger,
	}
}

func TestPipeline(t *testing.T) {
	sim, p := setupPipeline(t, 5, protocol.FullAccess())

	result, err := p.Run(context.Background(), alice, testKey("alice"), []*Request{
		addMessage("first"),
		addMessage("second"),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(5), result.AccessKey.Nonce)
	require.Equal(t, []uint64{6, 7}, result.Nonces)

	require.Len(t, result.Outcomes, 2)
	for i, o := range result.Outcomes {
		require.Equal(t, i, o.Index)
		require.Equal(t, StatusAccepted, o.Status, o.Detail)
		require.Equal(t, result.Nonces[i], result.Transactions[i].Transaction.Nonce)
		require.Equal(t, hashOf(t, result.Transactions[i]), o.TxHash)

		_, ok := sim.Transaction(o.TxHash)
		require.True(t, ok)
	}
	require.NotEqual(t, result.Outcomes[0].TxHash, result.Outcomes[1].TxHash)

	pk, _ := testKey("alice").PublicKey()
	n, _ := sim.Nonce(alice, pk)
	require.Equal(t, uint64(7), n)
}

func TestPipelineSecondSubmissionFails(t *testing.T) {
	sim, p := setupPipeline(t, 5, protocol.FullAccess())
	sim.SetHook(jsonrpc.MethodBroadcastTxCommit, nearsim.FailNonce(7, errors.NetworkError.With("connection reset")))

	result, err := p.Run(context.Background(), alice, testKey("alice"), []*Request{
		addMessage("first"),
		addMessage("second"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Outcomes[0].Status)
	require.Equal(t, StatusNetworkError, result.Outcomes[1].Status)
}

func TestPipelineRecoversFromLostTransaction(t *testing.T) {
	sim, p := setupPipeline(t, 5, protocol.FullAccess())
	sim.SetHook(jsonrpc.MethodBroadcastTxCommit, nearsim.FailNonce(7, errors.NetworkError.With("connection reset")))

	result, err := p.Run(context.Background(), alice, testKey("alice"), []*Request{addMessage("a"), addMessage("b")})
	require.NoError(t, err)
	require.Equal(t, StatusNetworkError, result.Outcomes[1].Status)

	// The node reports nonce 6 at a later block, so nonce 7 is reused
	sim.SetHook(jsonrpc.MethodBroadcastTxCommit, nil)
	result, err = p.Run(context.Background(), alice, testKey("alice"), []*Request{addMessage("b")})
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, result.Nonces)
	require.Equal(t, StatusAccepted, result.Outcomes[0].Status, result.Outcomes[0].Detail)
}

func TestPipelineRunsAgainstFreshState(t *testing.T) {
	_, p := setupPipeline(t, 0, protocol.FullAccess())

	for i := 0; i < 3; i++ {
		result, err := p.Run(context.Background(), alice, testKey("alice"), []*Request{addMessage("a"), addMessage("b")})
		require.NoError(t, err)
		require.Equal(t, []uint64{uint64(2*i + 1), uint64(2*i + 2)}, result.Nonces)
		require.Equal(t, map[Status]int{StatusAccepted: 2}, Counts(result.Outcomes))
	}
}

func TestPipelineAbortsBeforeBroadcast(t *testing.T) {
	sim, p := setupPipeline(t, 5, protocol.FullAccess())
	pk, _ := testKey("alice").PublicKey()

	// The second request is invalid so nothing is broadcast
	bad := addMessage("bad")
	bad.Actions[0].(*protocol.FunctionCall).Gas = 0
	_, err := p.Run(context.Background(), alice, testKey("alice"), []*Request{addMessage("ok"), bad})
	require.ErrorIs(t, err, errors.ValidationError)

	n, _ := sim.Nonce(alice, pk)
	require.Equal(t, uint64(5), n)
	_, ok := p.Sequencer.Issued(alice, pk)
	require.False(t, ok)

	_, err = p.Run(context.Background(), alice, testKey("alice"), []*Request{{Receiver: "guest-book.testnet"}})
	require.ErrorIs(t, err, errors.ValidationError)

	_, err = p.Run(context.Background(), alice, testKey("alice"), nil)
	require.ErrorIs(t, err, errors.BadRequest)
}

func TestPipelineUnknownKey(t *testing.T) {
	_, p := setupPipeline(t, 5, protocol.FullAccess())

	_, err := p.Run(context.Background(), alice, testKey("bob"), []*Request{addMessage("hi")})
	require.ErrorIs(t, err, errors.NotFound)
}

func TestPipelineStaleState(t *testing.T) {
	_, p := setupPipeline(t, 5, protocol.FullAccess())
	pk, _ := testKey("alice").PublicKey()
	key, err := p.Resolver.ResolveAccessKey(context.Background(), alice, pk)
	require.NoError(t, err)

	_, err = p.Sequencer.Allocate(key, 2)
	require.NoError(t, err)

	// The node has not seen nonces 6 and 7 so the resolved nonce is still 5
	_, err = p.Run(context.Background(), alice, testKey("alice"), []*Request{addMessage("hi")})
	require.ErrorIs(t, err, errors.SequencingError)
}

func TestPipelinePolicy(t *testing.T) {
	perm := protocol.Permission{
		Kind:        protocol.PermissionFunctionCall,
		ReceiverID:  "guest-book.testnet",
		MethodNames: []string{"addMessage"},
	}

	_, p := setupPipeline(t, 0, perm)
	p.Policy = RequireFullAccess
	_, err := p.Run(context.Background(), alice, testKey("alice"), []*Request{addMessage("hi")})
	require.ErrorIs(t, err, errors.Unauthorized)

	p.Policy = AllowFunctionCalls
	result, err := p.Run(context.Background(), alice, testKey("alice"), []*Request{addMessage("hi")})
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Outcomes[0].Status)

	transfer := &Request{Receiver: "guest-book.testnet", Actions: []protocol.Action{&protocol.Transfer{Deposit: big.NewInt(1)}}}
	_, err = p.Run(context.Background(), alice, testKey("alice"), []*Request{transfer})
	require.ErrorIs(t, err, errors.Unauthorized)
}

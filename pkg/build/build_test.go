// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package build_test

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	. "gitlab.com/accumulatenetwork/nearbatch/pkg/build"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

func testKey() signing.PrivateKey {
	h := sha256.Sum256([]byte("alice"))
	return signing.PrivateKey(ed25519.NewKeyFromSeed(h[:]))
}

func template(t *testing.T) TransactionBuilder {
	return Transaction().
		WithSigner("alice.testnet").
		WithPublicKey(testKey()).
		WithReceiver("guest-book.testnet").
		WithNonce(6).
		WithBlockHash(sha256.Sum256([]byte("block")))
}

func requireValidationError(t *testing.T, err error, contains ...string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, errors.ValidationError, errors.Code(err))
	for _, s := range contains {
		require.Contains(t, err.Error(), s)
	}
}

func TestBuild(t *testing.T) {
	pk, err := testKey().PublicKey()
	require.NoError(t, err)

	txn, err := template(t).
		FunctionCall("addMessage", map[string]string{"text": "hi"}, 30*protocol.TeraGas, "0.25").
		Transfer(1).
		Build()
	require.NoError(t, err)
	require.Equal(t, protocol.AccountID("alice.testnet"), txn.SignerID)
	require.Equal(t, pk, txn.PublicKey)
	require.Equal(t, uint64(6), txn.Nonce)
	require.Len(t, txn.Actions, 2)

	call := txn.Actions[0].(*protocol.FunctionCall)
	require.Equal(t, `{"text":"hi"}`, string(call.Args))
	require.Equal(t, "250000000000000000000000", call.Deposit.String())
	require.Equal(t, "1", txn.Actions[1].(*protocol.Transfer).Deposit.String())
}

func TestBuildFunction(t *testing.T) {
	pk, err := testKey().PublicKey()
	require.NoError(t, err)
	actions := []protocol.Action{&protocol.FunctionCall{MethodName: "addMessage", Gas: protocol.TeraGas}}

	txn, err := Build("alice.testnet", pk, "guest-book.testnet", 1, actions, sha256.Sum256([]byte("block")))
	require.NoError(t, err)
	require.Equal(t, actions, txn.Actions)

	// The builder does not share the caller's slice
	actions[0] = &protocol.Transfer{}
	require.IsType(t, (*protocol.FunctionCall)(nil), txn.Actions[0])
}

func TestEmptyActions(t *testing.T) {
	_, err := template(t).Build()
	requireValidationError(t, err, "actions: empty")

	pk, _ := testKey().PublicKey()
	_, err = Build("alice.testnet", pk, "guest-book.testnet", 1, nil, sha256.Sum256([]byte("block")))
	requireValidationError(t, err, "actions: empty")
}

func TestNilActions(t *testing.T) {
	pk, _ := testKey().PublicKey()
	actions := []protocol.Action{
		(*protocol.FunctionCall)(nil),
		(*protocol.Transfer)(nil),
		nil,
	}
	_, err := Build("alice.testnet", pk, "guest-book.testnet", 1, actions, sha256.Sum256([]byte("block")))
	requireValidationError(t, err, "actions[0]: missing", "actions[1]: missing", "actions[2]: missing")

	_, err = template(t).WithActions((*protocol.FunctionCall)(nil)).SignWith(testKey())
	requireValidationError(t, err, "actions[0]: missing")
}

func TestBuiltTransactionRoundTrips(t *testing.T) {
	pk, _ := testKey().PublicKey()
	deposit := big.NewInt(0)
	call := &protocol.FunctionCall{MethodName: "ping", Args: []byte{}, Gas: 1, Deposit: deposit}
	txn, err := Build("alice.testnet", pk, "guest-book.testnet", 1, []protocol.Action{
		call,
		&protocol.FunctionCall{MethodName: "pong", Gas: 1},
		&protocol.Transfer{},
		&protocol.Transfer{Deposit: big.NewInt(7)},
	}, sha256.Sum256([]byte("block")))
	require.NoError(t, err)

	b, err := txn.MarshalBinary()
	require.NoError(t, err)
	out := new(protocol.Transaction)
	require.NoError(t, out.UnmarshalBinary(b))
	require.Equal(t, txn, out)

	// The caller's action is copied, not shared
	require.NotSame(t, call, txn.Actions[0])
	deposit.SetInt64(5)
	require.Zero(t, txn.Actions[0].(*protocol.FunctionCall).Deposit.Sign())
}

func TestValidation(t *testing.T) {
	call := func(method string, gas uint64) protocol.Action {
		return &protocol.FunctionCall{MethodName: method, Gas: gas}
	}

	cases := map[string]struct {
		build TransactionBuilder
		field string
	}{
		"ZeroNonce":     {template(t).WithNonce(0).WithActions(call("a", 1)), "nonce"},
		"BadSigner":     {template(t).WithSigner("Alice").WithActions(call("a", 1)), "signer"},
		"BadReceiver":   {template(t).WithReceiver("x").WithActions(call("a", 1)), "receiver"},
		"NoBlockHash":   {template(t).WithBlockHash(protocol.Hash{}).WithActions(call("a", 1)), "block hash"},
		"BadBlockHash":  {template(t).WithBlockHash("abc").WithActions(call("a", 1)), "block hash"},
		"NoKey":         {template(t).WithPublicKey(protocol.PublicKey{}).WithActions(call("a", 1)), "public key"},
		"BadKey":        {template(t).WithPublicKey("ed25519:abc").WithActions(call("a", 1)), "public key"},
		"GasTooHigh":    {template(t).WithActions(call("a", protocol.MaxGas+1)), "actions[0].gas"},
		"ZeroGas":       {template(t).WithActions(call("a", 0)), "actions[0].gas"},
		"NoMethod":      {template(t).WithActions(call("", 1)), "actions[0].method"},
		"LongMethod":    {template(t).WithActions(call(strings.Repeat("m", protocol.MaxMethodNameLength+1), 1)), "actions[0].method"},
		"NilAction":     {template(t).WithActions(nil), "actions[0]"},
		"NegDeposit":    {template(t).Transfer(-1), "actions[0].deposit"},
		"HugeDeposit":   {template(t).Transfer(new(big.Int).Lsh(big.NewInt(1), 128)), "actions[0].deposit"},
		"BadAmount":     {template(t).Transfer("1.2.3"), "deposit"},
		"BadGasType":    {template(t).FunctionCall("a", nil, 1.5, 0), "gas"},
		"SecondAction":  {template(t).FunctionCall("a", nil, 1, 0).FunctionCall("b", nil, protocol.MaxGas+1, 0), "actions[1].gas"},
		"ArgsTooLong":   {template(t).WithLimits(protocol.Limits{MaxArgsLength: 2}).FunctionCall("a", "abc", 1, 0), "actions[0].args"},
		"TooManyAction": {template(t).WithLimits(protocol.Limits{MaxActions: 1}).Transfer(1).Transfer(1), "actions: 2"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.build.Build()
			requireValidationError(t, err, c.field)
		})
	}
}

func TestAllViolationsReported(t *testing.T) {
	_, err := template(t).
		WithNonce(0).
		FunctionCall("", nil, protocol.MaxGas+1, 0).
		Build()
	requireValidationError(t, err, "nonce", "actions[0].method", "actions[0].gas")
}

func TestBuilderIsACopy(t *testing.T) {
	base := template(t)
	a, err := base.WithNonce(1).Transfer(1).Build()
	require.NoError(t, err)
	b, err := base.WithNonce(2).Transfer(2).Build()
	require.NoError(t, err)
	require.Equal(t, uint64(1), a.Nonce)
	require.Equal(t, uint64(2), b.Nonce)
	require.Len(t, a.Actions, 1)
	require.Len(t, b.Actions, 1)

	// An error recorded on a derived builder does not leak into the base
	_, err = base.WithNonce("x").Transfer(1).Build()
	require.Error(t, err)
	_, err = base.Transfer(1).Build()
	require.NoError(t, err)
}

func TestSignWith(t *testing.T) {
	st, err := template(t).Transfer(1).SignWith(testKey())
	require.NoError(t, err)
	require.NoError(t, signing.Verify(st))

	_, err = template(t).SignWith(testKey())
	requireValidationError(t, err)
}

func TestActionConstructors(t *testing.T) {
	call, err := FunctionCall("addMessage", map[string]string{"text": "hi"}, "30000000000000", "0.5")
	require.NoError(t, err)
	require.Equal(t, `{"text":"hi"}`, string(call.Args))
	require.Equal(t, 30*protocol.TeraGas, call.Gas)
	require.Equal(t, "500000000000000000000000", call.Deposit.String())

	_, err = FunctionCall("addMessage", nil, "lots", 0)
	requireValidationError(t, err, "gas")

	transfer, err := Transfer(1)
	require.NoError(t, err)
	require.Equal(t, int64(1), transfer.Deposit.Int64())

	_, err = Transfer(1.5)
	requireValidationError(t, err, "deposit")
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package batch_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	. "gitlab.com/accumulatenetwork/nearbatch/pkg/batch"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

func TestAllowFunctionCalls(t *testing.T) {
	key := &protocol.AccessKey{Permission: protocol.Permission{
		Kind:        protocol.PermissionFunctionCall,
		ReceiverID:  "guest-book.testnet",
		MethodNames: []string{"addMessage"},
	}}

	call := func(receiver protocol.AccountID, method string, deposit int64) *Request {
		return &Request{Receiver: receiver, Actions: []protocol.Action{
			&protocol.FunctionCall{MethodName: method, Gas: 1, Deposit: big.NewInt(deposit)},
		}}
	}

	cases := map[string]struct {
		req *Request
		ok  bool
	}{
		"allowed":        {call("guest-book.testnet", "addMessage", 0), true},
		"other method":   {call("guest-book.testnet", "deleteAll", 0), false},
		"other receiver": {call("bank.testnet", "addMessage", 0), false},
		"deposit":        {call("guest-book.testnet", "addMessage", 1), false},
		"transfer": {&Request{Receiver: "guest-book.testnet", Actions: []protocol.Action{
			&protocol.Transfer{Deposit: big.NewInt(1)},
		}}, false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := AllowFunctionCalls.Check(key, c.req)
			if c.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, errors.Unauthorized)
			}
		})
	}

	full := &protocol.AccessKey{Permission: protocol.FullAccess()}
	require.NoError(t, AllowFunctionCalls.Check(full, cases["transfer"].req))
}

func TestRequireFullAccess(t *testing.T) {
	req := &Request{Receiver: "bob.testnet"}
	require.NoError(t, RequireFullAccess.Check(&protocol.AccessKey{Permission: protocol.FullAccess()}, req))
	err := RequireFullAccess.Check(&protocol.AccessKey{Permission: protocol.Permission{Kind: protocol.PermissionFunctionCall}}, req)
	require.ErrorIs(t, err, errors.Unauthorized)
}

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{"", "none"} {
		p, err := PolicyByName(name)
		require.NoError(t, err)
		require.Nil(t, p)
	}

	p, err := PolicyByName("full-access")
	require.NoError(t, err)
	require.NotNil(t, p)

	p, err = PolicyByName("Function-Call")
	require.NoError(t, err)
	require.NotNil(t, p)

	_, err = PolicyByName("admin")
	require.ErrorIs(t, err, errors.BadRequest)
}

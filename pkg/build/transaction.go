// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package build

import (
	"math/big"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// TransactionBuilder builds a transaction. Each method returns a copy, so a
// partially configured builder can be used as a template.
type TransactionBuilder struct {
	parser
	t      protocol.Transaction
	limits *protocol.Limits
}

func Transaction() TransactionBuilder {
	return TransactionBuilder{}
}

func (b TransactionBuilder) WithSigner(signer any) TransactionBuilder {
	b.t.SignerID = b.parseAccount("signer", signer)
	return b
}

func (b TransactionBuilder) WithPublicKey(key any) TransactionBuilder {
	b.t.PublicKey = b.parsePublicKey(key)
	return b
}

func (b TransactionBuilder) WithReceiver(receiver any) TransactionBuilder {
	b.t.ReceiverID = b.parseAccount("receiver", receiver)
	return b
}

func (b TransactionBuilder) WithNonce(nonce any) TransactionBuilder {
	b.t.Nonce = b.parseUint("nonce", nonce)
	return b
}

func (b TransactionBuilder) WithBlockHash(hash any) TransactionBuilder {
	b.t.BlockHash = b.parseHash(hash)
	return b
}

// WithLimits overrides the default protocol limits.
func (b TransactionBuilder) WithLimits(limits protocol.Limits) TransactionBuilder {
	b.limits = &limits
	return b
}

// WithActions replaces the actions.
func (b TransactionBuilder) WithActions(actions ...protocol.Action) TransactionBuilder {
	b.t.Actions = append([]protocol.Action(nil), actions...)
	return b
}

func (b TransactionBuilder) addAction(action protocol.Action) TransactionBuilder {
	actions := make([]protocol.Action, 0, len(b.t.Actions)+1)
	actions = append(actions, b.t.Actions...)
	b.t.Actions = append(actions, action)
	return b
}

// FunctionCall adds a function call. Args may be bytes, a string, or raw
// JSON, which are used as is; any other value is marshalled as JSON. Integer
// deposits are in yocto and string deposits are decimal NEAR.
func (b TransactionBuilder) FunctionCall(method string, args, gas, deposit any) TransactionBuilder {
	call := &protocol.FunctionCall{MethodName: method}
	call.Args = b.parseArgs(args)
	call.Gas = b.parseUint("gas", gas)
	call.Deposit = b.parseAmount("deposit", deposit)
	return b.addAction(call)
}

func (b TransactionBuilder) Transfer(amount any) TransactionBuilder {
	transfer := &protocol.Transfer{Deposit: b.parseAmount("deposit", amount)}
	return b.addAction(transfer)
}

// Build returns the transaction or a [errors.ValidationError] describing every
// invalid field.
func (b TransactionBuilder) Build() (*protocol.Transaction, error) {
	if !b.ok() {
		return nil, errors.ValidationError.WithFormat("invalid transaction: %w", b.err())
	}

	limits := protocol.DefaultLimits()
	if b.limits != nil {
		limits = *b.limits
	}

	txn := b.t
	txn.Actions = append([]protocol.Action(nil), b.t.Actions...)
	err := Validate(&txn, limits)
	if err != nil {
		return nil, err
	}
	for i, action := range txn.Actions {
		txn.Actions[i] = canonical(action)
	}
	return &txn, nil
}

// SignWith builds the transaction and signs it.
func (b TransactionBuilder) SignWith(signer signing.Signer) (*protocol.SignedTransaction, error) {
	txn, err := b.Build()
	if err != nil {
		return nil, err
	}
	return signing.Sign(txn, signer)
}

// canonical returns a copy of the action in the form decoding produces: a
// non-nil deposit and nil args when there are none. The built transaction
// does not share actions with the caller.
func canonical(action protocol.Action) protocol.Action {
	switch a := action.(type) {
	case *protocol.FunctionCall:
		c := *a
		if len(c.Args) == 0 {
			c.Args = nil
		} else {
			c.Args = append([]byte(nil), c.Args...)
		}
		c.Deposit = canonicalAmount(c.Deposit)
		return &c

	case *protocol.Transfer:
		return &protocol.Transfer{Deposit: canonicalAmount(a.Deposit)}

	default:
		return action
	}
}

func canonicalAmount(v *big.Int) *big.Int {
	if v == nil || v.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

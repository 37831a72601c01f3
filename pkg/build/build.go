// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package build constructs and validates unsigned transactions.
package build

import (
	"fmt"
	"math/big"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Build constructs a transaction and validates it against the default
// protocol limits. It performs no I/O.
func Build(signer protocol.AccountID, key protocol.PublicKey, receiver protocol.AccountID, nonce uint64, actions []protocol.Action, blockHash protocol.Hash) (*protocol.Transaction, error) {
	return Transaction().
		WithSigner(signer).
		WithPublicKey(key).
		WithReceiver(receiver).
		WithNonce(nonce).
		WithBlockHash(blockHash).
		WithActions(actions...).
		Build()
}

// FunctionCall returns a function call action, converting its arguments the
// way [TransactionBuilder.FunctionCall] does.
func FunctionCall(method string, args, gas, deposit any) (*protocol.FunctionCall, error) {
	var p parser
	call := &protocol.FunctionCall{
		MethodName: method,
		Args:       p.parseArgs(args),
		Gas:        p.parseUint("gas", gas),
		Deposit:    p.parseAmount("deposit", deposit),
	}
	if !p.ok() {
		return nil, errors.ValidationError.WithFormat("invalid function call: %w", p.err())
	}
	return call, nil
}

// Transfer returns a transfer action.
func Transfer(amount any) (*protocol.Transfer, error) {
	var p parser
	transfer := &protocol.Transfer{Deposit: p.parseAmount("deposit", amount)}
	if !p.ok() {
		return nil, errors.ValidationError.WithFormat("invalid transfer: %w", p.err())
	}
	return transfer, nil
}

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Validate checks the transaction against the limits. Every violation is
// reported, each prefixed with the field it concerns.
func Validate(txn *protocol.Transaction, limits protocol.Limits) error {
	var p parser
	if txn == nil {
		p.errorf("transaction: missing")
		return errors.ValidationError.WithFormat("invalid transaction: %w", p.err())
	}

	if err := txn.SignerID.Validate(); err != nil {
		p.errorf("signer: %w", err)
	}
	if err := txn.ReceiverID.Validate(); err != nil {
		p.errorf("receiver: %w", err)
	}
	if txn.PublicKey.IsZero() {
		p.errorf("public key: missing")
	} else if txn.PublicKey.Type != protocol.KeyTypeED25519 {
		p.errorf("public key: unsupported key type %v", txn.PublicKey.Type)
	}
	if txn.Nonce == 0 {
		p.errorf("nonce: must be greater than zero")
	}
	if txn.BlockHash.IsZero() {
		p.errorf("block hash: missing")
	}

	switch {
	case len(txn.Actions) == 0:
		p.errorf("actions: empty")
	case limits.MaxActions > 0 && len(txn.Actions) > limits.MaxActions:
		p.errorf("actions: %d exceeds the maximum %d", len(txn.Actions), limits.MaxActions)
	}
	for i, action := range txn.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		switch action := action.(type) {
		case nil:
			p.errorf("%s: missing", field)

		case *protocol.FunctionCall:
			if action == nil {
				p.errorf("%s: missing", field)
				break
			}
			p.validateFunctionCall(field, action, limits)

		case *protocol.Transfer:
			if action == nil {
				p.errorf("%s: missing", field)
				break
			}
			p.validateDeposit(field+".deposit", action.Deposit)

		default:
			// Other variants are left to the encoder, which rejects them
		}
	}

	if !p.ok() {
		return errors.ValidationError.WithFormat("invalid transaction: %w", p.err())
	}
	return nil
}

func (p *parser) validateFunctionCall(field string, call *protocol.FunctionCall, limits protocol.Limits) {
	switch {
	case call.MethodName == "":
		p.errorf("%s.method: empty", field)
	case limits.MaxMethodNameLength > 0 && len(call.MethodName) > limits.MaxMethodNameLength:
		p.errorf("%s.method: length %d exceeds the maximum %d", field, len(call.MethodName), limits.MaxMethodNameLength)
	}

	if limits.MaxArgsLength > 0 && len(call.Args) > limits.MaxArgsLength {
		p.errorf("%s.args: length %d exceeds the maximum %d", field, len(call.Args), limits.MaxArgsLength)
	}

	switch {
	case call.Gas == 0:
		p.errorf("%s.gas: must be greater than zero", field)
	case limits.MaxGas > 0 && call.Gas > limits.MaxGas:
		p.errorf("%s.gas: %d exceeds the maximum %d", field, call.Gas, limits.MaxGas)
	}

	p.validateDeposit(field+".deposit", call.Deposit)
}

func (p *parser) validateDeposit(field string, v *big.Int) {
	if v == nil {
		return
	}
	switch {
	case v.Sign() < 0:
		p.errorf("%s: negative", field)
	case v.Cmp(maxU128) > 0:
		p.errorf("%s: exceeds 128 bits", field)
	}
}

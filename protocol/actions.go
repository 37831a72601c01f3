// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"fmt"
	"math/big"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/types/encoding"
)

// ActionType is the tag of an action variant. The values are fixed by the
// wire format.
type ActionType uint8

const (
	ActionTypeCreateAccount  ActionType = 0
	ActionTypeDeployContract ActionType = 1
	ActionTypeFunctionCall   ActionType = 2
	ActionTypeTransfer       ActionType = 3
	ActionTypeStake          ActionType = 4
	ActionTypeAddKey         ActionType = 5
	ActionTypeDeleteKey      ActionType = 6
	ActionTypeDeleteAccount  ActionType = 7
)

var actionTypeNames = [...]string{
	ActionTypeCreateAccount:  "CreateAccount",
	ActionTypeDeployContract: "DeployContract",
	ActionTypeFunctionCall:   "FunctionCall",
	ActionTypeTransfer:       "Transfer",
	ActionTypeStake:          "Stake",
	ActionTypeAddKey:         "AddKey",
	ActionTypeDeleteKey:      "DeleteKey",
	ActionTypeDeleteAccount:  "DeleteAccount",
}

func (t ActionType) String() string {
	if int(t) < len(actionTypeNames) {
		return actionTypeNames[t]
	}
	return fmt.Sprintf("ActionType(%d)", uint8(t))
}

// Action is one step of a transaction. Only [FunctionCall] and [Transfer] can
// be encoded; any other variant fails serialization.
type Action interface {
	Type() ActionType
}

// FunctionCall calls a method of the receiver's contract. Decoding yields nil
// Args when there are none and a non-nil Deposit, so a nil Deposit and a zero
// one encode identically.
type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	// Deposit is attached to the call, in yocto. Nil means zero.
	Deposit *big.Int
}

func (*FunctionCall) Type() ActionType { return ActionTypeFunctionCall }

// Transfer sends tokens to the receiver.
type Transfer struct {
	// Deposit is the amount transferred, in yocto. Nil means zero.
	Deposit *big.Int
}

func (*Transfer) Type() ActionType { return ActionTypeTransfer }

func writeAction(w *encoding.Writer, action Action) {
	switch a := action.(type) {
	case *FunctionCall:
		if a == nil {
			w.Fail(fmt.Errorf("function call is nil"))
			return
		}
		w.WriteU8(uint8(ActionTypeFunctionCall))
		w.WriteString(a.MethodName)
		w.WriteBytes(a.Args)
		w.WriteU64(a.Gas)
		w.WriteU128(a.Deposit)

	case *Transfer:
		if a == nil {
			w.Fail(fmt.Errorf("transfer is nil"))
			return
		}
		w.WriteU8(uint8(ActionTypeTransfer))
		w.WriteU128(a.Deposit)

	case nil:
		w.Fail(fmt.Errorf("action is nil"))

	default:
		w.Fail(fmt.Errorf("action type %v (%T) cannot be encoded", action.Type(), action))
	}
}

func readAction(r *encoding.Reader) Action {
	typ := ActionType(r.ReadU8())
	if r.Err() != nil {
		return nil
	}

	switch typ {
	case ActionTypeFunctionCall:
		a := new(FunctionCall)
		a.MethodName = r.ReadString()
		a.Args = r.ReadBytes()
		a.Gas = r.ReadU64()
		a.Deposit = r.ReadU128()
		return a

	case ActionTypeTransfer:
		a := new(Transfer)
		a.Deposit = r.ReadU128()
		return a

	default:
		r.Fail(fmt.Errorf("action type %v cannot be decoded: %w", typ, encoding.ErrInvalidTag))
		return nil
	}
}

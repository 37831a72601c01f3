// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package batch

import (
	"strings"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// PermissionPolicy decides whether an access key may sign a request. A
// violation is reported as [errors.Unauthorized] and aborts the batch before
// anything is signed.
type PermissionPolicy interface {
	Check(key *protocol.AccessKey, req *Request) error
}

// PolicyFunc adapts a function to [PermissionPolicy].
type PolicyFunc func(key *protocol.AccessKey, req *Request) error

func (fn PolicyFunc) Check(key *protocol.AccessKey, req *Request) error { return fn(key, req) }

// RequireFullAccess rejects any key that is not a full access key.
var RequireFullAccess PermissionPolicy = PolicyFunc(func(key *protocol.AccessKey, _ *Request) error {
	if key.Permission.Kind != protocol.PermissionFullAccess {
		return errors.Unauthorized.WithFormat("access key %v of %v is not a full access key", key.PublicKey, key.AccountID)
	}
	return nil
})

// AllowFunctionCalls accepts full access keys, and function call keys for
// requests the key may make: only function calls, without deposits, to the
// key's receiver and one of its methods.
var AllowFunctionCalls PermissionPolicy = PolicyFunc(func(key *protocol.AccessKey, req *Request) error {
	perm := key.Permission
	if perm.Kind == protocol.PermissionFullAccess {
		return nil
	}

	for i, action := range req.Actions {
		call, ok := action.(*protocol.FunctionCall)
		if !ok || call == nil {
			return errors.Unauthorized.WithFormat("action %d: a function call key cannot sign %T", i, action)
		}
		if call.Deposit != nil && call.Deposit.Sign() != 0 {
			return errors.Unauthorized.WithFormat("action %d: a function call key cannot attach a deposit", i)
		}
		if !perm.AllowsCall(req.Receiver, call.MethodName) {
			return errors.Unauthorized.WithFormat("action %d: access key is not allowed to call %s on %v", i, call.MethodName, req.Receiver)
		}
	}
	return nil
})

// PolicyByName returns the policy with the given name: none, full-access, or
// function-call. None returns a nil policy.
func PolicyByName(name string) (PermissionPolicy, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "full-access":
		return RequireFullAccess, nil
	case "function-call":
		return AllowFunctionCalls, nil
	default:
		return nil, errors.BadRequest.WithFormat("unknown permission policy %q", name)
	}
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
)

// AccessKey is a snapshot of an access key's state, together with the block it
// was read at.
type AccessKey struct {
	AccountID   AccountID
	PublicKey   PublicKey
	Nonce       uint64
	Permission  Permission
	BlockHash   Hash
	BlockHeight uint64
}

// PermissionKind distinguishes full access keys from function call keys.
type PermissionKind int

const (
	PermissionFullAccess PermissionKind = iota
	PermissionFunctionCall
)

func (k PermissionKind) String() string {
	switch k {
	case PermissionFullAccess:
		return "FullAccess"
	case PermissionFunctionCall:
		return "FunctionCall"
	default:
		return fmt.Sprintf("PermissionKind(%d)", int(k))
	}
}

// Permission is the scope of an access key. The zero value is full access.
type Permission struct {
	Kind PermissionKind

	// The fields below apply only to function call keys.

	// Allowance is the remaining fee allowance. Nil means unlimited.
	Allowance *big.Int
	// ReceiverID is the only contract the key may call.
	ReceiverID AccountID
	// MethodNames are the methods the key may call. Empty means any method.
	MethodNames []string
}

// FullAccess returns a full access permission.
func FullAccess() Permission {
	return Permission{Kind: PermissionFullAccess}
}

// AllowsCall returns true if the permission allows calling method on
// receiver.
func (p Permission) AllowsCall(receiver AccountID, method string) bool {
	if p.Kind == PermissionFullAccess {
		return true
	}
	if receiver != p.ReceiverID {
		return false
	}
	return len(p.MethodNames) == 0 || slices.Contains(p.MethodNames, method)
}

type functionCallPermissionJSON struct {
	Allowance   *string   `json:"allowance"`
	ReceiverID  AccountID `json:"receiver_id"`
	MethodNames []string  `json:"method_names"`
}

// MarshalJSON renders the permission the way the RPC does: the string
// "FullAccess" or an object keyed by "FunctionCall".
func (p Permission) MarshalJSON() ([]byte, error) {
	if p.Kind == PermissionFullAccess {
		return json.Marshal("FullAccess")
	}

	v := functionCallPermissionJSON{ReceiverID: p.ReceiverID, MethodNames: p.MethodNames}
	if v.MethodNames == nil {
		v.MethodNames = []string{}
	}
	if p.Allowance != nil {
		s := p.Allowance.String()
		v.Allowance = &s
	}
	return json.Marshal(map[string]any{"FunctionCall": v})
}

func (p *Permission) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s != "FullAccess" {
			return fmt.Errorf("unknown permission %q", s)
		}
		*p = FullAccess()
		return nil
	}

	var v struct {
		FunctionCall *functionCallPermissionJSON `json:"FunctionCall"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.FunctionCall == nil {
		return fmt.Errorf("unknown permission %s", b)
	}

	*p = Permission{
		Kind:        PermissionFunctionCall,
		ReceiverID:  v.FunctionCall.ReceiverID,
		MethodNames: v.FunctionCall.MethodNames,
	}
	if v.FunctionCall.Allowance != nil {
		a, ok := new(big.Int).SetString(*v.FunctionCall.Allowance, 10)
		if !ok {
			return fmt.Errorf("invalid allowance %q", *v.FunctionCall.Allowance)
		}
		p.Allowance = a
	}
	return nil
}

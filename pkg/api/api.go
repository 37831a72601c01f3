// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package api defines the network services the batch pipeline depends on.
package api

import (
	"context"
	"encoding/json"
	"strings"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

type AccessKeyResolver interface {
	// ResolveAccessKey returns the current state of an access key together
	// with a recent block hash. It fails with [errors.NotFound] if the key is
	// unknown and [errors.NetworkError] if the network cannot be reached.
	ResolveAccessKey(ctx context.Context, account protocol.AccountID, key protocol.PublicKey) (*protocol.AccessKey, error)
}

type Submitter interface {
	// Submit submits a signed transaction. It fails with [errors.Rejected] if
	// the network refuses the transaction and [errors.NetworkError] if the
	// outcome is unknown.
	Submit(ctx context.Context, txn *protocol.SignedTransaction, opts SubmitOptions) (*Submission, error)
}

type NodeService interface {
	// NodeStatus returns the status of the node.
	NodeStatus(ctx context.Context) (*NodeStatus, error)
}

// SubmitMode selects how long Submit waits.
type SubmitMode int

const (
	// SubmitModeCommit waits until the transaction is executed.
	SubmitModeCommit SubmitMode = iota
	// SubmitModeAsync returns as soon as the node accepts the transaction.
	SubmitModeAsync
)

func (m SubmitMode) String() string {
	switch m {
	case SubmitModeCommit:
		return "commit"
	case SubmitModeAsync:
		return "async"
	default:
		return "unknown"
	}
}

// SubmitModeByName returns the mode with the given name.
func SubmitModeByName(name string) (SubmitMode, bool) {
	switch strings.ToLower(name) {
	case "commit", "":
		return SubmitModeCommit, true
	case "async":
		return SubmitModeAsync, true
	default:
		return 0, false
	}
}

func (m SubmitMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *SubmitMode) UnmarshalText(b []byte) error {
	v, ok := SubmitModeByName(string(b))
	if !ok {
		return errors.BadRequest.WithFormat("unknown submit mode %q", b)
	}
	*m = v
	return nil
}

type SubmitOptions struct {
	Mode SubmitMode
}

// Submission is the node's response to a submitted transaction.
type Submission struct {
	TxHash protocol.Hash
	// Success is false if the transaction was executed and failed.
	Success bool
	// Message describes the outcome.
	Message string
	// Result is the raw response.
	Result json.RawMessage
}

type NodeStatus struct {
	ChainID           string
	LatestBlockHash   protocol.Hash
	LatestBlockHeight uint64
	Syncing           bool
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package jsonrpc

import (
	"bytes"
	"encoding/json"

	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

const (
	MethodQuery             = "query"
	MethodBroadcastTxCommit = "broadcast_tx_commit"
	MethodBroadcastTxAsync  = "broadcast_tx_async"
	MethodStatus            = "status"
)

// Finality is the finality used for queries.
type Finality string

const (
	FinalityFinal      Finality = "final"
	FinalityOptimistic Finality = "optimistic"
)

// ViewAccessKeyRequest is the params of a view_access_key query.
type ViewAccessKeyRequest struct {
	RequestType string             `json:"request_type"`
	Finality    Finality           `json:"finality,omitempty"`
	AccountID   protocol.AccountID `json:"account_id"`
	PublicKey   protocol.PublicKey `json:"public_key"`
}

// AccessKeyView is the result of a view_access_key query. Older nodes report
// an unknown key with a result carrying Error instead of an error response.
type AccessKeyView struct {
	Nonce       uint64              `json:"nonce"`
	Permission  protocol.Permission `json:"permission"`
	BlockHeight uint64              `json:"block_height"`
	BlockHash   string              `json:"block_hash"`
	Error       string              `json:"error,omitempty"`
}

// ExecutionStatus is the status of an executed transaction. Exactly one field
// is set.
type ExecutionStatus struct {
	SuccessValue     *string         `json:"SuccessValue,omitempty"`
	SuccessReceiptID *string         `json:"SuccessReceiptId,omitempty"`
	Failure          json.RawMessage `json:"Failure,omitempty"`
	// Other is set for the bare string statuses, such as "NotStarted".
	Other string `json:"-"`
}

func (s ExecutionStatus) Succeeded() bool {
	return s.SuccessValue != nil || s.SuccessReceiptID != nil
}

func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	if s.Other != "" {
		return json.Marshal(s.Other)
	}
	type T ExecutionStatus
	return json.Marshal(T(s))
}

func (s *ExecutionStatus) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*s = ExecutionStatus{}
		return json.Unmarshal(b, &s.Other)
	}
	type T ExecutionStatus
	return json.Unmarshal(b, (*T)(s))
}

type TransactionView struct {
	SignerID   protocol.AccountID `json:"signer_id"`
	PublicKey  string             `json:"public_key"`
	Nonce      uint64             `json:"nonce"`
	ReceiverID protocol.AccountID `json:"receiver_id"`
	Hash       string             `json:"hash"`
}

// FinalExecutionOutcome is the result of broadcast_tx_commit.
type FinalExecutionOutcome struct {
	Status      ExecutionStatus `json:"status"`
	Transaction TransactionView `json:"transaction"`
}

type StatusResponse struct {
	ChainID  string   `json:"chain_id"`
	SyncInfo SyncInfo `json:"sync_info"`
}

type SyncInfo struct {
	LatestBlockHash   string `json:"latest_block_hash"`
	LatestBlockHeight uint64 `json:"latest_block_height"`
	Syncing           bool   `json:"syncing"`
}

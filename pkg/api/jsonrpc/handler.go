// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package jsonrpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AccumulateNetwork/jsonrpc2/v15"
	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Node is the server side of the node RPC.
type Node interface {
	ViewAccessKey(ctx context.Context, req *ViewAccessKeyRequest) (*AccessKeyView, error)
	BroadcastTxCommit(ctx context.Context, txn *protocol.SignedTransaction) (*FinalExecutionOutcome, error)
	BroadcastTxAsync(ctx context.Context, txn *protocol.SignedTransaction) (protocol.Hash, error)
	Status(ctx context.Context) (*StatusResponse, error)
}

// NewHandler serves the node RPC for node.
func NewHandler(node Node, logger *slog.Logger) http.Handler {
	h := handler{node}
	methods := jsonrpc2.MethodMap{
		MethodQuery:             h.query,
		MethodBroadcastTxCommit: h.broadcastTxCommit,
		MethodBroadcastTxAsync:  h.broadcastTxAsync,
		MethodStatus:            h.status,
	}
	return jsonrpc2.HTTPRequestHandler(methods, slogger{logging.OrDiscard(logger)})
}

type handler struct {
	node Node
}

func (h handler) query(ctx context.Context, params json.RawMessage) interface{} {
	req := new(ViewAccessKeyRequest)
	if err := json.Unmarshal(params, req); err != nil {
		return jsonrpc2.ErrorInvalidParams(err.Error())
	}
	if req.RequestType != "view_access_key" {
		return jsonrpc2.ErrorInvalidParams(fmt.Sprintf("unsupported request type %q", req.RequestType))
	}

	view, err := h.node.ViewAccessKey(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	return view
}

func (h handler) broadcastTxCommit(ctx context.Context, params json.RawMessage) interface{} {
	txn, rerr := decodeSignedTransaction(params)
	if rerr != nil {
		return *rerr
	}
	outcome, err := h.node.BroadcastTxCommit(ctx, txn)
	if err != nil {
		return errorResponse(err)
	}
	return outcome
}

func (h handler) broadcastTxAsync(ctx context.Context, params json.RawMessage) interface{} {
	txn, rerr := decodeSignedTransaction(params)
	if rerr != nil {
		return *rerr
	}
	hash, err := h.node.BroadcastTxAsync(ctx, txn)
	if err != nil {
		return errorResponse(err)
	}
	return hash.String()
}

func (h handler) status(ctx context.Context, _ json.RawMessage) interface{} {
	status, err := h.node.Status(ctx)
	if err != nil {
		return errorResponse(err)
	}
	return status
}

func decodeSignedTransaction(params json.RawMessage) (*protocol.SignedTransaction, *jsonrpc2.Error) {
	var args []string
	if err := json.Unmarshal(params, &args); err != nil || len(args) != 1 {
		e := jsonrpc2.ErrorInvalidParams("expected a single base64 encoded transaction")
		return nil, &e
	}

	b, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		e := jsonrpc2.ErrorInvalidParams(err.Error())
		return nil, &e
	}

	txn := new(protocol.SignedTransaction)
	if err := txn.UnmarshalBinary(b); err != nil {
		e := errorResponse(err)
		return nil, &e
	}
	return txn, nil
}

type slogger struct {
	logger *slog.Logger
}

func (l slogger) Println(values ...interface{}) {
	l.logger.Info(fmt.Sprint(values...), "module", "rpc")
}

func (l slogger) Printf(format string, values ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, values...), "module", "rpc")
}

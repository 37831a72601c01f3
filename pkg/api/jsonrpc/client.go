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
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AccumulateNetwork/jsonrpc2/v15"
	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Client is a node RPC client.
type Client struct {
	Client   http.Client
	Server   string
	Finality Finality
	Logger   *slog.Logger
}

var _ api.AccessKeyResolver = (*Client)(nil)
var _ api.Submitter = (*Client)(nil)
var _ api.NodeService = (*Client)(nil)

// NewClient creates new API client with default config
func NewClient(server string) *Client {
	c := new(Client)
	c.Client.Timeout = 15 * time.Second
	c.Server = server
	c.Finality = FinalityFinal
	return c
}

func (c *Client) logger() *slog.Logger {
	return logging.OrDiscard(c.Logger)
}

func (c *Client) ResolveAccessKey(ctx context.Context, account protocol.AccountID, key protocol.PublicKey) (*protocol.AccessKey, error) {
	req := &ViewAccessKeyRequest{
		RequestType: "view_access_key",
		Finality:    c.Finality,
		AccountID:   account,
		PublicKey:   key,
	}
	if req.Finality == "" {
		req.Finality = FinalityFinal
	}

	view, err := sendRequestUnmarshalAs[*AccessKeyView](c, ctx, MethodQuery, req)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	if view == nil {
		return nil, errors.EncodingError.With("empty access key response")
	}
	if view.Error != "" {
		if strings.Contains(view.Error, "does not exist") {
			return nil, errors.NotFound.WithFormat("access key %v of %v: %s", key, account, view.Error)
		}
		return nil, errors.Rejected.WithFormat("access key %v of %v: %s", key, account, view.Error)
	}

	blockHash, err := protocol.ParseHash(view.BlockHash)
	if err != nil {
		return nil, errors.EncodingError.WithFormat("block hash: %w", err)
	}

	c.logger().DebugContext(ctx, "Resolved access key", "account", account, "key", key, "nonce", view.Nonce, "block", view.BlockHeight)
	return &protocol.AccessKey{
		AccountID:   account,
		PublicKey:   key,
		Nonce:       view.Nonce,
		Permission:  view.Permission,
		BlockHash:   blockHash,
		BlockHeight: view.BlockHeight,
	}, nil
}

func (c *Client) Submit(ctx context.Context, txn *protocol.SignedTransaction, opts api.SubmitOptions) (*api.Submission, error) {
	b, err := txn.MarshalBinary()
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	hash, err := txn.Hash()
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	params := []string{base64.StdEncoding.EncodeToString(b)}

	switch opts.Mode {
	case api.SubmitModeAsync:
		var raw json.RawMessage
		err = c.sendRequest(ctx, MethodBroadcastTxAsync, params, &raw)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
		return &api.Submission{TxHash: hash, Success: true, Message: "submitted", Result: raw}, nil

	case api.SubmitModeCommit:
		var raw json.RawMessage
		err = c.sendRequest(ctx, MethodBroadcastTxCommit, params, &raw)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
		outcome := new(FinalExecutionOutcome)
		if err := json.Unmarshal(raw, outcome); err != nil {
			return nil, errors.EncodingError.WithFormat("unmarshal response: %w", err)
		}
		return submissionFor(hash, outcome, raw), nil

	default:
		return nil, errors.BadRequest.WithFormat("unknown submit mode %v", opts.Mode)
	}
}

func submissionFor(hash protocol.Hash, outcome *FinalExecutionOutcome, raw json.RawMessage) *api.Submission {
	sub := &api.Submission{TxHash: hash, Result: raw}
	switch {
	case outcome.Status.Succeeded():
		sub.Success = true
		sub.Message = "executed"
	case len(outcome.Status.Failure) > 0:
		sub.Message = "failed: " + string(outcome.Status.Failure)
	default:
		sub.Message = "status " + outcome.Status.Other
	}
	return sub
}

func (c *Client) NodeStatus(ctx context.Context) (*api.NodeStatus, error) {
	status, err := sendRequestUnmarshalAs[*StatusResponse](c, ctx, MethodStatus, []any{})
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	if status == nil {
		return nil, errors.EncodingError.With("empty status response")
	}

	hash, err := protocol.ParseHash(status.SyncInfo.LatestBlockHash)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	return &api.NodeStatus{
		ChainID:           status.ChainID,
		LatestBlockHash:   hash,
		LatestBlockHeight: status.SyncInfo.LatestBlockHeight,
		Syncing:           status.SyncInfo.Syncing,
	}, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, req, resp interface{}) error {
	jc := jsonrpc2.Client{Client: c.Client}
	start := time.Now()
	err := jc.Request(ctx, c.Server, method, req, resp)
	c.logger().DebugContext(ctx, "Request", "method", method, "duration", time.Since(start), "error", err)
	return classify(method, err)
}

func sendRequestUnmarshalAs[T any](c *Client, ctx context.Context, method string, req interface{}) (T, error) {
	var v T
	var resp json.RawMessage
	err := c.sendRequest(ctx, method, req, &resp)
	if err != nil {
		return v, errors.UnknownError.Wrap(err)
	}
	err = json.Unmarshal(resp, &v)
	if err != nil {
		return v, errors.EncodingError.WithFormat("unmarshal response: %w", err)
	}
	return v, nil
}

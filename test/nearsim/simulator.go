// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package nearsim is an in-memory node that serves the node RPC, for tests.
package nearsim

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api/jsonrpc"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Simulator tracks accounts and their access keys and executes transactions
// against them. A transaction is valid if its key exists, its signature
// verifies, its block hash is a block the simulator produced, and its nonce
// is above the key's nonce at the time it was added and has not been used.
type Simulator struct {
	ChainID string
	Logger  *slog.Logger

	mu       sync.Mutex
	height   uint64
	blocks   map[protocol.Hash]uint64
	latest   protocol.Hash
	accounts map[protocol.AccountID]map[protocol.PublicKey]*accessKey
	txns     map[protocol.Hash]*protocol.SignedTransaction
	hooks    map[string]Hook
}

type accessKey struct {
	floor      uint64
	nonce      uint64
	used       map[uint64]bool
	permission protocol.Permission
}

// Hook intercepts a method. If it returns a non-nil error the request fails
// with that error.
type Hook func(ctx context.Context, txn *protocol.SignedTransaction) error

func New() *Simulator {
	s := &Simulator{
		ChainID:  "sandbox",
		blocks:   map[protocol.Hash]uint64{},
		accounts: map[protocol.AccountID]map[protocol.PublicKey]*accessKey{},
		txns:     map[protocol.Hash]*protocol.SignedTransaction{},
		hooks:    map[string]Hook{},
	}
	s.produceBlock()
	return s
}

// produceBlock must be called with the lock held.
func (s *Simulator) produceBlock() {
	s.height++
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], s.height)
	s.latest = sha256.Sum256(append([]byte(s.ChainID), b[:]...))
	s.blocks[s.latest] = s.height
}

// ProduceBlock advances the chain by one block.
func (s *Simulator) ProduceBlock() protocol.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.produceBlock()
	return s.latest
}

// AddKey adds an access key with the given nonce and permission, creating the
// account if necessary.
func (s *Simulator) AddKey(account protocol.AccountID, key protocol.PublicKey, nonce uint64, permission protocol.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.accounts[account]
	if !ok {
		keys = map[protocol.PublicKey]*accessKey{}
		s.accounts[account] = keys
	}
	keys[key] = &accessKey{
		floor:      nonce,
		nonce:      nonce,
		used:       map[uint64]bool{},
		permission: permission,
	}
}

// SetHook installs a hook for the given RPC method. A nil hook removes it.
func (s *Simulator) SetHook(method string, hook Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hook == nil {
		delete(s.hooks, method)
	} else {
		s.hooks[method] = hook
	}
}

// Nonce returns the highest nonce used with the key.
func (s *Simulator) Nonce(account protocol.AccountID, key protocol.PublicKey) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.accounts[account][key]
	if !ok {
		return 0, false
	}
	return k.nonce, true
}

// Transaction returns an executed transaction.
func (s *Simulator) Transaction(hash protocol.Hash) (*protocol.SignedTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[hash]
	return txn, ok
}

// Server starts an HTTP server for the simulator. The server is closed when
// the test completes.
func (s *Simulator) Server(t testing.TB) string {
	srv := httptest.NewServer(jsonrpc.NewHandler(s, s.Logger))
	t.Cleanup(srv.Close)
	return srv.URL
}

func (s *Simulator) hook(ctx context.Context, method string, txn *protocol.SignedTransaction) error {
	s.mu.Lock()
	hook := s.hooks[method]
	s.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(ctx, txn)
}

func (s *Simulator) ViewAccessKey(ctx context.Context, req *jsonrpc.ViewAccessKeyRequest) (*jsonrpc.AccessKeyView, error) {
	if err := s.hook(ctx, jsonrpc.MethodQuery, nil); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.accounts[req.AccountID]
	if !ok {
		return nil, errors.NotFound.WithFormat("account %v does not exist", req.AccountID)
	}
	key, ok := keys[req.PublicKey]
	if !ok {
		return nil, errors.NotFound.WithFormat("access key %v does not exist for %v", req.PublicKey, req.AccountID)
	}

	return &jsonrpc.AccessKeyView{
		Nonce:       key.nonce,
		Permission:  key.permission,
		BlockHeight: s.height,
		BlockHash:   s.latest.String(),
	}, nil
}

func (s *Simulator) BroadcastTxCommit(ctx context.Context, txn *protocol.SignedTransaction) (*jsonrpc.FinalExecutionOutcome, error) {
	if err := s.hook(ctx, jsonrpc.MethodBroadcastTxCommit, txn); err != nil {
		return nil, err
	}

	hash, err := s.execute(ctx, txn)
	if err != nil {
		return nil, err
	}

	value := ""
	return &jsonrpc.FinalExecutionOutcome{
		Status: jsonrpc.ExecutionStatus{SuccessValue: &value},
		Transaction: jsonrpc.TransactionView{
			SignerID:   txn.Transaction.SignerID,
			PublicKey:  txn.Transaction.PublicKey.String(),
			Nonce:      txn.Transaction.Nonce,
			ReceiverID: txn.Transaction.ReceiverID,
			Hash:       hash.String(),
		},
	}, nil
}

func (s *Simulator) BroadcastTxAsync(ctx context.Context, txn *protocol.SignedTransaction) (protocol.Hash, error) {
	if err := s.hook(ctx, jsonrpc.MethodBroadcastTxAsync, txn); err != nil {
		return protocol.Hash{}, err
	}
	return s.execute(ctx, txn)
}

func (s *Simulator) Status(ctx context.Context) (*jsonrpc.StatusResponse, error) {
	if err := s.hook(ctx, jsonrpc.MethodStatus, nil); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &jsonrpc.StatusResponse{
		ChainID: s.ChainID,
		SyncInfo: jsonrpc.SyncInfo{
			LatestBlockHash:   s.latest.String(),
			LatestBlockHeight: s.height,
		},
	}, nil
}

func (s *Simulator) execute(ctx context.Context, st *protocol.SignedTransaction) (protocol.Hash, error) {
	if err := signing.Verify(st); err != nil {
		return protocol.Hash{}, errors.Rejected.WithFormat("invalid signature: %w", err)
	}
	hash, err := st.Hash()
	if err != nil {
		return protocol.Hash{}, errors.Rejected.Wrap(err)
	}

	txn := st.Transaction
	ctx = logging.With(ctx, "hash", hash.String(), "nonce", txn.Nonce)

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.accounts[txn.SignerID][txn.PublicKey]
	if !ok {
		return protocol.Hash{}, errors.Rejected.WithFormat("access key %v does not exist for %v", txn.PublicKey, txn.SignerID)
	}
	if _, ok := s.blocks[txn.BlockHash]; !ok {
		return protocol.Hash{}, errors.Rejected.WithFormat("unknown block hash %v", txn.BlockHash)
	}
	if txn.Nonce <= key.floor || key.used[txn.Nonce] {
		return protocol.Hash{}, errors.Rejected.WithFormat("invalid nonce %d for %v", txn.Nonce, txn.PublicKey)
	}
	if err := checkPermission(key.permission, txn); err != nil {
		return protocol.Hash{}, err
	}

	key.used[txn.Nonce] = true
	if txn.Nonce > key.nonce {
		key.nonce = txn.Nonce
	}
	s.txns[hash] = st
	s.produceBlock()

	logging.OrDiscard(s.Logger).DebugContext(ctx, "Executed transaction", "module", "simulator", "height", s.height)
	return hash, nil
}

func checkPermission(perm protocol.Permission, txn *protocol.Transaction) error {
	if perm.Kind == protocol.PermissionFullAccess {
		return nil
	}
	for _, action := range txn.Actions {
		call, ok := action.(*protocol.FunctionCall)
		if !ok {
			return errors.Rejected.WithFormat("function call key cannot sign %v", action.Type())
		}
		if call.Deposit != nil && call.Deposit.Sign() != 0 {
			return errors.Rejected.With("function call key cannot attach a deposit")
		}
		if !perm.AllowsCall(txn.ReceiverID, call.MethodName) {
			return errors.Rejected.WithFormat("method %s of %v is not allowed", call.MethodName, txn.ReceiverID)
		}
	}
	return nil
}

// Fail returns a hook that fails every request with err.
func Fail(err error) Hook {
	return func(context.Context, *protocol.SignedTransaction) error { return err }
}

// FailNonce returns a hook that fails requests for the given nonce with err.
func FailNonce(nonce uint64, err error) Hook {
	return func(_ context.Context, txn *protocol.SignedTransaction) error {
		if txn != nil && txn.Transaction.Nonce == nonce {
			return err
		}
		return nil
	}
}

// Delay returns a hook that delays requests by d, or until the request is
// cancelled.
func Delay(d time.Duration) Hook {
	return func(ctx context.Context, _ *protocol.SignedTransaction) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return errors.NetworkError.WithFormat("timed out: %w", ctx.Err())
		}
	}
}

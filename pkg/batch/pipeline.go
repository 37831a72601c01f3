// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package batch builds, signs, and broadcasts batches of transactions that
// share an access key.
package batch

import (
	"context"
	"log/slog"
	"math"

	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/build"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/client/signing"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/nonce"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
	"golang.org/x/sync/errgroup"
)

// Request is one transaction of a batch.
type Request struct {
	Receiver protocol.AccountID
	Actions  []protocol.Action
}

// Pipeline resolves the access key once, allocates one nonce per request,
// builds and signs every transaction, and broadcasts them concurrently.
type Pipeline struct {
	Resolver    api.AccessKeyResolver
	Broadcaster *Broadcaster

	// Sequencer detects nonce reuse across batches. If nil, each run
	// allocates against the resolved nonce without tracking.
	Sequencer *nonce.Sequencer

	// Policy is checked against the resolved access key. Nil skips the
	// check.
	Policy PermissionPolicy

	// Limits overrides the default protocol limits.
	Limits *protocol.Limits

	Logger *slog.Logger
}

// Result is the outcome of a batch.
type Result struct {
	AccessKey    *protocol.AccessKey
	Nonces       []uint64
	Transactions []*protocol.SignedTransaction
	Outcomes     []*Outcome
}

// Run runs the batch. Any failure before broadcasting aborts the whole batch
// and nothing is submitted. Once broadcasting starts Run does not fail;
// per-transaction failures are reported in the outcomes.
func (p *Pipeline) Run(ctx context.Context, signer protocol.AccountID, key signing.Signer, requests []*Request) (*Result, error) {
	result, err := p.run(ctx, signer, key, requests)
	if err != nil {
		mBatches.WithLabelValues("aborted").Inc()
		return nil, err
	}
	mBatches.WithLabelValues("broadcast").Inc()
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, signer protocol.AccountID, key signing.Signer, requests []*Request) (*Result, error) {
	logger := logging.OrDiscard(p.Logger)

	switch {
	case len(requests) == 0:
		return nil, errors.BadRequest.With("empty batch")
	case uint64(len(requests)) > math.MaxUint32:
		return nil, errors.BadRequest.WithFormat("batch of %d is too large", len(requests))
	case key == nil:
		return nil, errors.SigningError.With("missing signer")
	case p.Resolver == nil || p.Broadcaster == nil:
		return nil, errors.BadRequest.With("pipeline is missing a resolver or broadcaster")
	}
	for i, req := range requests {
		if req == nil {
			return nil, errors.BadRequest.WithFormat("request %d is missing", i)
		}
	}

	pk, err := key.PublicKey()
	if err != nil {
		return nil, errors.SigningError.Wrap(err)
	}

	ctx = logging.With(ctx, "signer", signer.String())
	accessKey, err := p.Resolver.ResolveAccessKey(ctx, signer, pk)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("resolve access key: %w", err)
	}
	logger.DebugContext(ctx, "Resolved access key", "module", "pipeline", "nonce", accessKey.Nonce, "permission", accessKey.Permission.Kind)

	if p.Policy != nil {
		for i, req := range requests {
			err = p.Policy.Check(accessKey, req)
			if err != nil {
				return nil, errors.UnknownError.WithFormat("request %d: %w", i, err)
			}
		}
	}

	nonces, err := p.allocate(accessKey, len(requests))
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}

	signed, err := p.sign(ctx, accessKey, key, requests, nonces)
	if err != nil {
		// Nothing was broadcast, so the nonces can be allocated again
		if p.Sequencer != nil {
			p.Sequencer.Forget(signer, pk)
		}
		return nil, err
	}

	logger.InfoContext(ctx, "Broadcasting", "module", "pipeline", "count", len(signed), "first-nonce", nonces[0])
	outcomes := p.Broadcaster.SubmitAll(ctx, signed)

	return &Result{
		AccessKey:    accessKey,
		Nonces:       nonces,
		Transactions: signed,
		Outcomes:     outcomes,
	}, nil
}

func (p *Pipeline) allocate(key *protocol.AccessKey, count int) ([]uint64, error) {
	if p.Sequencer != nil {
		return p.Sequencer.Allocate(key, uint32(count))
	}
	return nonce.Allocate(key.Nonce, uint32(count))
}

// sign builds and signs every transaction concurrently. The nonces are
// already allocated so the tasks share nothing writable.
func (p *Pipeline) sign(ctx context.Context, accessKey *protocol.AccessKey, key signing.Signer, requests []*Request, nonces []uint64) ([]*protocol.SignedTransaction, error) {
	template := build.Transaction().
		WithSigner(accessKey.AccountID).
		WithPublicKey(accessKey.PublicKey).
		WithBlockHash(accessKey.BlockHash)
	if p.Limits != nil {
		template = template.WithLimits(*p.Limits)
	}

	signed := make([]*protocol.SignedTransaction, len(requests))
	errg, ctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			st, err := template.
				WithReceiver(req.Receiver).
				WithNonce(nonces[i]).
				WithActions(req.Actions...).
				SignWith(key)
			if err != nil {
				return errors.UnknownError.WithFormat("transaction %d: %w", i, err)
			}
			signed[i] = st
			return nil
		})
	}

	err := errg.Wait()
	if err != nil {
		return nil, err
	}
	return signed, nil
}

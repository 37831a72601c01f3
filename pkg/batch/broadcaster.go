// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitlab.com/accumulatenetwork/nearbatch/internal/logging"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/api"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
	"golang.org/x/sync/errgroup"
)

// Broadcaster submits signed transactions concurrently. A failed submission
// never cancels or hides the others.
type Broadcaster struct {
	Submitter api.Submitter
	Mode      api.SubmitMode

	// MaxInFlight limits concurrent submissions. Zero means no limit.
	MaxInFlight int

	// SubmitTimeout bounds each submission. A submission that times out is
	// reported as a network error. Zero means no timeout beyond the
	// context's.
	SubmitTimeout time.Duration

	Logger *slog.Logger
}

// SubmitAll submits every transaction and waits for all of them to settle.
// The outcomes are index-aligned with txns.
func (b *Broadcaster) SubmitAll(ctx context.Context, txns []*protocol.SignedTransaction) []*Outcome {
	outcomes := make([]*Outcome, len(txns))

	// The tasks never return an error so the group is only used to bound and
	// wait for them
	var g errgroup.Group
	if b.MaxInFlight > 0 {
		g.SetLimit(b.MaxInFlight)
	}

	for i, txn := range txns {
		i, txn := i, txn
		g.Go(func() error {
			outcomes[i] = b.submit(ctx, i, txn)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (b *Broadcaster) submit(ctx context.Context, index int, txn *protocol.SignedTransaction) *Outcome {
	logger := logging.OrDiscard(b.Logger)
	out := &Outcome{Index: index}

	if txn == nil {
		b.fail(out, StatusRejected, errors.BadRequest.With("missing transaction"))
		return out
	}

	hash, err := txn.Hash()
	if err != nil {
		b.fail(out, StatusRejected, err)
		return out
	}
	out.TxHash = hash
	ctx = logging.With(ctx, "index", index, "hash", hash.String())

	if b.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.SubmitTimeout)
		defer cancel()
	}

	mInFlight.Inc()
	start := time.Now()
	sub, err := b.Submitter.Submit(ctx, txn, api.SubmitOptions{Mode: b.Mode})
	out.Duration = time.Since(start)
	mInFlight.Dec()
	mSubmitDuration.Observe(out.Duration.Seconds())

	switch {
	case err != nil:
		b.fail(out, statusOf(err), err)
		logger.WarnContext(ctx, "Submission failed", "module", "broadcast", "status", out.Status, "error", err)
		return out

	case sub == nil:
		b.fail(out, StatusNetworkError, errors.NetworkError.With("empty response"))
		return out

	case !sub.Success:
		b.fail(out, StatusRejected, errors.Rejected.With(sub.Message))
		logger.WarnContext(ctx, "Transaction failed", "module", "broadcast", "detail", sub.Message)
		return out
	}

	out.Status = StatusAccepted
	out.Detail = sub.Message
	mSubmissions.WithLabelValues(out.Status.String()).Inc()
	logger.DebugContext(ctx, "Transaction accepted", "module", "broadcast", "duration", out.Duration)
	return out
}

func (b *Broadcaster) fail(out *Outcome, status Status, err error) {
	out.Status = status
	out.Err = err
	out.Detail = fmt.Sprint(err)
	mSubmissions.WithLabelValues(status.String()).Inc()
}

// statusOf maps a submission error to an outcome. Anything other than an
// explicit rejection leaves the transaction's fate unknown.
func statusOf(err error) Status {
	if errors.Code(err) == errors.Rejected {
		return StatusRejected
	}
	return StatusNetworkError
}

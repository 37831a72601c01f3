// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package batch

import (
	"fmt"
	"time"

	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// Status is the outcome of a single submission.
type Status int

const (
	// StatusAccepted means the network accepted (and, when committing,
	// successfully executed) the transaction.
	StatusAccepted Status = iota + 1
	// StatusRejected means the network refused the transaction or executed
	// it and it failed.
	StatusRejected
	// StatusNetworkError means the submission did not complete, so the fate
	// of the transaction is unknown.
	StatusNetworkError
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusNetworkError:
		return "network error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result of submitting the transaction at Index.
type Outcome struct {
	Index    int
	TxHash   protocol.Hash
	Status   Status
	Detail   string
	Err      error
	Duration time.Duration
}

// Counts tallies outcomes by status.
func Counts(outcomes []*Outcome) map[Status]int {
	counts := map[Status]int{}
	for _, o := range outcomes {
		if o != nil {
			counts[o.Status]++
		}
	}
	return counts
}

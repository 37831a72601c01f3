// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

const (
	// TeraGas is 10^12 gas.
	TeraGas uint64 = 1_000_000_000_000

	// MaxGas is the most gas a single function call may attach.
	MaxGas = 300 * TeraGas

	// MaxArgsLength is the largest accepted function call argument payload.
	MaxArgsLength = 4 << 20

	// MaxMethodNameLength is the longest accepted method name.
	MaxMethodNameLength = 256

	// MaxActions is the most actions a transaction may carry.
	MaxActions = 100
)

// Limits are the network's declared bounds on transaction contents.
type Limits struct {
	MaxGas              uint64
	MaxArgsLength       int
	MaxMethodNameLength int
	MaxActions          int
}

// DefaultLimits returns the mainnet protocol limits.
func DefaultLimits() Limits {
	return Limits{
		MaxGas:              MaxGas,
		MaxArgsLength:       MaxArgsLength,
		MaxMethodNameLength: MaxMethodNameLength,
		MaxActions:          MaxActions,
	}
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"regexp"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
)

const (
	// MinAccountIDLength is the minimum length of an account ID.
	MinAccountIDLength = 2

	// MaxAccountIDLength is the maximum length of an account ID.
	MaxAccountIDLength = 64
)

// Lowercase alphanumeric parts separated by single '-', '_', or '.'.
var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// AccountID is a named or implicit account identifier, such as
// "alice.testnet".
type AccountID string

func (a AccountID) String() string { return string(a) }

// Validate returns an error if the account ID is not well formed.
func (a AccountID) Validate() error {
	switch {
	case len(a) < MinAccountIDLength:
		return errors.ValidationError.WithFormat("account ID %q is too short", string(a))
	case len(a) > MaxAccountIDLength:
		return errors.ValidationError.WithFormat("account ID %q is too long", string(a))
	case !accountIDPattern.MatchString(string(a)):
		return errors.ValidationError.WithFormat("account ID %q is not well formed", string(a))
	}
	return nil
}

// IsValid returns true if the account ID is well formed.
func (a AccountID) IsValid() bool {
	return a.Validate() == nil
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package jsonrpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/AccumulateNetwork/jsonrpc2/v15"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
)

// ErrCodeServer is the code nodes use for handler errors. The error name is
// carried in the data.
const ErrCodeServer jsonrpc2.ErrorCode = -32000

// Error names carried in the data of a handler error.
const (
	ErrNameUnknownAccessKey   = "UNKNOWN_ACCESS_KEY"
	ErrNameUnknownAccount     = "UNKNOWN_ACCOUNT"
	ErrNameInvalidTransaction = "INVALID_TRANSACTION"
	ErrNameTimeout            = "TIMEOUT_ERROR"
	ErrNameInternal           = "INTERNAL_ERROR"
)

// classify converts a request error into a status. Transport failures and
// timeouts are network errors; an unknown key or account is not found; any
// other error response means the node refused the request.
func classify(method string, err error) error {
	if err == nil {
		return nil
	}

	var jerr jsonrpc2.Error
	if !errors.As(err, &jerr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return errors.NetworkError.WithFormat("%s: timed out: %w", method, err)
		}
		return errors.NetworkError.WithFormat("%s: %w", method, err)
	}

	text := strings.ToUpper(jerr.Message)
	if jerr.Data != nil {
		text += " " + strings.ToUpper(fmt.Sprint(jerr.Data))
	}

	switch {
	case strings.Contains(text, "TIMEOUT"):
		return errors.NetworkError.WithFormat("%s: %w", method, jerr)
	case strings.Contains(text, ErrNameInvalidTransaction):
		return errors.Rejected.WithFormat("%s: %w", method, jerr)
	case strings.Contains(text, ErrNameUnknownAccessKey),
		strings.Contains(text, ErrNameUnknownAccount),
		strings.Contains(text, "DOES NOT EXIST"):
		return errors.NotFound.WithFormat("%s: %w", method, jerr)
	default:
		return errors.Rejected.WithFormat("%s: %w", method, jerr)
	}
}

// errorResponse converts a status error into an error response named the way
// a node names it.
func errorResponse(err error) jsonrpc2.Error {
	msg := err.Error()
	switch errors.Code(err) {
	case errors.NotFound:
		return jsonrpc2.NewError(ErrCodeServer, "Server error", ErrNameUnknownAccessKey+": "+msg)
	case errors.Rejected, errors.ValidationError, errors.SigningError, errors.SequencingError:
		return jsonrpc2.NewError(ErrCodeServer, "Server error", ErrNameInvalidTransaction+": "+msg)
	case errors.NetworkError:
		return jsonrpc2.NewError(ErrCodeServer, "Server error", ErrNameTimeout+": "+msg)
	case errors.BadRequest, errors.EncodingError:
		return jsonrpc2.ErrorInvalidParams(msg)
	default:
		return jsonrpc2.NewError(ErrCodeServer, "Server error", ErrNameInternal+": "+msg)
	}
}

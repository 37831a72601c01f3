// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package jsonrpc

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/AccumulateNetwork/jsonrpc2/v15"
	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
)

func TestClassify(t *testing.T) {
	cases := map[string]struct {
		err  error
		want errors.Status
	}{
		"transport":        {io.ErrUnexpectedEOF, errors.NetworkError},
		"deadline":         {fmt.Errorf("post: %w", context.DeadlineExceeded), errors.NetworkError},
		"timeout response": {jsonrpc2.NewError(ErrCodeServer, "Server error", "TIMEOUT_ERROR"), errors.NetworkError},
		"unknown key":      {jsonrpc2.NewError(ErrCodeServer, "Server error", "UNKNOWN_ACCESS_KEY"), errors.NotFound},
		"unknown account":  {jsonrpc2.NewError(ErrCodeServer, "Server error", map[string]any{"name": "UNKNOWN_ACCOUNT"}), errors.NotFound},
		"does not exist":   {jsonrpc2.NewError(ErrCodeServer, "access key does not exist while viewing", nil), errors.NotFound},
		"invalid nonce":    {jsonrpc2.NewError(ErrCodeServer, "Server error", "INVALID_TRANSACTION: InvalidNonce"), errors.Rejected},
		"invalid wins":     {jsonrpc2.NewError(ErrCodeServer, "Server error", "INVALID_TRANSACTION: signer does not exist"), errors.Rejected},
		"other":            {jsonrpc2.NewError(ErrCodeServer, "Server error", "INTERNAL_ERROR"), errors.Rejected},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := classify("method", c.err)
			require.Equal(t, c.want, errors.Code(err))
		})
	}

	require.NoError(t, classify("method", nil))
}

func TestErrorResponseRoundTrip(t *testing.T) {
	cases := []errors.Status{
		errors.NotFound,
		errors.Rejected,
		errors.SigningError,
		errors.NetworkError,
	}
	want := map[errors.Status]errors.Status{
		errors.NotFound:     errors.NotFound,
		errors.Rejected:     errors.Rejected,
		errors.SigningError: errors.Rejected,
		errors.NetworkError: errors.NetworkError,
	}
	for _, code := range cases {
		t.Run(code.String(), func(t *testing.T) {
			resp := errorResponse(code.With("failed"))
			require.Equal(t, want[code], errors.Code(classify("method", resp)))
		})
	}

	resp := errorResponse(errors.EncodingError.With("bad bytes"))
	require.Equal(t, jsonrpc2.ErrorInvalidParams(nil).Code, resp.Code)
}

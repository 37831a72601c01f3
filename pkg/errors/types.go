// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import "strconv"

// Status is a request status code.
type Status uint64

const (
	// OK means the request completed successfully.
	OK Status = 200

	// BadRequest means the request was malformed, for example an invalid
	// configuration value.
	BadRequest Status = 400

	// Unauthorized means the access key's permission does not allow the
	// requested actions.
	Unauthorized Status = 401

	// NotFound means the account or access key is unknown to the network.
	NotFound Status = 404

	// Rejected means the network received a transaction and refused it.
	Rejected Status = 406

	// SequencingError means nonces were allocated twice against the same
	// access key state.
	SequencingError Status = 409

	// ValidationError means a transaction could not be built from the given
	// inputs.
	ValidationError Status = 422

	// EncodingError means a value could not be serialized or deserialized.
	EncodingError Status = 423

	// SigningError means the key pair is malformed or does not match the
	// transaction.
	SigningError Status = 424

	// InternalError means something went wrong that should not have.
	InternalError Status = 500

	// UnknownError means the cause of the error is not known.
	UnknownError Status = 501

	// NetworkError means the request could not be delivered or the response
	// did not arrive in time.
	NetworkError Status = 503
)

var statusNames = map[Status]string{
	OK:              "ok",
	BadRequest:      "bad request",
	Unauthorized:    "unauthorized",
	NotFound:        "not found",
	Rejected:        "rejected",
	SequencingError: "sequencing error",
	ValidationError: "validation error",
	EncodingError:   "encoding error",
	SigningError:    "signing error",
	InternalError:   "internal error",
	UnknownError:    "unknown error",
	NetworkError:    "network error",
}

// String returns the name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status " + strconv.FormatUint(uint64(s), 10)
}

// CallSite is a single frame of an error's call stack.
type CallSite struct {
	FuncName string `json:"funcName,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int64  `json:"line,omitempty"`
}

// Error is an error with a status code, an optional cause, and an optional
// call stack.
type Error struct {
	Message   string      `json:"message,omitempty"`
	Code      Status      `json:"code,omitempty"`
	Cause     *Error      `json:"cause,omitempty"`
	CallStack []*CallSite `json:"callStack,omitempty"`
}

// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package errors provides errors that carry a [Status] and, outside of
// production builds, the call sites they passed through.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"gitlab.com/accumulatenetwork/nearbatch/pkg/types/encoding"
)

// known returns true if the status says something about the failure.
func (s Status) known() bool { return s != 0 && s != UnknownError }

// Error implements error, so a bare status can be the target of [Is].
func (s Status) Error() string { return s.String() }

// Skip returns a factory that records the call site n frames further up.
func (s Status) Skip(n int) Factory {
	return Factory{skip: n, code: s}
}

func (s Status) Wrap(err error) error {
	return s.Skip(1).Wrap(err)
}

func (s Status) With(v ...interface{}) *Error {
	return s.Skip(1).With(v...)
}

func (s Status) WithFormat(format string, args ...interface{}) *Error {
	return s.Skip(1).WithFormat(format, args...)
}

// Factory creates errors with a given status.
type Factory struct {
	skip int
	code Status
}

// Wrap wraps err. If the factory's status is [UnknownError] the result takes
// the status of err.
func (f Factory) Wrap(err error) error {
	if err == nil {
		// Returning a nil *Error here would yield a non-nil error
		return nil
	}

	if !trackLocation && !f.code.known() {
		if _, ok := err.(*Error); ok {
			return err
		}
	}

	e := f.new()
	e.setCause(convert(err))
	return e
}

func (f Factory) With(v ...interface{}) *Error {
	e := f.new()
	e.Message = fmt.Sprint(v...)
	return e
}

// WithFormat formats the message with [fmt.Errorf]. A %w operand becomes the
// cause.
func (f Factory) WithFormat(format string, args ...interface{}) *Error {
	err := fmt.Errorf(format, args...)

	if u, ok := err.(interface{ Unwrap() error }); ok {
		e := f.new()
		e.Message = err.Error()
		e.setCause(convert(u.Unwrap()))
		return e
	}

	e := convert(err)
	e.Code = f.code
	e.recordCallSite(2 + f.skip)
	return e
}

func (f Factory) new() *Error {
	e := &Error{Code: f.code}
	e.recordCallSite(3 + f.skip)
	return e
}

// convert turns any error into an [*Error]. Encoding failures are classified
// as [EncodingError] and bare statuses keep their code.
func convert(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	msg := "(nil)"
	if err != nil {
		msg = err.Error()
	}

	var status Status
	if errors.As(err, &status) {
		return &Error{Code: status, Message: msg}
	}

	e = &Error{Code: UnknownError, Message: msg}
	var encErr encoding.Error
	if errors.As(err, &encErr) {
		e.Code = EncodingError
		err = encErr.E
	}

	if u, ok := err.(interface{ Unwrap() error }); ok {
		if cause := u.Unwrap(); cause != nil {
			e.setCause(convert(cause))
		}
	}
	return e
}

func (e *Error) setCause(cause *Error) {
	e.Cause = cause
	if cause == nil || e.Code.known() {
		return
	}

	// An unknown error with its own message takes the cause's status
	if e.Message != "" {
		e.Code = cause.Code
		return
	}

	// A bare wrapper becomes the cause, plus the wrapper's call site
	stack := e.CallStack
	*e = *cause
	e.CallStack = append(stack, cause.CallStack...)
}

func (e *Error) recordCallSite(depth int) {
	if !trackLocation {
		return
	}

	pc, file, line, ok := runtime.Caller(depth)
	if !ok {
		return
	}

	site := &CallSite{File: file, Line: int64(line)}
	if fn := runtime.FuncForPC(pc); fn != nil {
		site.FuncName = fn.Name()
	}
	e.CallStack = append(e.CallStack, site)
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return e.Code.String()
	}
}

func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Code
}

// Format prints the causal chain with call stacks for %+v.
func (e *Error) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		_, _ = f.Write([]byte(e.Print()))
		return
	}
	_, _ = f.Write([]byte(e.Error()))
}

// Print returns each error of the causal chain followed by its call stack.
// A message of the form '<description>: <cause>' is shortened to
// '<description>:'.
func (e *Error) Print() string {
	if e.CallStack == nil {
		return e.Error()
	}

	var sb strings.Builder
	for ; e != nil; e = e.Cause {
		msg := e.Message
		switch {
		case msg == "":
			msg = e.Code.String()
		case e.Cause != nil:
			msg = strings.TrimSuffix(msg, e.Cause.Message)
		}

		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(msg)
		sb.WriteByte('\n')
		for _, site := range e.CallStack {
			fmt.Fprintf(&sb, "%s\n    %s:%d\n", site.FuncName, site.File, site.Line)
		}
	}
	return sb.String()
}

// Is matches a [Status], or an [*Error] with the same status, anywhere in the
// causal chain.
func (e *Error) Is(target error) bool {
	var code Status
	switch t := target.(type) {
	case Status:
		code = t
	case *Error:
		code = t.Code
	default:
		return false
	}

	for ; e != nil; e = e.Cause {
		if e.Code == code {
			return true
		}
	}
	return false
}

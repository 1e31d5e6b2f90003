// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"errors"
	"fmt"
)

// TransportError reports that a request did not produce a decodable reply:
// the POST failed, the gateway answered with a non-2xx status, or the body
// was not a JSON reply.
//
// A TransportError is fatal for the request that raised it. When it comes
// from Call, the returned Session has already been advanced.
type TransportError struct {
	// Operation name that failed ("login" or "call")
	Operation string

	// StatusCode is the HTTP status, 0 if no response was received
	StatusCode int

	// Human-readable error message
	Message string

	// InternalMsg contains detail for internal logging (e.g. a body excerpt)
	InternalMsg string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("xmo: %s failed: %s (status: %d)", e.Operation, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("xmo: %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DetailedError returns the full error message including internal details
//
// This should only be used in secure logging contexts, the internal
// message may contain parts of the gateway response.
func (e *TransportError) DetailedError() string {
	if e.InternalMsg == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s (internal: %s)", e.Error(), e.InternalMsg)
}

// ProtocolError reports a decoded reply whose error code is not ErrCodeOK
//
// Login returns it for any non-success code. Call never does; Reply.Err
// builds one for callers that want strict checking.
type ProtocolError struct {
	// Operation name that failed
	Operation string

	// Code is the gateway error code
	Code int64

	// Description is the gateway error description (e.g. XMO_INVALID_SESSION_ERR)
	Description string
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("xmo: %s failed: unexpected error <%d>: <%s>", e.Operation, e.Code, e.Description)
}

// IsTransportError reports whether err is or wraps a *TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocolError reports whether err is or wraps a *ProtocolError
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

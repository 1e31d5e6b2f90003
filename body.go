// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// Body provides a fluent interface for building JSON documents
// using sjson for path-based manipulation.
//
// Keys are emitted in insertion order, which keeps request envelopes
// byte-for-byte stable. The Body builder tracks errors internally to enable
// method chaining while providing error checking through String() or Err().
//
// Example:
//
//	body := xmo.Body{}.
//	    Set("request.id", 1).
//	    Set("request.session-id", "42").
//	    Set("request.priority", false)
//
//	value, err := body.String()
//	if err != nil {
//	    log.Fatal(err)
//	}
type Body struct {
	// str contains the JSON string being built
	str string
	// err tracks the first error encountered during building
	err error
}

// Set sets a value at the specified JSON path and returns a new Body
//
// The path uses dot notation for nested fields (e.g., "request.id").
// Values sjson cannot encode natively (structs, slices, maps) are encoded
// with encoding/json.
//
// Once an error occurs, all subsequent operations are no-ops that preserve the error.
func (b Body) Set(path string, value any) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.Set(b.str, path, value)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Set(%q): %w", path, err)}
	}
	return Body{str: result, err: nil}
}

// SetRaw sets pre-encoded JSON at the specified path and returns a new Body
func (b Body) SetRaw(path, raw string) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.SetRaw(b.str, path, raw)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("SetRaw(%q): %w", path, err)}
	}
	return Body{str: result, err: nil}
}

// setSessionID writes a session id at path. raw is preferred when it holds
// the gateway's own encoding; an unset or zero id becomes the "0" sentinel.
func (b Body) setSessionID(path, id, raw string) Body {
	if raw != "" && raw != "0" && raw != `"0"` {
		return b.SetRaw(path, raw)
	}
	if id == "" {
		id = NoSessionID
	}
	return b.Set(path, id)
}

// Delete removes a value at the specified JSON path and returns a new Body
func (b Body) Delete(path string) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.Delete(b.str, path)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Delete(%q): %w", path, err)}
	}
	return Body{str: result, err: nil}
}

// String returns the JSON string representation and any error encountered during building
func (b Body) String() (string, error) {
	return b.str, b.err
}

// Err returns any error that occurred during the building process
func (b Body) Err() error {
	return b.err
}

// Bytes returns the JSON byte slice representation and any error encountered during building
func (b Body) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []byte(b.str), nil
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import "time"

// Client configuration options using the functional options pattern

// WithHTTPClient sets the transport used for requests
//
// Any value with a Do(*http.Request) method works, *http.Client included.
// When set, RequestTimeout is not applied; configure the timeout on the
// supplied client instead.
func WithHTTPClient(doer HTTPDoer) func(*Client) {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// RequestTimeout sets the timeout of each HTTP round trip (default: 15s)
func RequestTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.RequestTimeout = duration
	}
}

// EndpointPath sets the URL path of the RPC handler (default: /cgi/json-req)
func EndpointPath(path string) func(*Client) {
	return func(c *Client) {
		c.EndpointPath = path
	}
}

// UserAgent overrides the browser User-Agent sent with every request
func UserAgent(userAgent string) func(*Client) {
	return func(c *Client) {
		c.UserAgent = userAgent
	}
}

// PasswordSalt sets the GUI password salt mixed into the password digest
//
// Stock firmware uses no salt. Leave this unset unless the gateway web UI
// for your firmware hashes the password with a salt.
func PasswordSalt(salt string) func(*Client) {
	return func(c *Client) {
		c.salt = salt
	}
}

// WithGuestSessionCookie attaches the bell_session cookie to every request
//
// The web UI stores this cookie to restore its state after a reload. It has
// not been observed to be checked by the gateway and is off by default.
// See GuestSessionCookie.
func WithGuestSessionCookie(enabled bool) func(*Client) {
	return func(c *Client) {
		c.guestCookie = enabled
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// Request and reply JSON logged at Debug level is redacted: auth-key,
// cnonce, nonce, ha1 and password values never reach the logger.
//
// Example:
//
//	logger := xmo.NewDefaultLogger(xmo.LogLevelInfo)
//	client, _ := xmo.NewClient("192.168.2.1", xmo.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs
//
// Default: disabled (false)
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

// Session is the authenticated conversation state with a gateway
//
// Session is a value. Login produces the first one and every Call consumes
// one Session and returns the next; callers thread the returned value into
// their next Call. The zero Session is unauthenticated.
//
// Calls against one Session must be issued one at a time, each with the
// Session returned by the previous call. Two calls made with the same
// RequestCounter desynchronize the session and every later call will fail
// authentication; the only remedy is a fresh Login.
type Session struct {
	// Endpoint is the URL of the RPC handler
	Endpoint string

	// ID is the server-issued session id
	ID string

	// Nonce is the server-issued device nonce mixed into every signature
	Nonce string

	// RequestCounter is the id of the next request; 1 right after login
	RequestCounter int64

	// idRaw is the id exactly as the gateway encoded it, a JSON string or number
	idRaw string

	// credentials are kept so each call can be freshly signed
	creds Credentials
}

// Authenticated reports whether the session was produced by a successful login
func (s Session) Authenticated() bool {
	return s.ID != "" && s.RequestCounter > 0
}

// Username returns the user the session was opened for
func (s Session) Username() string {
	return s.creds.Username
}

// next returns the session that follows a sent request
func (s Session) next() Session {
	s.RequestCounter++
	return s
}

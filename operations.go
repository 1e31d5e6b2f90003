// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"context"
	"fmt"
	"net/http"
)

// Input validation constants
const (
	// MaxXPathLength is the maximum length of an action xpath
	MaxXPathLength = 2048

	// MaxActionsPerRequest is the maximum number of actions in one request
	MaxActionsPerRequest = 256
)

// validateActions validates the actions of a Call
//
// Checks:
//   - At least one and at most MaxActionsPerRequest actions
//   - Every method is usable (ValidateMethod)
//   - Action ids are unique within the request
//   - XPaths are bounded and contain no null bytes
func validateActions(actions []Action) error {
	if len(actions) == 0 {
		return fmt.Errorf("actions cannot be empty")
	}
	if len(actions) > MaxActionsPerRequest {
		return fmt.Errorf("too many actions: %d (max %d)", len(actions), MaxActionsPerRequest)
	}

	seen := make(map[int]struct{}, len(actions))
	for i, action := range actions {
		if err := ValidateMethod(action.Method); err != nil {
			return fmt.Errorf("action at index %d: %w", i, err)
		}
		if _, dup := seen[action.ID]; dup {
			return fmt.Errorf("action at index %d: duplicate id %d", i, action.ID)
		}
		seen[action.ID] = struct{}{}

		if len(action.XPath) > MaxXPathLength {
			return fmt.Errorf("action at index %d: xpath exceeds maximum length of %d characters", i, MaxXPathLength)
		}
		if err := checkXPathSecurity(action.XPath); err != nil {
			return fmt.Errorf("action at index %d: %w", i, err)
		}
	}
	return nil
}

// checkXPathSecurity rejects xpaths containing null bytes
func checkXPathSecurity(xpath string) error {
	for i := 0; i < len(xpath); i++ {
		if xpath[i] == 0 {
			return fmt.Errorf("xpath contains null byte at position %d", i)
		}
	}
	return nil
}

// checkContextCancellation returns the context error if ctx is done
func checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// guestSessionCookie returns the optional bell_session cookie for a request
func (c *Client) guestSessionCookie(session Session) (*http.Cookie, error) {
	if !c.guestCookie {
		return nil, nil
	}
	return GuestSessionCookie(session, c.salt)
}

// Login opens a session with the gateway
//
// The login request has id 0, session-id "0" and priority set, and is
// signed with request index 0 and an empty device nonce, so it never
// depends on earlier sessions. Any reply code other than ErrCodeOK fails
// with a *ProtocolError and no Session. On success the Session carries the
// server-issued id and nonce and a RequestCounter of 1.
//
// Example:
//
//	session, reply, err := client.Login(ctx, "admin", password)
//	if err != nil {
//	    var perr *xmo.ProtocolError
//	    if errors.As(err, &perr) {
//	        log.Fatalf("login rejected: %s", perr.Description)
//	    }
//	    log.Fatal(err)
//	}
func (c *Client) Login(ctx context.Context, username, password string) (Session, Reply, error) {
	if err := checkContextCancellation(ctx); err != nil {
		return Session{}, Reply{}, err
	}

	creds := Credentials{Username: username, Password: password, Salt: c.salt}
	env := NewEnvelope(0, NoSessionID, true, []Action{LoginAction(0, username)})

	signed, err := Sign(env, 0, creds, "", 0)
	if err != nil {
		return Session{}, Reply{}, fmt.Errorf("login: %w", err)
	}

	cookie, err := c.guestSessionCookie(Session{})
	if err != nil {
		return Session{}, Reply{}, fmt.Errorf("login: %w", err)
	}

	req, err := c.newRequest(ctx, c.Endpoint(), signed, cookie)
	if err != nil {
		return Session{}, Reply{}, fmt.Errorf("login: %w", err)
	}

	c.logger.Debug(ctx, "xmo login", "endpoint", c.Endpoint(), "user", username)

	reply, err := c.roundTrip(ctx, "login", req)
	if err != nil {
		return Session{}, Reply{}, err
	}

	if !reply.OK() {
		c.logger.Error(ctx, "xmo login rejected",
			"user", username,
			"code", reply.Error.Code,
			"description", reply.Error.Description)
		return Session{}, reply, &ProtocolError{
			Operation:   "login",
			Code:        reply.Error.Code,
			Description: reply.Error.Description,
		}
	}

	id := reply.GetValue("actions.0.callbacks.0.parameters.id")
	nonce := reply.GetValue("actions.0.callbacks.0.parameters.nonce")
	if id.String() == "" || !nonce.Exists() {
		return Session{}, reply, &ProtocolError{
			Operation:   "login",
			Code:        reply.Error.Code,
			Description: "reply carries no session id or nonce",
		}
	}

	session := Session{
		Endpoint:       c.Endpoint(),
		ID:             id.String(),
		Nonce:          nonce.String(),
		RequestCounter: 1,
		idRaw:          id.Raw,
		creds:          creds,
	}

	c.logger.Info(ctx, "xmo session opened",
		"endpoint", session.Endpoint,
		"user", username,
		"session", session.ID)

	return session, reply, nil
}

// Call sends actions on an authenticated session
//
// The request id and signature index are session.RequestCounter. Call
// returns the next Session, with RequestCounter advanced by one, as soon as
// the request has been handed to the transport: on success, on a reply
// whose code is not ErrCodeOK, and on a transport failure after sending.
// Thread the returned Session into the next Call.
//
// A non-success reply code is not an error; inspect reply.Error or use
// reply.Err(). Errors returned before sending (unauthenticated session,
// invalid actions, canceled context) leave the Session unchanged.
//
// Example:
//
//	session, reply, err := client.Call(ctx, session,
//	    xmo.GetValue(0, "Device/Ethernet/Interfaces"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !reply.OK() {
//	    log.Printf("getValue failed: %s", reply.Error.Description)
//	}
//	ifaces := reply.Value(0).Array()
func (c *Client) Call(ctx context.Context, session Session, actions ...Action) (Session, Reply, error) {
	if !session.Authenticated() {
		return session, Reply{}, fmt.Errorf("call: session is not authenticated")
	}
	if err := validateActions(actions); err != nil {
		return session, Reply{}, fmt.Errorf("call: %w", err)
	}
	if err := checkContextCancellation(ctx); err != nil {
		return session, Reply{}, err
	}

	env := NewEnvelope(session.RequestCounter, session.ID, false, actions)
	env.RawSessionID = session.idRaw
	signed, err := Sign(env, session.RequestCounter, session.creds, session.Nonce, 0)
	if err != nil {
		return session, Reply{}, fmt.Errorf("call: %w", err)
	}

	cookie, err := c.guestSessionCookie(session)
	if err != nil {
		return session, Reply{}, fmt.Errorf("call: %w", err)
	}

	endpoint := session.Endpoint
	if endpoint == "" {
		endpoint = c.Endpoint()
	}
	req, err := c.newRequest(ctx, endpoint, signed, cookie)
	if err != nil {
		return session, Reply{}, fmt.Errorf("call: %w", err)
	}

	next := session.next()

	reply, err := c.roundTrip(ctx, "call", req)
	if err != nil {
		return next, Reply{}, err
	}

	if !reply.OK() {
		c.logger.Warn(ctx, "xmo call returned error code",
			"session", session.ID,
			"id", session.RequestCounter,
			"code", reply.Error.Code,
			"description", reply.Error.Description)
	}

	return next, reply, nil
}

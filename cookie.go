// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"fmt"
	"net/http"
	"net/url"
)

// GuestSessionCookieName is the cookie the gateway web UI uses to restore its state
const GuestSessionCookieName = "bell_session"

const guestUser = "guest"

// GuestSessionCookie builds the bell_session state cookie for a request
//
// This is an alternate, unverified code path. The web UI derives the cookie
// from the built-in guest identity regardless of the logged-in user, and no
// gateway firmware has been observed to check it; requests authenticate
// through the auth-key alone. It is only sent when the client is created
// with WithGuestSessionCookie(true).
//
// session is the Session the request is sent on; the zero Session stands
// for the login request. The cookie stores its zero-based request counter
// one-based. salt is the client's PasswordSalt, applied to the guest
// password like any other.
func GuestSessionCookie(session Session, salt string) (*http.Cookie, error) {
	deviceNonce := session.Nonce
	guestPass := EncodePassword("", salt)
	ha1 := CredentialHash(guestUser, deviceNonce, "", salt)

	value, err := Body{}.
		Set("req_id", session.RequestCounter+1).
		setSessionID("sess_id", session.ID, session.idRaw).
		Set("basic", false).
		Set("user", guestUser).
		Set("dataModel.name", "Internal").
		Set("dataModel.nss", []Namespace{GatewayNamespace}).
		Set("ha1", ha1[:10]+guestPass+ha1[10:]).
		Set("nonce", deviceNonce).
		String()
	if err != nil {
		return nil, fmt.Errorf("guest session cookie: %w", err)
	}

	return &http.Cookie{
		Name:  GuestSessionCookieName,
		Value: url.QueryEscape(value),
	}, nil
}

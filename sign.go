// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Credentials are the inputs of the credential hash that stay fixed for a session
type Credentials struct {
	Username string
	Password string

	// Salt is the GUI password salt, empty on stock firmware
	Salt string
}

// NewClientNonce returns a random client nonce in [0x100000, 0xFFFFFFFF]
//
// The gateway only needs low collision probability within its short
// replay window, not unpredictability; crypto/rand is used because it
// needs no seeding.
func NewClientNonce() (uint32, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generate client nonce: %w", err)
	}
	span := uint64(^uint32(0)) - uint64(clientNonceMin) + 1
	n := binary.BigEndian.Uint64(buf[:]) % span
	return uint32(n + uint64(clientNonceMin)), nil
}

// Sign returns a copy of env carrying a client nonce and auth-key
//
// requestIndex must equal env.ID and the request counter the server expects.
// deviceNonce is empty for login and the session nonce afterwards.
// A zero clientNonce asks Sign to generate one. env is not modified.
func Sign(env Envelope, requestIndex int64, creds Credentials, deviceNonce string, clientNonce uint32) (Envelope, error) {
	if requestIndex != env.ID {
		return Envelope{}, fmt.Errorf("sign: request index %d does not match envelope id %d", requestIndex, env.ID)
	}
	if clientNonce == 0 {
		var err error
		clientNonce, err = NewClientNonce()
		if err != nil {
			return Envelope{}, fmt.Errorf("sign: %w", err)
		}
	}

	ha1 := CredentialHash(creds.Username, deviceNonce, creds.Password, creds.Salt)

	signed := env
	signed.Actions = append([]Action(nil), env.Actions...)
	signed.CNonce = clientNonce
	signed.AuthKey = AuthKey(ha1, requestIndex, clientNonce, TransportPath)
	return signed, nil
}

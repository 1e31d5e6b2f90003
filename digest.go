// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"crypto/sha512"
	"encoding/hex"
	"strconv"
)

// hashSHA512 returns the lowercase hex SHA-512 digest of s.
func hashSHA512(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// EncodePassword returns the digest of the password as the device stores it.
//
// With an empty salt this is the plain SHA-512 of the password. With a
// non-empty salt the digest covers "password:salt". Firmware builds that
// use a GUI password salt need it configured via the PasswordSalt option.
func EncodePassword(password, salt string) string {
	if salt != "" {
		return hashSHA512(password + ":" + salt)
	}
	return hashSHA512(password)
}

// CredentialHash derives the per-session credential hash
// ("username:deviceNonce:EncodePassword(password)").
//
// deviceNonce is empty for the login request and the server-issued session
// nonce for every request after it.
func CredentialHash(username, deviceNonce, password, salt string) string {
	return hashSHA512(username + ":" + deviceNonce + ":" + EncodePassword(password, salt))
}

// AuthKey derives the auth-key placed in a request envelope.
//
// transportPath is the logical endpoint path shared with the server
// (TransportPath), not the request URL.
func AuthKey(credentialHash string, requestIndex int64, clientNonce uint32, transportPath string) string {
	return hashSHA512(credentialHash + ":" +
		strconv.FormatInt(requestIndex, 10) + ":" +
		strconv.FormatUint(uint64(clientNonce), 10) + ":" +
		transportPath)
}

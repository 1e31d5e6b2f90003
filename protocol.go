// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import "fmt"

// Protocol constants shared with the gateway firmware
const (
	// ErrCodeOK is the reply error code the gateway uses for success (XMO_REQUEST_NO_ERR)
	ErrCodeOK int64 = 16777216

	// NamespaceName is the data model namespace prefix declared on every action
	NamespaceName = "gtw"

	// NamespaceURI is the data model namespace URI declared on every action
	NamespaceURI = "http://sagemcom.com/gateway-data"

	// TransportPath is the logical endpoint path mixed into every auth-key.
	// It is not the request URL.
	TransportPath = "JSON:/cgi/json-req"

	// DefaultEndpointPath is the URL path of the RPC handler on the gateway
	DefaultEndpointPath = "/cgi/json-req"

	// NoSessionID is the session-id sentinel sent with the login request
	NoSessionID = "0"
)

// Method names understood by the gateway
const (
	// MethodLogIn opens a session
	MethodLogIn = "logIn"

	// MethodGetValue reads the subtree at an xpath
	MethodGetValue = "getValue"

	// MethodSetValue writes a value at an xpath
	MethodSetValue = "setValue"
)

// Login session-options literals
const (
	TimeFormatISO8601             = "ISO_8601"
	WriteOnlyString               = "_XMO_WRITE_ONLY_"
	UndefinedWriteOnlyString      = "_XMO_UNDEFINED_WRITE_ONLY_"
	defaultCapabilityDepth        = 2
	defaultDepth                  = 2
	persistentSession             = "true"
	clientNonceMin         uint32 = 0x100000
)

// GatewayNamespace is the namespace declaration for the gateway data model
var GatewayNamespace = Namespace{Name: NamespaceName, URI: NamespaceURI}

// ValidateMethod checks that a method name is usable in an action
//
// The gateway accepts methods this package does not know about, so only
// structural problems are rejected. logIn is reserved for Client.Login.
func ValidateMethod(method string) error {
	if method == "" {
		return fmt.Errorf("method cannot be empty")
	}
	if method == MethodLogIn {
		return fmt.Errorf("method %s is reserved for Login", MethodLogIn)
	}
	return nil
}

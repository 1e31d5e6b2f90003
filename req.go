// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import "fmt"

// Namespace is a data model namespace declaration
type Namespace struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Options carries the per-action namespace options
type Options struct {
	Namespaces []Namespace `json:"nss"`
}

// GatewayOptions returns the options declaring the gateway namespace
func GatewayOptions() *Options {
	return &Options{Namespaces: []Namespace{GatewayNamespace}}
}

// Action is one method invocation inside a request envelope
//
// ID must be unique within a request; the reply carries the same ID on the
// matching ActionReply.
type Action struct {
	ID         int      `json:"id"`
	Method     string   `json:"method"`
	XPath      string   `json:"xpath,omitempty"`
	Parameters any      `json:"parameters,omitempty"`
	Options    *Options `json:"options,omitempty"`
}

// ContextFlags controls what the gateway includes in replies for the session
type ContextFlags struct {
	GetContentName bool `json:"get-content-name"`
	LocalTime      bool `json:"local-time"`
	NoDefault      bool `json:"no-default"`
}

// CapabilityFlags selects capability metadata returned by the gateway
type CapabilityFlags struct {
	Name         bool `json:"name"`
	DefaultValue bool `json:"default-value"`
	Restriction  bool `json:"restriction"`
	Description  bool `json:"description"`
}

// CompatibilityFlags selects compatibility metadata returned by the gateway
type CompatibilityFlags struct {
	Flags        bool `json:"flags"`
	DefaultValue bool `json:"default-value"`
	Type         bool `json:"type"`
}

// SessionOptions are the session-options sent with the logIn action
type SessionOptions struct {
	Namespaces               []Namespace        `json:"nss"`
	ContextFlags             ContextFlags       `json:"context-flags"`
	CapabilityDepth          int                `json:"capability-depth"`
	CapabilityFlags          CapabilityFlags    `json:"capability-flags"`
	TimeFormat               string             `json:"time-format"`
	CompatibilityFlags       CompatibilityFlags `json:"compatibility-flags"`
	Depth                    int                `json:"depth"`
	WriteOnlyString          string             `json:"write-only-string"`
	UndefinedWriteOnlyString string             `json:"undefined-write-only-string"`
}

// LoginParameters are the parameters of the logIn action
type LoginParameters struct {
	User           string         `json:"user"`
	Persistent     string         `json:"persistent"`
	SessionOptions SessionOptions `json:"session-options"`
}

// LoginAction builds the logIn action with the fixed session options the
// gateway web UI uses.
func LoginAction(id int, username string) Action {
	return Action{
		ID:     id,
		Method: MethodLogIn,
		Parameters: LoginParameters{
			User:       username,
			Persistent: persistentSession,
			SessionOptions: SessionOptions{
				Namespaces:      []Namespace{GatewayNamespace},
				ContextFlags:    ContextFlags{GetContentName: true, LocalTime: true, NoDefault: false},
				CapabilityDepth: defaultCapabilityDepth,
				CapabilityFlags: CapabilityFlags{Name: true, DefaultValue: false, Restriction: true, Description: false},
				TimeFormat:      TimeFormatISO8601,
				CompatibilityFlags: CompatibilityFlags{
					Flags:        true,
					DefaultValue: true,
					Type:         true,
				},
				Depth:                    defaultDepth,
				WriteOnlyString:          WriteOnlyString,
				UndefinedWriteOnlyString: UndefinedWriteOnlyString,
			},
		},
	}
}

// NewAction builds a generic action for use after login
//
// A nil options value means the action carries no namespace options.
func NewAction(id int, method, xpath string, options *Options) Action {
	return Action{
		ID:      id,
		Method:  method,
		XPath:   xpath,
		Options: options,
	}
}

// GetValue builds a getValue action against xpath in the gateway namespace
//
// Example:
//
//	session, reply, err := client.Call(ctx, session,
//	    xmo.GetValue(0, "Device/Ethernet/Interfaces"))
func GetValue(id int, xpath string) Action {
	return NewAction(id, MethodGetValue, xpath, GatewayOptions())
}

// SetValue builds a setValue action writing value at xpath
func SetValue(id int, xpath string, value any) Action {
	action := NewAction(id, MethodSetValue, xpath, GatewayOptions())
	action.Parameters = map[string]any{"value": value}
	return action
}

// Envelope is the outer request wrapping one or more actions
//
// CNonce and AuthKey are zero until the envelope has been passed through Sign.
type Envelope struct {
	// ID is the request counter of the session (0 for login)
	ID int64

	// SessionID is the server-issued session id, empty before login
	SessionID string

	// RawSessionID is the session id as JSON, as the gateway issued it.
	// When set it is sent instead of SessionID, so a numeric id stays a number.
	RawSessionID string

	// Priority is true only for the login request
	Priority bool

	Actions []Action

	CNonce  uint32
	AuthKey string
}

// NewEnvelope assembles an unsigned request envelope
func NewEnvelope(id int64, sessionID string, priority bool, actions []Action) Envelope {
	return Envelope{
		ID:        id,
		SessionID: sessionID,
		Priority:  priority,
		Actions:   actions,
	}
}

// Signed reports whether the envelope carries an auth-key
func (e Envelope) Signed() bool {
	return e.AuthKey != ""
}

// Body renders the envelope in wire form
//
// Keys are emitted in the order the gateway web UI sends them:
// id, session-id, priority, actions, cnonce, auth-key.
func (e Envelope) Body() Body {
	actions := e.Actions
	if actions == nil {
		actions = []Action{}
	}

	body := Body{}.
		Set("request.id", e.ID).
		setSessionID("request.session-id", e.SessionID, e.RawSessionID).
		Set("request.priority", e.Priority).
		Set("request.actions", actions)
	if e.Signed() {
		body = body.
			Set("request.cnonce", e.CNonce).
			Set("request.auth-key", e.AuthKey)
	}
	return body
}

// Bytes returns the compact JSON wire form of the envelope
func (e Envelope) Bytes() ([]byte, error) {
	b, err := e.Body().Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return b, nil
}

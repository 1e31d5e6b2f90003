// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ReplyError is the {code, description} pair the gateway attaches to
// replies, actions and callbacks
type ReplyError struct {
	Code        int64
	Description string
}

// OK reports whether the code is the success sentinel
func (e ReplyError) OK() bool {
	return e.Code == ErrCodeOK
}

// Callback is one result entry of an action
type Callback struct {
	// XPath is the path the callback refers to, if the gateway sent one
	XPath string

	// Result is the per-callback status, if the gateway sent one
	Result ReplyError

	// Parameters holds the result parameters (e.g. "value", or "id" and
	// "nonce" for logIn)
	Parameters gjson.Result
}

// ActionReply is the reply to one Action, matched by ID
type ActionReply struct {
	ID        int
	Error     ReplyError
	Callbacks []Callback
}

// Reply is a decoded gateway response
type Reply struct {
	// Error is the request-level status
	Error ReplyError

	// Actions holds one entry per action, in the order the gateway sent them
	Actions []ActionReply

	// Raw is the JSON of the reply object
	Raw string
}

// OK reports whether the reply carries the success code
func (r Reply) OK() bool {
	return r.Error.OK()
}

// Err returns a *ProtocolError if the reply does not carry the success code
//
// Call never fails on a non-success code; callers that need strict
// checking use Err.
//
// Example:
//
//	session, reply, err := client.Call(ctx, session, xmo.GetValue(0, xpath))
//	if err != nil {
//	    return err
//	}
//	if err := reply.Err(); err != nil {
//	    return err
//	}
func (r Reply) Err() error {
	if r.OK() {
		return nil
	}
	return &ProtocolError{
		Operation:   "call",
		Code:        r.Error.Code,
		Description: r.Error.Description,
	}
}

// GetValue retrieves a value from the reply using a gjson path
//
// Example paths:
//   - "error.code" - request status code
//   - "actions.0.callbacks.0.parameters.value" - value of the first action
//   - "actions.#(id==2).callbacks.0.parameters.value" - value of action 2
func (r Reply) GetValue(path string) gjson.Result {
	if r.Raw == "" {
		return gjson.Result{}
	}
	return gjson.Get(r.Raw, path)
}

// Action returns the reply to the action with the given id
func (r Reply) Action(id int) (ActionReply, bool) {
	for _, a := range r.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return ActionReply{}, false
}

// Value returns parameters.value of the first callback of the action with
// the given id. The result does not exist if the action or value is missing.
func (r Reply) Value(id int) gjson.Result {
	a, ok := r.Action(id)
	if !ok || len(a.Callbacks) == 0 {
		return gjson.Result{}
	}
	return a.Callbacks[0].Parameters.Get("value")
}

// JSON returns the raw reply JSON
func (r Reply) JSON() string {
	return r.Raw
}

func parseReplyError(v gjson.Result) ReplyError {
	return ReplyError{
		Code:        v.Get("code").Int(),
		Description: v.Get("description").String(),
	}
}

// parseReply decodes a response body of the form {"reply": {...}}
func parseReply(body []byte) (Reply, error) {
	if !gjson.ValidBytes(body) {
		return Reply{}, fmt.Errorf("response is not valid JSON")
	}
	raw := gjson.GetBytes(body, "reply")
	if !raw.IsObject() {
		return Reply{}, fmt.Errorf("response has no reply object")
	}

	reply := Reply{
		Error: parseReplyError(raw.Get("error")),
		Raw:   raw.Raw,
	}
	for _, a := range raw.Get("actions").Array() {
		action := ActionReply{
			ID:    int(a.Get("id").Int()),
			Error: parseReplyError(a.Get("error")),
		}
		for _, cb := range a.Get("callbacks").Array() {
			action.Callbacks = append(action.Callbacks, Callback{
				XPath:      cb.Get("xpath").String(),
				Result:     parseReplyError(cb.Get("result")),
				Parameters: cb.Get("parameters"),
			})
		}
		reply.Actions = append(reply.Actions, action)
	}
	return reply, nil
}

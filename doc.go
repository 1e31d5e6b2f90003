// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package xmo is a client for the JSON-RPC management protocol spoken by
// Sagemcom residential gateways (marketed among others as the Bell Giga Hub),
// the protocol the gateway web UI uses against /cgi/json-req.
//
// The package implements the authenticated session: the challenge-response
// login, the per-request SHA-512 signature, and the request counter that
// must advance in lockstep with the gateway. Data is addressed by xpath in a
// tree-shaped data model and read or written through actions such as
// getValue and setValue.
//
// # Quick Start
//
//	client, err := xmo.NewClient("192.168.2.1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	session, _, err := client.Login(ctx, "admin", os.Getenv("GIGAHUB_PASSWORD"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, reply, err := client.Call(ctx, session,
//	    xmo.GetValue(0, "Device/DeviceInfo/SoftwareVersion"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := reply.Err(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(reply.Value(0).String())
//
// # Sessions
//
// A Session is a value. Login returns the first one; each Call takes a
// Session and returns the next one with its request counter advanced. The
// counter advances whenever a request was sent, even if the reply carries an
// error code or the transport failed after sending, because the gateway may
// have consumed the id.
//
// Calls on one Session must be sequential. Sharing a Session between
// goroutines requires external serialization (for example one mutex per
// Session, see examples/concurrent). If the counter ever diverges from the
// gateway's, every later call fails authentication and there is no way to
// resynchronize: discard the Session and Login again.
//
// # Error Handling
//
// Transport failures (connection errors, non-2xx status, undecodable body)
// are returned as *TransportError. Login returns *ProtocolError for any reply
// code other than ErrCodeOK. Call does not: a failed action such as an
// unknown xpath is returned as data, and callers check reply.Error or
// reply.Err() themselves.
//
// # Replies
//
// Reply exposes the decoded structure (Actions, Callbacks) and the raw JSON
// for gjson queries:
//
//	stats := reply.GetValue("actions.#(id==1).callbacks.0.parameters.value.Stats")
//	fmt.Println(stats.Get("BytesReceived").Int())
//
// # References
//
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package xmo

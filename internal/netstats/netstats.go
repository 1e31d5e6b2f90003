// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package netstats discovers the network interfaces of a gateway and reads
// their traffic counters.
package netstats

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/netascode/go-xmo"
)

// Caller sends actions on a session. *xmo.Client implements it.
type Caller interface {
	Call(ctx context.Context, session xmo.Session, actions ...xmo.Action) (xmo.Session, xmo.Reply, error)
}

// Sample is one reading of the counters of an interface.
type Sample struct {
	Interface       string
	PacketsReceived uint64
	PacketsSent     uint64
	BytesReceived   uint64
	BytesSent       uint64
}

// Interfaces maps an interface name to the xpath of its Stats node.
type Interfaces map[string]string

// Names returns the interface names in sorted order.
func (ifs Interfaces) Names() []string {
	names := make([]string, 0, len(ifs))
	for name := range ifs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns the union of ifs and other. Entries of other win.
func (ifs Interfaces) Merge(other Interfaces) Interfaces {
	out := make(Interfaces, len(ifs)+len(other))
	for k, v := range ifs {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// StatsXPath returns the xpath of the Stats node of interface uid of kind.
func StatsXPath(kind string, uid int64) string {
	return fmt.Sprintf("Device/%s/Interfaces/Interface[@uid='%d']/Stats", kind, uid)
}

// Discover lists the interfaces of kind (e.g. "Ethernet" or "Optical").
//
// Entries without an IfcName are skipped. A reply code other than success
// fails with the reply's *xmo.ProtocolError. The returned Session must be
// used for the next call, also when an error is returned.
func Discover(ctx context.Context, c Caller, session xmo.Session, kind string) (xmo.Session, Interfaces, error) {
	session, reply, err := c.Call(ctx, session, xmo.GetValue(0, "Device/"+kind+"/Interfaces"))
	if err != nil {
		return session, nil, fmt.Errorf("discover %s interfaces: %w", kind, err)
	}
	if err := reply.Err(); err != nil {
		return session, nil, fmt.Errorf("discover %s interfaces: %w", kind, err)
	}

	value := reply.Value(0)
	if !value.IsArray() {
		return session, nil, fmt.Errorf("discover %s interfaces: reply carries no interface list", kind)
	}

	interfaces := make(Interfaces)
	value.ForEach(func(_, ifc gjson.Result) bool {
		name := ifc.Get("IfcName").String()
		if name == "" {
			return true
		}
		interfaces[name] = StatsXPath(kind, ifc.Get("uid").Int())
		return true
	})
	return session, interfaces, nil
}

// Collect reads the counters of all interfaces in one request.
//
// Action ids are assigned 0..n-1 over the interface names in sorted order,
// and the returned samples follow the same order.
func Collect(ctx context.Context, c Caller, session xmo.Session, interfaces Interfaces) (xmo.Session, []Sample, error) {
	names := interfaces.Names()
	if len(names) == 0 {
		return session, nil, nil
	}

	actions := make([]xmo.Action, len(names))
	for i, name := range names {
		actions[i] = xmo.GetValue(i, interfaces[name])
	}

	session, reply, err := c.Call(ctx, session, actions...)
	if err != nil {
		return session, nil, fmt.Errorf("collect interface stats: %w", err)
	}
	if err := reply.Err(); err != nil {
		return session, nil, fmt.Errorf("collect interface stats: %w", err)
	}

	samples := make([]Sample, 0, len(names))
	for i, name := range names {
		stats := reply.Value(i).Get("Stats")
		if !stats.Exists() {
			return session, nil, fmt.Errorf("collect interface stats: no Stats for %s", name)
		}
		s := Sample{Interface: name}
		for _, f := range []struct {
			key string
			dst *uint64
		}{
			{"PacketsReceived", &s.PacketsReceived},
			{"PacketsSent", &s.PacketsSent},
			{"BytesReceived", &s.BytesReceived},
			{"BytesSent", &s.BytesSent},
		} {
			v, err := counter(stats.Get(f.key))
			if err != nil {
				return session, nil, fmt.Errorf("collect interface stats: %s.%s: %w", name, f.key, err)
			}
			*f.dst = v
		}
		samples = append(samples, s)
	}
	return session, samples, nil
}

// counter decodes a counter sent either as a JSON number or as a decimal string.
func counter(v gjson.Result) (uint64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Uint(), nil
	case gjson.String:
		return strconv.ParseUint(v.Str, 10, 64)
	default:
		return 0, fmt.Errorf("counter missing")
	}
}

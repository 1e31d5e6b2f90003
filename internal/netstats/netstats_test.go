// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package netstats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/netascode/go-xmo"
)

const (
	loginReply = `{"reply":{"error":{"code":16777216,"description":"ok"},"actions":[{"callbacks":[{"parameters":{"id":"7","nonce":"n"}}]}]}}`

	ethernetReply = `{"reply":{"error":{"code":16777216},"actions":[{"id":0,"callbacks":[{"parameters":{"value":[
		{"uid":1,"IfcName":"eth0"},
		{"uid":2,"IfcName":""},
		{"uid":3,"IfcName":"eth2"}]}}]}]}}`

	statsReply = `{"reply":{"error":{"code":16777216},"actions":[
		{"id":0,"callbacks":[{"parameters":{"value":{"Stats":{"PacketsReceived":"10","PacketsSent":"20","BytesReceived":"1000","BytesSent":"2000"}}}}]},
		{"id":1,"callbacks":[{"parameters":{"value":{"Stats":{"PacketsReceived":1,"PacketsSent":2,"BytesReceived":3,"BytesSent":18446744073709551615}}}}]}]}}`
)

type recorder struct {
	mu   sync.Mutex
	reqs []string
}

func (r *recorder) add(req string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reqs...)
}

// gateway is a fake XMO endpoint answering by the xpath of the first action.
func gateway(t *testing.T, replies map[string]string) (*xmo.Client, *recorder) {
	t.Helper()
	seen := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req := r.PostForm.Get("req")
		seen.add(req)

		if gjson.Get(req, "request.actions.0.method").String() == xmo.MethodLogIn {
			fmt.Fprint(w, loginReply)
			return
		}
		xpath := gjson.Get(req, "request.actions.0.xpath").String()
		body, ok := replies[xpath]
		if !ok {
			body = `{"reply":{"error":{"code":16777223,"description":"XMO_UNKNOWN_PATH_ERR"},"actions":[]}}`
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := xmo.NewClient(srv.URL)
	require.NoError(t, err)
	return client, seen
}

func login(t *testing.T, client *xmo.Client) xmo.Session {
	t.Helper()
	session, _, err := client.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	return session
}

func TestDiscover(t *testing.T) {
	client, _ := gateway(t, map[string]string{"Device/Ethernet/Interfaces": ethernetReply})
	session := login(t, client)

	next, ifs, err := Discover(context.Background(), client, session, "Ethernet")
	require.NoError(t, err)

	assert.Equal(t, Interfaces{
		"eth0": "Device/Ethernet/Interfaces/Interface[@uid='1']/Stats",
		"eth2": "Device/Ethernet/Interfaces/Interface[@uid='3']/Stats",
	}, ifs)
	assert.Equal(t, session.RequestCounter+1, next.RequestCounter)
}

func TestDiscoverStrictOnReplyCode(t *testing.T) {
	client, _ := gateway(t, nil)
	session := login(t, client)

	next, ifs, err := Discover(context.Background(), client, session, "Optical")
	require.Error(t, err)
	assert.Nil(t, ifs)

	var perr *xmo.ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, int64(16777223), perr.Code)
	assert.Contains(t, err.Error(), "XMO_UNKNOWN_PATH_ERR")

	// The request was sent, so the counter moved on.
	assert.Equal(t, session.RequestCounter+1, next.RequestCounter)
}

func TestCollect(t *testing.T) {
	ifs := Interfaces{
		"veip0": StatsXPath("Optical", 1),
		"eth0":  StatsXPath("Ethernet", 1),
	}
	client, seen := gateway(t, map[string]string{ifs["eth0"]: statsReply})
	session := login(t, client)

	next, samples, err := Collect(context.Background(), client, session, ifs)
	require.NoError(t, err)
	assert.Equal(t, session.RequestCounter+1, next.RequestCounter)

	assert.Equal(t, []Sample{
		{Interface: "eth0", PacketsReceived: 10, PacketsSent: 20, BytesReceived: 1000, BytesSent: 2000},
		{Interface: "veip0", PacketsReceived: 1, PacketsSent: 2, BytesReceived: 3, BytesSent: 18446744073709551615},
	}, samples)

	// One batched request, ids 0..n-1 over sorted names.
	reqs := seen.all()
	require.Len(t, reqs, 2)
	req := reqs[1]
	actions := gjson.Get(req, "request.actions").Array()
	require.Len(t, actions, 2)
	assert.Equal(t, int64(0), actions[0].Get("id").Int())
	assert.Equal(t, ifs["eth0"], actions[0].Get("xpath").String())
	assert.Equal(t, int64(1), actions[1].Get("id").Int())
	assert.Equal(t, ifs["veip0"], actions[1].Get("xpath").String())
}

func TestCollectNoInterfaces(t *testing.T) {
	client, seen := gateway(t, nil)
	session := login(t, client)

	next, samples, err := Collect(context.Background(), client, session, nil)
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Equal(t, session, next)
	assert.Len(t, seen.all(), 1)
}

func TestCollectBadCounters(t *testing.T) {
	tests := map[string]string{
		"missing stats":   `{"reply":{"error":{"code":16777216},"actions":[{"id":0,"callbacks":[{"parameters":{"value":{}}}]}]}}`,
		"missing counter": `{"reply":{"error":{"code":16777216},"actions":[{"id":0,"callbacks":[{"parameters":{"value":{"Stats":{"PacketsReceived":"1"}}}}]}]}}`,
		"not a number":    `{"reply":{"error":{"code":16777216},"actions":[{"id":0,"callbacks":[{"parameters":{"value":{"Stats":{"PacketsReceived":"x","PacketsSent":"1","BytesReceived":"1","BytesSent":"1"}}}}]}]}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			ifs := Interfaces{"eth0": StatsXPath("Ethernet", 1)}
			client, _ := gateway(t, map[string]string{ifs["eth0"]: body})
			session := login(t, client)

			_, _, err := Collect(context.Background(), client, session, ifs)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "collect interface stats"))
		})
	}
}

func TestInterfacesMerge(t *testing.T) {
	a := Interfaces{"eth0": "a", "eth1": "b"}
	b := Interfaces{"eth1": "c", "veip0": "d"}

	merged := a.Merge(b)
	assert.Equal(t, Interfaces{"eth0": "a", "eth1": "c", "veip0": "d"}, merged)
	assert.Equal(t, []string{"eth0", "eth1", "veip0"}, merged.Names())
	assert.Len(t, a, 2)
}

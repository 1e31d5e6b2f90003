// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/netascode/go-xmo"
	"github.com/netascode/go-xmo/internal/config"
)

func fakeGateway(t *testing.T, loginCode int64, valueReply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if gjson.Get(r.PostForm.Get("req"), "request.actions.0.method").String() == xmo.MethodLogIn {
			fmt.Fprintf(w, `{"reply":{"error":{"code":%d,"description":"login"},"actions":[{"callbacks":[{"parameters":{"id":"1","nonce":"n"}}]}]}}`, loginCode)
			return
		}
		fmt.Fprint(w, valueReply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, url string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Gateway: &config.Gateway{URL: url, Password: "pw"},
		Logging: &config.Logging{Disable: true},
	}
	require.NoError(t, cfg.FixupAndValidate())
	return cfg
}

func TestRunPrintsReply(t *testing.T) {
	srv := fakeGateway(t, xmo.ErrCodeOK,
		`{"reply":{"error":{"code":16777216,"description":"XMO_REQUEST_NO_ERR"},"actions":[{"id":0,"callbacks":[{"parameters":{"value":"F@st 5689E"}}]}]}}`)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(t, srv.URL), "Device/DeviceInfo/ModelName", &out))

	assert.Equal(t, "F@st 5689E", gjson.Get(out.String(), "actions.0.callbacks.0.parameters.value").String())
	assert.Contains(t, out.String(), "\n  \"error\"")
}

func TestRunPrintsErrorReply(t *testing.T) {
	srv := fakeGateway(t, xmo.ErrCodeOK,
		`{"reply":{"error":{"code":16777223,"description":"XMO_UNKNOWN_PATH_ERR"},"actions":[]}}`)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(t, srv.URL), "Device/Nope", &out))
	assert.Contains(t, out.String(), "XMO_UNKNOWN_PATH_ERR")
}

func TestRunLoginFailure(t *testing.T) {
	srv := fakeGateway(t, 16777223, "")

	var out bytes.Buffer
	err := run(context.Background(), testConfig(t, srv.URL), "Device", &out)
	require.Error(t, err)
	assert.True(t, xmo.IsProtocolError(err))
	assert.Empty(t, out.String())
}

func TestRootCommand(t *testing.T) {
	srv := fakeGateway(t, xmo.ErrCodeOK,
		`{"reply":{"error":{"code":16777216},"actions":[{"id":0,"callbacks":[{"parameters":{"value":42}}]}]}}`)

	path := filepath.Join(t.TempDir(), "xmo.toml")
	body := fmt.Sprintf("[Gateway]\nURL = %q\nPassword = \"pw\"\n[Logging]\nDisable = true\n", srv.URL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv(config.EnvGatewayURL, "")
	t.Setenv(config.EnvPassword, "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-c", path, "--username", "operator", "Device/Value"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, int64(42), gjson.Get(out.String(), "actions.0.callbacks.0.parameters.value").Int())

	cmd = newRootCommand()
	cmd.SetArgs([]string{"-c", path})
	assert.Error(t, cmd.Execute())
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"strings"
	"testing"
	"time"
)

// TestNewClientValidation tests client configuration validation
func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name       string
		address    string
		opts       []func(*Client)
		wantErrMsg string
	}{
		{
			name:       "empty address",
			address:    "",
			wantErrMsg: "gateway address cannot be empty",
		},
		{
			name:       "whitespace address",
			address:    "   ",
			wantErrMsg: "gateway address cannot be empty",
		},
		{
			name:       "unsupported scheme",
			address:    "ftp://192.168.2.1",
			wantErrMsg: "scheme must be http or https",
		},
		{
			name:       "address with path",
			address:    "http://192.168.2.1/cgi/json-req",
			wantErrMsg: "must not contain a path",
		},
		{
			name:       "endpoint path without slash",
			address:    "192.168.2.1",
			opts:       []func(*Client){EndpointPath("cgi/json-req")},
			wantErrMsg: "endpoint path must start with '/'",
		},
		{
			name:       "zero request timeout",
			address:    "192.168.2.1",
			opts:       []func(*Client){RequestTimeout(0)},
			wantErrMsg: "request timeout must be positive",
		},
		{
			name:       "negative request timeout",
			address:    "192.168.2.1",
			opts:       []func(*Client){RequestTimeout(-time.Second)},
			wantErrMsg: "request timeout must be positive",
		},
		{
			name:       "empty user agent",
			address:    "192.168.2.1",
			opts:       []func(*Client){UserAgent(" ")},
			wantErrMsg: "user agent cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.address, tt.opts...)
			if err == nil {
				t.Fatalf("NewClient() succeeded, want error containing %q", tt.wantErrMsg)
			}
			if !strings.Contains(err.Error(), tt.wantErrMsg) {
				t.Errorf("NewClient() error = %q, want it to contain %q", err.Error(), tt.wantErrMsg)
			}
		})
	}
}

// TestNewClientDefaults tests address normalization and defaults
func TestNewClientDefaults(t *testing.T) {
	tests := []struct {
		address      string
		wantBase     string
		wantEndpoint string
	}{
		{"192.168.2.1", "http://192.168.2.1", "http://192.168.2.1/cgi/json-req"},
		{"192.168.2.1:8080", "http://192.168.2.1:8080", "http://192.168.2.1:8080/cgi/json-req"},
		{"http://gigahub.home/", "http://gigahub.home", "http://gigahub.home/cgi/json-req"},
		{"https://10.0.0.1", "https://10.0.0.1", "https://10.0.0.1/cgi/json-req"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			client, err := NewClient(tt.address)
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if client.BaseURL != tt.wantBase {
				t.Errorf("BaseURL = %q, want %q", client.BaseURL, tt.wantBase)
			}
			if client.Endpoint() != tt.wantEndpoint {
				t.Errorf("Endpoint() = %q, want %q", client.Endpoint(), tt.wantEndpoint)
			}
			if client.RequestTimeout != DefaultRequestTimeout {
				t.Errorf("RequestTimeout = %v, want %v", client.RequestTimeout, DefaultRequestTimeout)
			}
			if client.UserAgent != DefaultUserAgent {
				t.Errorf("UserAgent = %q", client.UserAgent)
			}
			if _, ok := client.logger.(*NoOpLogger); !ok {
				t.Errorf("default logger is %T, want *NoOpLogger", client.logger)
			}
		})
	}
}

// TestGuestCookieWarning verifies enabling the unverified cookie path is logged
func TestGuestCookieWarning(t *testing.T) {
	buf := captureLog(t)

	_, err := NewClient("192.168.2.1",
		WithLogger(NewDefaultLogger(LogLevelWarn)),
		WithGuestSessionCookie(true))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if !strings.Contains(buf.String(), "guest session cookie enabled") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

// TestTruncate tests error message truncation
func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate(strings.Repeat("x", 20), 10); got != strings.Repeat("x", 10)+"..." {
		t.Errorf("truncate() = %q", got)
	}
}

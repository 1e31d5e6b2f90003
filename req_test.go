// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"testing"

	"github.com/tidwall/gjson"
)

// TestLoginAction verifies the fixed login parameters on the wire
func TestLoginAction(t *testing.T) {
	env := NewEnvelope(0, "", true, []Action{LoginAction(0, "admin")})
	b, err := env.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	json := string(b)

	checks := map[string]any{
		"request.actions.0.id":                                                     int64(0),
		"request.actions.0.method":                                                 "logIn",
		"request.actions.0.parameters.user":                                        "admin",
		"request.actions.0.parameters.persistent":                                  "true",
		"request.actions.0.parameters.session-options.nss.0.name":                  "gtw",
		"request.actions.0.parameters.session-options.nss.0.uri":                   "http://sagemcom.com/gateway-data",
		"request.actions.0.parameters.session-options.context-flags.get-content-name": true,
		"request.actions.0.parameters.session-options.context-flags.local-time":       true,
		"request.actions.0.parameters.session-options.context-flags.no-default":       false,
		"request.actions.0.parameters.session-options.capability-depth":               int64(2),
		"request.actions.0.parameters.session-options.capability-flags.name":          true,
		"request.actions.0.parameters.session-options.capability-flags.default-value": false,
		"request.actions.0.parameters.session-options.capability-flags.restriction":   true,
		"request.actions.0.parameters.session-options.capability-flags.description":   false,
		"request.actions.0.parameters.session-options.time-format":                    "ISO_8601",
		"request.actions.0.parameters.session-options.compatibility-flags.flags":      true,
		"request.actions.0.parameters.session-options.compatibility-flags.default-value": true,
		"request.actions.0.parameters.session-options.compatibility-flags.type":       true,
		"request.actions.0.parameters.session-options.depth":                          int64(2),
		"request.actions.0.parameters.session-options.write-only-string":              "_XMO_WRITE_ONLY_",
		"request.actions.0.parameters.session-options.undefined-write-only-string":    "_XMO_UNDEFINED_WRITE_ONLY_",
	}

	for path, want := range checks {
		v := gjson.Get(json, path)
		if !v.Exists() {
			t.Errorf("%s missing in %s", path, json)
			continue
		}
		var got any
		switch want.(type) {
		case bool:
			got = v.Bool()
		case int64:
			got = v.Int()
		default:
			got = v.String()
		}
		if got != want {
			t.Errorf("%s = %v, want %v", path, got, want)
		}
	}

	if gjson.Get(json, "request.actions.0.xpath").Exists() {
		t.Error("login action must not carry an xpath")
	}
}

// TestGetValueAction tests the getValue builder
func TestGetValueAction(t *testing.T) {
	action := GetValue(3, "Device/Ethernet/Interfaces")

	if action.ID != 3 || action.Method != MethodGetValue || action.XPath != "Device/Ethernet/Interfaces" {
		t.Fatalf("GetValue() = %+v", action)
	}

	b, err := Body{}.Set("a", action).Bytes()
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	want := `{"a":{"id":3,"method":"getValue","xpath":"Device/Ethernet/Interfaces","options":{"nss":[{"name":"gtw","uri":"http://sagemcom.com/gateway-data"}]}}}`
	if string(b) != want {
		t.Errorf("encoded action = %s, want %s", b, want)
	}
}

// TestSetValueAction tests the setValue builder
func TestSetValueAction(t *testing.T) {
	action := SetValue(1, "Device/WiFi/Radios/Radio[@uid='1']/Enable", false)

	b, err := Body{}.Set("a", action).Bytes()
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	if got := gjson.GetBytes(b, "a.method").String(); got != "setValue" {
		t.Errorf("method = %s, want setValue", got)
	}
	v := gjson.GetBytes(b, "a.parameters.value")
	if !v.Exists() || v.Bool() {
		t.Errorf("parameters.value = %s, want false", v.Raw)
	}
}

// TestNewActionWithoutOptions verifies nil options are omitted
func TestNewActionWithoutOptions(t *testing.T) {
	b, err := Body{}.Set("a", NewAction(0, "getVendorLogDownloadURI", "", nil)).Bytes()
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	want := `{"a":{"id":0,"method":"getVendorLogDownloadURI"}}`
	if string(b) != want {
		t.Errorf("encoded action = %s, want %s", b, want)
	}
}

// TestEnvelopeWireForm tests the unsigned and signed envelope layout
func TestEnvelopeWireForm(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{
			name: "login sentinel session id",
			env:  NewEnvelope(0, "", true, nil),
			want: `{"request":{"id":0,"session-id":"0","priority":true,"actions":[]}}`,
		},
		{
			name: "session request",
			env:  NewEnvelope(5, "42", false, nil),
			want: `{"request":{"id":5,"session-id":"42","priority":false,"actions":[]}}`,
		},
		{
			name: "signed request",
			env: Envelope{
				ID:        1,
				SessionID: "42",
				CNonce:    1234567,
				AuthKey:   "deadbeef",
			},
			want: `{"request":{"id":1,"session-id":"42","priority":false,"actions":[],"cnonce":1234567,"auth-key":"deadbeef"}}`,
		},
		{
			name: "numeric session id",
			env:  Envelope{ID: 2, SessionID: "123456", RawSessionID: "123456"},
			want: `{"request":{"id":2,"session-id":123456,"priority":false,"actions":[]}}`,
		},
		{
			name: "raw string session id",
			env:  Envelope{ID: 2, SessionID: "42", RawSessionID: `"42"`},
			want: `{"request":{"id":2,"session-id":"42","priority":false,"actions":[]}}`,
		},
		{
			name: "raw zero session id",
			env:  Envelope{ID: 0, RawSessionID: "0", Priority: true},
			want: `{"request":{"id":0,"session-id":"0","priority":true,"actions":[]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.env.Bytes()
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Bytes() = %s, want %s", b, tt.want)
			}
		})
	}
}

// TestValidateMethod tests method validation
func TestValidateMethod(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{MethodGetValue, false},
		{MethodSetValue, false},
		{"getVendorLogDownloadURI", false},
		{"", true},
		{MethodLogIn, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			err := ValidateMethod(tt.method)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMethod(%q) error = %v, wantErr %v", tt.method, err, tt.wantErr)
			}
		})
	}
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package xmo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Default client configuration values
const (
	DefaultRequestTimeout  = 15 * time.Second
	DefaultPrettyPrintLogs = false
	DefaultUserAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"
	acceptHeader           = "application/json, text/javascript, */*; q=0.01"
	formContentType        = "application/x-www-form-urlencoded; charset=UTF-8"
)

// Security limits for response handling and logging
const (
	MaxReplySize          = 16 * 1024 * 1024 // replies larger than this are rejected
	MaxJSONSizeForLogging = 1 * 1024 * 1024
	MaxSensitiveFields    = 1000
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// redactionRule replaces one sensitive JSON field in logged payloads
type redactionRule struct {
	field       string
	pattern     *regexp.Regexp
	replacement string
}

var defaultRedactionRules = []redactionRule{
	{`"auth-key"`, regexp.MustCompile(`"auth-key"\s*:\s*"[^"]*"`), `"auth-key":"[REDACTED]"`},
	{`"cnonce"`, regexp.MustCompile(`"cnonce"\s*:\s*[0-9]+`), `"cnonce":"[REDACTED]"`},
	{`"nonce"`, regexp.MustCompile(`"nonce"\s*:\s*"[^"]*"`), `"nonce":"[REDACTED]"`},
	{`"ha1"`, regexp.MustCompile(`"ha1"\s*:\s*"[^"]*"`), `"ha1":"[REDACTED]"`},
	{`"password"`, regexp.MustCompile(`"password"\s*:\s*"[^"]*"`), `"password":"[REDACTED]"`},
}

// HTTPDoer is the transport used to POST requests to the gateway
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one gateway
//
// A Client holds configuration only. Session state lives in the Session
// values returned by Login and Call, so one Client can serve any number of
// sessions and is safe for concurrent use; each Session is not.
type Client struct {
	// BaseURL is the scheme and host of the gateway, e.g. http://192.168.2.1.
	// It is also sent as Origin and Referer.
	BaseURL string

	// EndpointPath is the URL path of the RPC handler
	EndpointPath string

	// UserAgent is the browser User-Agent sent with every request
	UserAgent string

	// RequestTimeout bounds each HTTP round trip of the default transport
	RequestTimeout time.Duration

	httpClient  HTTPDoer
	salt        string
	guestCookie bool

	// Logging configuration
	logger          Logger
	prettyPrintLogs bool
	redactionRules  []redactionRule
}

// NewClient creates a client for the gateway at address
//
// address is a host ("192.168.2.1"), host:port, or a URL with an http or
// https scheme. No request is made until Login.
//
// Example:
//
//	client, err := xmo.NewClient("192.168.2.1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, _, err := client.Login(ctx, "admin", password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, reply, err := client.Call(ctx, session,
//	    xmo.GetValue(0, "Device/DeviceInfo/ModelName"))
func NewClient(address string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		BaseURL:         normalizeBaseURL(address),
		EndpointPath:    DefaultEndpointPath,
		UserAgent:       DefaultUserAgent,
		RequestTimeout:  DefaultRequestTimeout,
		logger:          &NoOpLogger{},
		prettyPrintLogs: DefaultPrettyPrintLogs,
		redactionRules:  defaultRedactionRules,
	}

	for _, opt := range opts {
		opt(client)
	}

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.RequestTimeout}
	}

	client.logger.Info(context.Background(), "xmo client created",
		"endpoint", client.Endpoint(),
		"guestCookie", client.guestCookie)

	return client, nil
}

// Endpoint returns the URL requests are posted to
func (c *Client) Endpoint() string {
	return c.BaseURL + c.EndpointPath
}

// normalizeBaseURL adds a default http scheme and strips trailing slashes
func normalizeBaseURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return strings.TrimRight(address, "/")
}

// validateConfig validates client configuration
func (c *Client) validateConfig() error {
	if c.BaseURL == "" {
		return fmt.Errorf("gateway address cannot be empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid gateway address %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid gateway address %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid gateway address %q: missing host", c.BaseURL)
	}
	if u.Path != "" || u.RawQuery != "" {
		return fmt.Errorf("invalid gateway address %q: must not contain a path or query", c.BaseURL)
	}

	if !strings.HasPrefix(c.EndpointPath, "/") {
		return fmt.Errorf("endpoint path must start with '/', got: %q", c.EndpointPath)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %v", c.RequestTimeout)
	}

	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	if c.guestCookie {
		c.logger.Warn(context.Background(), "guest session cookie enabled",
			"endpoint", c.Endpoint(),
			"note", "cookie is not known to be checked by any gateway firmware")
	}

	return nil
}

// newRequest encodes env as the req form field of a POST to endpoint
//
// Nothing has been sent when newRequest returns an error.
func (c *Client) newRequest(ctx context.Context, endpoint string, env Envelope, cookie *http.Cookie) (*http.Request, error) {
	payload, err := env.Bytes()
	if err != nil {
		return nil, err
	}

	c.logger.Debug(ctx, "xmo request",
		"endpoint", endpoint,
		"id", env.ID,
		"actions", len(env.Actions),
		"body", c.prepareJSONForLogging(string(payload)))

	form := url.Values{"req": {string(payload)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", formContentType)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Origin", c.BaseURL)
	req.Header.Set("Referer", c.BaseURL)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	return req, nil
}

// roundTrip sends req and decodes the reply
//
// Every failure is returned as a *TransportError.
func (c *Client) roundTrip(ctx context.Context, operation string, req *http.Request) (Reply, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "xmo request failed",
			"operation", operation,
			"endpoint", req.URL.String(),
			"error", err.Error())
		return Reply{}, &TransportError{
			Operation: operation,
			Message:   "request failed",
			Err:       err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck // body fully read below

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxReplySize+1))
	if err != nil {
		return Reply{}, &TransportError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    "reading response failed",
			Err:        err,
		}
	}
	if len(body) > MaxReplySize {
		return Reply{}, &TransportError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response exceeds %d bytes", MaxReplySize),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error(ctx, "xmo request rejected",
			"operation", operation,
			"status", resp.StatusCode)
		return Reply{}, &TransportError{
			Operation:   operation,
			StatusCode:  resp.StatusCode,
			Message:     http.StatusText(resp.StatusCode),
			InternalMsg: truncate(string(body), 200),
		}
	}

	reply, err := parseReply(body)
	if err != nil {
		return Reply{}, &TransportError{
			Operation:   operation,
			StatusCode:  resp.StatusCode,
			Message:     err.Error(),
			InternalMsg: truncate(string(body), 200),
			Err:         err,
		}
	}

	c.logger.Debug(ctx, "xmo reply",
		"operation", operation,
		"code", reply.Error.Code,
		"description", reply.Error.Description,
		"duration", time.Since(start).String(),
		"body", c.prepareJSONForLogging(reply.Raw))

	return reply, nil
}

// prepareJSONForLogging redacts sensitive data and formats JSON for logging
//
// Oversized payloads and payloads with an unreasonable number of sensitive
// fields are replaced by a marker instead of being run through the
// redaction regexes.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	sensitiveCount := 0
	for _, rule := range c.redactionRules {
		sensitiveCount += strings.Count(jsonStr, rule.field)
	}
	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}

	return redacted
}

// redactSensitiveData replaces signing material and secrets with [REDACTED]
func (c *Client) redactSensitiveData(json string) string {
	result := json
	for _, rule := range c.redactionRules {
		result = rule.pattern.ReplaceAllString(result, rule.replacement)
	}
	return result
}

// truncate shortens s for error messages
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

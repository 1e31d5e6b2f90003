// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package config loads the configuration of the xmo command line tools.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the configuration file.
const (
	EnvGatewayURL = "GIGAHUB_URL"
	EnvUsername   = "GIGAHUB_USERNAME"
	EnvPassword   = "GIGAHUB_PASSWORD"
	EnvMQTTBroker = "MQTT_BROKER"
)

const (
	defaultGatewayURL     = "http://192.168.2.1"
	defaultUsername       = "admin"
	defaultRequestTimeout = 15 * time.Second
	defaultLogLevel       = "NOTICE"
	defaultListen         = "127.0.0.1:9489"
	defaultInterval       = time.Minute
	defaultHost           = "gigahub"
	defaultMQTTClientID   = "xmo-exporter"
	defaultMQTTPrefix     = "gigahub/interfaces"
)

// Duration is a time.Duration decoded from a TOML string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Gateway is the gateway connection configuration.
type Gateway struct {
	// URL is the gateway address, e.g. http://192.168.2.1.
	URL string

	// Username and Password are the web UI credentials.
	Username string
	Password string

	// PasswordSalt is appended to the password before hashing, if set.
	PasswordSalt string

	// RequestTimeout bounds each HTTP round trip.
	RequestTimeout Duration

	// GuestSessionCookie sends the bell_session cookie with every request.
	GuestSessionCookie bool
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level (ERROR, WARNING, NOTICE, INFO, DEBUG).
	Level string
}

// Prometheus configures the /metrics endpoint of the exporter.
type Prometheus struct {
	// Listen is the address of the metrics HTTP server. Empty disables it.
	Listen string
}

// MQTT configures the MQTT sink of the exporter.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883. Empty disables the sink.
	Broker   string
	ClientID string
	Username string
	Password string

	// TopicPrefix is prepended to the interface name of each message.
	TopicPrefix string
}

// Exporter is the polling configuration.
type Exporter struct {
	// Interval between two polls.
	Interval Duration

	// Host is the host label attached to every sample.
	Host string

	// Kinds lists the interface families to discover, e.g. Ethernet.
	Kinds []string
}

// Config is the top level configuration.
type Config struct {
	Gateway    *Gateway
	Logging    *Logging
	Prometheus *Prometheus
	MQTT       *MQTT
	Exporter   *Exporter
}

// FixupAndValidate applies defaults to unset fields and validates the
// configuration.
func (cfg *Config) FixupAndValidate() error {
	if cfg.Gateway == nil {
		cfg.Gateway = &Gateway{}
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{}
	}
	if cfg.Prometheus == nil {
		cfg.Prometheus = &Prometheus{Listen: defaultListen}
	}
	if cfg.MQTT == nil {
		cfg.MQTT = &MQTT{}
	}
	if cfg.Exporter == nil {
		cfg.Exporter = &Exporter{}
	}

	g := cfg.Gateway
	if g.URL == "" {
		g.URL = defaultGatewayURL
	}
	if g.Username == "" {
		g.Username = defaultUsername
	}
	if g.RequestTimeout.Duration == 0 {
		g.RequestTimeout.Duration = defaultRequestTimeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = defaultMQTTClientID
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = defaultMQTTPrefix
	}
	cfg.MQTT.TopicPrefix = strings.TrimRight(cfg.MQTT.TopicPrefix, "/")

	e := cfg.Exporter
	if e.Interval.Duration == 0 {
		e.Interval.Duration = defaultInterval
	}
	if e.Host == "" {
		e.Host = defaultHost
	}
	if len(e.Kinds) == 0 {
		e.Kinds = []string{"Ethernet", "Optical"}
	}

	return cfg.validate()
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.Gateway.Password) == "" {
		return fmt.Errorf("config: Gateway: Password is not set (use %s)", EnvPassword)
	}
	if cfg.Gateway.RequestTimeout.Duration < 0 {
		return errors.New("config: Gateway: RequestTimeout must be positive")
	}
	switch cfg.Logging.Level {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", cfg.Logging.Level)
	}
	if cfg.Exporter.Interval.Duration < time.Second {
		return fmt.Errorf("config: Exporter: Interval %v is shorter than 1s", cfg.Exporter.Interval.Duration)
	}
	for _, kind := range cfg.Exporter.Kinds {
		if kind == "" || strings.ContainsAny(kind, "/[]'") {
			return fmt.Errorf("config: Exporter: invalid interface kind %q", kind)
		}
	}
	if cfg.MQTT.Broker != "" {
		u, err := url.Parse(cfg.MQTT.Broker)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: MQTT: invalid Broker %q", cfg.MQTT.Broker)
		}
	}
	return nil
}

// applyEnv overrides configuration values from the environment.
func (cfg *Config) applyEnv(getenv func(string) string) {
	if cfg.Gateway == nil {
		cfg.Gateway = &Gateway{}
	}
	if cfg.MQTT == nil {
		cfg.MQTT = &MQTT{}
	}
	if v := getenv(EnvGatewayURL); v != "" {
		cfg.Gateway.URL = v
	}
	if v := getenv(EnvUsername); v != "" {
		cfg.Gateway.Username = v
	}
	if v := getenv(EnvPassword); v != "" {
		cfg.Gateway.Password = v
	}
	if v := getenv(EnvMQTTBroker); v != "" {
		cfg.MQTT.Broker = v
	}
}

func load(b []byte, getenv func(string) string) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	cfg.applyEnv(getenv)
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load parses and validates the provided buffer b as a config file body,
// applies the environment overrides and returns the Config.
func Load(b []byte) (*Config, error) {
	return load(b, os.Getenv)
}

// LoadFile loads, parses and validates the provided file and returns the
// Config. An empty path loads the defaults and the environment only.
func LoadFile(f string) (*Config, error) {
	if f == "" {
		return Load(nil)
	}
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package exporter

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/netascode/go-xmo"
	"github.com/netascode/go-xmo/internal/config"
	"github.com/netascode/go-xmo/internal/netstats"
)

const mqttPublishTimeout = 10 * time.Second

// publishFunc sends one retained QoS 0 message.
type publishFunc func(topic string, payload []byte) error

// MQTTSink publishes one JSON message per interface on <prefix>/<interface>.
type MQTTSink struct {
	prefix  string
	host    string
	publish publishFunc
}

var _ Sink = (*MQTTSink)(nil)

// NewMQTTSink publishes through an already connected client.
func NewMQTTSink(client mqtt.Client, prefix, host string) *MQTTSink {
	return newMQTTSink(prefix, host, func(topic string, payload []byte) error {
		token := client.Publish(topic, 0, true, payload)
		if !token.WaitTimeout(mqttPublishTimeout) {
			return fmt.Errorf("mqtt: publish to %s timed out", topic)
		}
		return token.Error()
	})
}

func newMQTTSink(prefix, host string, publish publishFunc) *MQTTSink {
	return &MQTTSink{prefix: prefix, host: host, publish: publish}
}

// DialMQTT connects to the broker of cfg.
func DialMQTT(cfg *config.MQTT) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, token.Error())
	}
	return client, nil
}

// Topic returns the topic samples of iface are published on.
func (s *MQTTSink) Topic(iface string) string {
	return s.prefix + "/" + iface
}

// Payload encodes a sample as the message body.
func (s *MQTTSink) Payload(at time.Time, sample netstats.Sample) ([]byte, error) {
	return xmo.Body{}.
		Set("host", s.host).
		Set("interface", sample.Interface).
		Set("time", at.UTC().Format(time.RFC3339)).
		Set("packets_recv", sample.PacketsReceived).
		Set("packets_sent", sample.PacketsSent).
		Set("bytes_recv", sample.BytesReceived).
		Set("bytes_sent", sample.BytesSent).
		Bytes()
}

// Publish sends every sample and stops at the first failure.
func (s *MQTTSink) Publish(ctx context.Context, at time.Time, samples []netstats.Sample) error {
	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := s.Payload(at, sample)
		if err != nil {
			return fmt.Errorf("mqtt: encode %s: %w", sample.Interface, err)
		}
		if err := s.publish(s.Topic(sample.Interface), payload); err != nil {
			return err
		}
	}
	return nil
}

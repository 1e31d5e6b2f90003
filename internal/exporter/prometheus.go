// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package exporter

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netascode/go-xmo/internal/netstats"
)

const metricsNamespace = "xmo"

// PrometheusSink exposes the latest samples as gauges.
//
// The gateway reports cumulative counters; they are mirrored with Set, so
// a gateway reboot shows up as a reset like any other counter.
type PrometheusSink struct {
	host string

	packetsReceived *prometheus.GaugeVec
	packetsSent     *prometheus.GaugeVec
	bytesReceived   *prometheus.GaugeVec
	bytesSent       *prometheus.GaugeVec
	scrapeErrors    prometheus.Counter
	lastScrape      prometheus.Gauge

	mu   sync.Mutex
	seen map[string]struct{}
}

var _ Sink = (*PrometheusSink)(nil)
var _ ErrorObserver = (*PrometheusSink)(nil)

// NewPrometheusSink creates the sink and registers its metrics with reg.
func NewPrometheusSink(reg prometheus.Registerer, host string) (*PrometheusSink, error) {
	labels := []string{"host", "interface"}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, labels)
	}

	s := &PrometheusSink{
		host:            host,
		packetsReceived: gauge("interface_packets_received", "Packets received on the interface, as reported by the gateway"),
		packetsSent:     gauge("interface_packets_sent", "Packets sent on the interface, as reported by the gateway"),
		bytesReceived:   gauge("interface_bytes_received", "Bytes received on the interface, as reported by the gateway"),
		bytesSent:       gauge("interface_bytes_sent", "Bytes sent on the interface, as reported by the gateway"),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scrape_errors_total",
			Help:      "Number of failed polls of the gateway",
		}),
		lastScrape: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_scrape_timestamp_seconds",
			Help:      "Unix time of the last successful poll",
		}),
		seen: make(map[string]struct{}),
	}

	for _, c := range []prometheus.Collector{
		s.packetsReceived, s.packetsSent, s.bytesReceived, s.bytesSent, s.scrapeErrors, s.lastScrape,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Publish sets the gauges of every sampled interface and drops interfaces
// that are no longer reported.
func (s *PrometheusSink) Publish(_ context.Context, at time.Time, samples []netstats.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]struct{}, len(samples))
	for _, sample := range samples {
		current[sample.Interface] = struct{}{}
		s.packetsReceived.WithLabelValues(s.host, sample.Interface).Set(float64(sample.PacketsReceived))
		s.packetsSent.WithLabelValues(s.host, sample.Interface).Set(float64(sample.PacketsSent))
		s.bytesReceived.WithLabelValues(s.host, sample.Interface).Set(float64(sample.BytesReceived))
		s.bytesSent.WithLabelValues(s.host, sample.Interface).Set(float64(sample.BytesSent))
	}

	for name := range s.seen {
		if _, ok := current[name]; ok {
			continue
		}
		for _, v := range []*prometheus.GaugeVec{s.packetsReceived, s.packetsSent, s.bytesReceived, s.bytesSent} {
			v.DeleteLabelValues(s.host, name)
		}
	}
	s.seen = current

	s.lastScrape.Set(float64(at.Unix()))
	return nil
}

// ObserveError counts a failed poll.
func (s *PrometheusSink) ObserveError(time.Time) {
	s.scrapeErrors.Inc()
}

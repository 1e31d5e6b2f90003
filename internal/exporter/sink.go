// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package exporter relays gateway interface counters to Prometheus and MQTT.
package exporter

import (
	"context"
	"time"

	"github.com/netascode/go-xmo/internal/netstats"
)

// Sink receives the samples of one poll.
type Sink interface {
	Publish(ctx context.Context, at time.Time, samples []netstats.Sample) error
}

// ErrorObserver is implemented by sinks that record failed polls.
type ErrorObserver interface {
	ObserveError(at time.Time)
}

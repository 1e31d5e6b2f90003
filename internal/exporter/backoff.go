// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package exporter

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// Default re-login backoff values
const (
	DefaultBackoffMinDelay    = 1 * time.Second
	DefaultBackoffMaxDelay    = 5 * time.Minute
	DefaultBackoffDelayFactor = 2
)

// Backoff computes the wait before the next poll after consecutive failures.
type Backoff struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	DelayFactor float64
}

// DefaultBackoff returns the backoff used by NewPoller.
func DefaultBackoff() Backoff {
	return Backoff{
		MinDelay:    DefaultBackoffMinDelay,
		MaxDelay:    DefaultBackoffMaxDelay,
		DelayFactor: DefaultBackoffDelayFactor,
	}
}

// Delay returns the delay for the given failed attempt (0-indexed).
//
// The formula is: delay = min(minDelay * (factor ^ attempt), maxDelay) + jitter
// where jitter is a random value in [0, delay * 0.1) from crypto/rand, or
// from the clock if crypto/rand fails.
func (b Backoff) Delay(attempt int) time.Duration {
	delay := float64(b.MinDelay) * math.Pow(b.DelayFactor, float64(attempt))
	if math.IsInf(delay, 1) || math.IsNaN(delay) || delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}

	jitterMax := int64(delay * 0.1)
	if jitterMax > 0 {
		var jitterBytes [8]byte
		var jitterVal int64
		if _, err := rand.Read(jitterBytes[:]); err == nil {
			//nolint:gosec // G115: masked to a positive int64
			jitterVal = int64(binary.BigEndian.Uint64(jitterBytes[:]) & 0x7FFFFFFFFFFFFFFF)
			jitterVal %= jitterMax
		} else {
			ts := time.Now().UnixNano()
			jitterVal = (ts%jitterMax + jitterMax) % jitterMax
		}
		delay += float64(jitterVal)
	}

	return time.Duration(delay)
}

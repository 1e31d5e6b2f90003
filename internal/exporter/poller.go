// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package exporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"gopkg.in/op/go-logging.v1"

	"github.com/netascode/go-xmo"
	"github.com/netascode/go-xmo/internal/netstats"
)

// Gateway opens and uses sessions. *xmo.Client implements it.
type Gateway interface {
	netstats.Caller
	Login(ctx context.Context, username, password string) (xmo.Session, xmo.Reply, error)
}

// Poller periodically reads interface counters and hands them to sinks.
//
// The Poller is the only user of its session, so calls are strictly
// sequential. Any failure discards the session and the discovered
// interfaces; the next poll logs in again.
type Poller struct {
	gateway  Gateway
	username string
	password string
	kinds    []string
	sinks    []Sink
	interval time.Duration
	backoff  Backoff
	clock    clock.Clock
	log      *logging.Logger

	session    xmo.Session
	interfaces netstats.Interfaces
	failures   int
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Username string
	Password string
	Kinds    []string
	Interval time.Duration
	Backoff  Backoff
	Clock    clock.Clock
}

// NewPoller creates a Poller. Zero Backoff and Clock fields use the defaults.
func NewPoller(gw Gateway, cfg PollerConfig, log *logging.Logger, sinks ...Sink) (*Poller, error) {
	if gw == nil {
		return nil, errors.New("exporter: no gateway")
	}
	if log == nil {
		return nil, errors.New("exporter: no logger")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("exporter: interval must be positive, got %v", cfg.Interval)
	}
	if len(cfg.Kinds) == 0 {
		return nil, errors.New("exporter: no interface kinds")
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Poller{
		gateway:  gw,
		username: cfg.Username,
		password: cfg.Password,
		kinds:    cfg.Kinds,
		sinks:    sinks,
		interval: cfg.Interval,
		backoff:  cfg.Backoff,
		clock:    cfg.Clock,
		log:      log,
	}, nil
}

// Session returns the current session; it is unauthenticated after a failure.
func (p *Poller) Session() xmo.Session {
	return p.session
}

// Poll runs one cycle: log in if needed, discover interfaces if needed,
// collect and publish.
func (p *Poller) Poll(ctx context.Context) error {
	if err := p.poll(ctx); err != nil {
		p.reset()
		now := p.clock.Now()
		for _, s := range p.sinks {
			if o, ok := s.(ErrorObserver); ok {
				o.ObserveError(now)
			}
		}
		return err
	}
	return nil
}

func (p *Poller) poll(ctx context.Context) error {
	if !p.session.Authenticated() {
		session, _, err := p.gateway.Login(ctx, p.username, p.password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		p.session = session
		p.log.Noticef("Logged in as %s, session %s", p.username, session.ID)
	}

	if p.interfaces == nil {
		discovered := make(netstats.Interfaces)
		for _, kind := range p.kinds {
			session, ifs, err := netstats.Discover(ctx, p.gateway, p.session, kind)
			p.session = session
			if err != nil {
				return err
			}
			discovered = discovered.Merge(ifs)
		}
		p.interfaces = discovered
		p.log.Infof("Discovered %d interfaces: %v", len(discovered), discovered.Names())
	}

	session, samples, err := netstats.Collect(ctx, p.gateway, p.session, p.interfaces)
	p.session = session
	if err != nil {
		return err
	}

	at := p.clock.Now()
	var errs []error
	for _, s := range p.sinks {
		if err := s.Publish(ctx, at, samples); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		// Publishing failures say nothing about the session.
		p.log.Warningf("Failed to publish %d samples: %v", len(samples), err)
		return nil
	}
	p.log.Debugf("Published %d samples", len(samples))
	return nil
}

func (p *Poller) reset() {
	p.session = xmo.Session{}
	p.interfaces = nil
}

// Run polls until ctx is done. After a failure the next poll is delayed by
// the backoff instead of the interval.
func (p *Poller) Run(ctx context.Context) error {
	for {
		delay := p.interval
		if err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			delay = p.backoff.Delay(p.failures)
			p.failures++
			p.log.Errorf("Poll failed (attempt %d), retrying in %v: %v", p.failures, delay, err)
		} else {
			p.failures = 0
		}

		timer := p.clock.Timer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Command xmo-exporter polls the interface counters of a Sagemcom XMO
// gateway and exposes them to Prometheus and MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/netascode/go-xmo"
	"github.com/netascode/go-xmo/internal/config"
	"github.com/netascode/go-xmo/internal/exporter"
	"github.com/netascode/go-xmo/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Flags holds the command line configuration
type Flags struct {
	ConfigFile string
	Listen     string
	Interval   time.Duration
	Once       bool
}

func newRootCommand() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "xmo-exporter",
		Short: "Export Sagemcom XMO gateway interface counters",
		Long: `xmo-exporter keeps a session open on the gateway, discovers its Ethernet
and Optical interfaces and reads their packet and byte counters at a fixed
interval.

Counters are served on /metrics for Prometheus and, when an MQTT broker is
configured, published as retained JSON messages on <prefix>/<interface>.

A failed poll discards the session; the next poll logs in again after an
exponential backoff.`,
		Example: `  # Serve /metrics on the default address
  GIGAHUB_PASSWORD=secret xmo-exporter

  # Poll every 30s and publish to MQTT
  MQTT_BROKER=tcp://localhost:1883 xmo-exporter -c /etc/xmo.toml --interval 30s

  # Poll once and exit, e.g. from cron
  xmo-exporter -c /etc/xmo.toml --once`,
		Args:          cobra.NoArgs,
		Version:       versioninfo.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(flags.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load config file '%v': %v", flags.ConfigFile, err)
			}
			if cmd.Flags().Changed("listen") {
				cfg.Prometheus.Listen = flags.Listen
			}
			if cmd.Flags().Changed("interval") {
				cfg.Exporter.Interval.Duration = flags.Interval
				if err := cfg.FixupAndValidate(); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg, flags.Once)
		},
	}

	cmd.Flags().StringVarP(&flags.ConfigFile, "config", "c", "", "path to the configuration file (TOML format)")
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "address of the /metrics endpoint, empty to disable")
	cmd.Flags().DurationVar(&flags.Interval, "interval", time.Minute, "poll interval")
	cmd.Flags().BoolVar(&flags.Once, "once", false, "poll once and exit")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, once bool) error {
	backend, err := logging.NewFile(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return err
	}
	defer backend.Close() //nolint:errcheck
	log := backend.GetLogger("exporter")

	client, err := xmo.NewClient(cfg.Gateway.URL,
		xmo.RequestTimeout(cfg.Gateway.RequestTimeout.Duration),
		xmo.PasswordSalt(cfg.Gateway.PasswordSalt),
		xmo.WithGuestSessionCookie(cfg.Gateway.GuestSessionCookie),
		xmo.WithLogger(logging.NewClientLogger(backend)),
	)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	promSink, err := exporter.NewPrometheusSink(reg, cfg.Exporter.Host)
	if err != nil {
		return err
	}
	sinks := []exporter.Sink{promSink}

	if cfg.MQTT.Broker != "" {
		mqttClient, err := exporter.DialMQTT(cfg.MQTT)
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect(250)
		sinks = append(sinks, exporter.NewMQTTSink(mqttClient, cfg.MQTT.TopicPrefix, cfg.Exporter.Host))
		log.Noticef("Publishing to %s under %s", cfg.MQTT.Broker, cfg.MQTT.TopicPrefix)
	}

	poller, err := exporter.NewPoller(client, exporter.PollerConfig{
		Username: cfg.Gateway.Username,
		Password: cfg.Gateway.Password,
		Kinds:    cfg.Exporter.Kinds,
		Interval: cfg.Exporter.Interval.Duration,
	}, backend.GetLogger("poller"), sinks...)
	if err != nil {
		return err
	}

	if once {
		return poller.Poll(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Prometheus.Listen != "" {
		ln, err := net.Listen("tcp", cfg.Prometheus.Listen)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Prometheus.Listen, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			log.Noticef("Serving metrics on http://%s/metrics", ln.Addr())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		log.Noticef("Polling %s every %v", cfg.Gateway.URL, cfg.Exporter.Interval.Duration)
		return poller.Run(ctx)
	})

	return g.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

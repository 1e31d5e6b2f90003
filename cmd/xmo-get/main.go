// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Command xmo-get logs in to a gateway and prints the reply to a single
// getValue request.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/netascode/go-xmo"
	"github.com/netascode/go-xmo/internal/config"
	"github.com/netascode/go-xmo/internal/logging"
)

// Flags holds the command line configuration
type Flags struct {
	ConfigFile string
	Username   string
	Salt       string
}

func newRootCommand() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "xmo-get <xpath>",
		Short: "Read a value from a Sagemcom XMO gateway",
		Long: `xmo-get opens a session on the gateway, sends one getValue request for
the given xpath and prints the reply as indented JSON.

The reply is printed even when the gateway answers with an error code, so
the error description is visible. Login failures exit non-zero.

The password is read from the configuration file or from GIGAHUB_PASSWORD.`,
		Example: `  # Read the device model
  GIGAHUB_PASSWORD=secret xmo-get Device/DeviceInfo/ModelName

  # List the Ethernet interfaces using a configuration file
  xmo-get -c /etc/xmo.toml Device/Ethernet/Interfaces`,
		Args:          cobra.ExactArgs(1),
		Version:       versioninfo.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(flags.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load config file '%v': %v", flags.ConfigFile, err)
			}
			if flags.Username != "" {
				cfg.Gateway.Username = flags.Username
			}
			if flags.Salt != "" {
				cfg.Gateway.PasswordSalt = flags.Salt
			}
			return run(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.ConfigFile, "config", "c", "", "path to the configuration file (TOML format)")
	cmd.Flags().StringVarP(&flags.Username, "username", "u", "", "gateway user (default from config, or admin)")
	cmd.Flags().StringVar(&flags.Salt, "salt", "", "password salt, if the firmware uses one")

	return cmd
}

func newClient(cfg *config.Config, backend *logging.Backend) (*xmo.Client, error) {
	return xmo.NewClient(cfg.Gateway.URL,
		xmo.RequestTimeout(cfg.Gateway.RequestTimeout.Duration),
		xmo.PasswordSalt(cfg.Gateway.PasswordSalt),
		xmo.WithGuestSessionCookie(cfg.Gateway.GuestSessionCookie),
		xmo.WithLogger(logging.NewClientLogger(backend)),
	)
}

func run(ctx context.Context, cfg *config.Config, xpath string, out io.Writer) error {
	// stdout carries the reply
	var backend *logging.Backend
	var err error
	if cfg.Logging.File == "" && !cfg.Logging.Disable {
		backend, err = logging.New(os.Stderr, cfg.Logging.Level)
	} else {
		backend, err = logging.NewFile(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	}
	if err != nil {
		return err
	}
	defer backend.Close() //nolint:errcheck

	client, err := newClient(cfg, backend)
	if err != nil {
		return err
	}

	session, _, err := client.Login(ctx, cfg.Gateway.Username, cfg.Gateway.Password)
	if err != nil {
		return err
	}

	_, reply, err := client.Call(ctx, session, xmo.GetValue(0, xpath))
	if err != nil {
		return err
	}

	_, err = out.Write(pretty.PrettyOptions([]byte(reply.JSON()), &pretty.Options{Width: 80, Indent: "  "}))
	return err
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

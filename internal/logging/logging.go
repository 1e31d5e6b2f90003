// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package logging provides the go-logging backend of the xmo tools and an
// adapter that lets the xmo client log through it.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/op/go-logging.v1"

	"github.com/netascode/go-xmo"
)

// Backend is a log backend.
type Backend struct {
	file    *os.File
	backend logging.LeveledBackend
}

// GetLogger returns a per-module logger that writes to the backend.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	l.SetBackend(b.backend)
	return l
}

// Close closes the log file opened by NewFile, if any.
func (b *Backend) Close() error {
	if b.file == nil {
		return nil
	}
	return b.file.Close()
}

// New initializes a logging backend writing to w.
func New(w io.Writer, level string) (*Backend, error) {
	lvl, err := LevelFromString(level)
	if err != nil {
		return nil, err
	}

	b := new(Backend)
	logFmt := logging.MustStringFormatter("%{time:15:04:05.000} %{level:.4s} %{module}: %{message}")
	base := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(base, logFmt)
	b.backend = logging.AddModuleLevel(formatted)
	b.backend.SetLevel(lvl, "")
	return b, nil
}

// NewFile initializes a logging backend from the tool configuration. An
// empty path logs to stdout; disable discards everything.
func NewFile(f string, level string, disable bool) (*Backend, error) {
	if _, err := LevelFromString(level); err != nil {
		return nil, err
	}

	switch {
	case disable:
		return New(io.Discard, level)
	case f == "":
		return New(os.Stdout, level)
	default:
		const fileMode = 0600
		flags := os.O_CREATE | os.O_APPEND | os.O_WRONLY
		w, err := os.OpenFile(f, flags, fileMode)
		if err != nil {
			return nil, fmt.Errorf("log: failed to create log file: %v", err)
		}
		b, err := New(w, level)
		if err != nil {
			w.Close() //nolint:errcheck
			return nil, err
		}
		b.file = w
		return b, nil
	}
}

// LevelFromString parses a go-logging level name.
func LevelFromString(l string) (logging.Level, error) {
	switch strings.ToUpper(l) {
	case "ERROR":
		return logging.ERROR, nil
	case "WARNING":
		return logging.WARNING, nil
	case "NOTICE":
		return logging.NOTICE, nil
	case "INFO":
		return logging.INFO, nil
	case "DEBUG":
		return logging.DEBUG, nil
	default:
		return logging.CRITICAL, fmt.Errorf("log: invalid level: '%v'", l)
	}
}

// ClientLogger adapts a go-logging logger to xmo.Logger.
//
// Key/value pairs are appended to the message as key=value. Info messages
// of the client are logged at NOTICE so that session events show up at the
// default level.
type ClientLogger struct {
	log *logging.Logger
}

var _ xmo.Logger = (*ClientLogger)(nil)

// NewClientLogger returns an xmo.Logger writing to the "xmo" module of b.
func NewClientLogger(b *Backend) *ClientLogger {
	return &ClientLogger{log: b.GetLogger("xmo")}
}

func (l *ClientLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Debug("%s", format(msg, keysAndValues))
}

func (l *ClientLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Notice("%s", format(msg, keysAndValues))
}

func (l *ClientLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Warning("%s", format(msg, keysAndValues))
}

func (l *ClientLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Error("%s", format(msg, keysAndValues))
}

func format(msg string, keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		sb.WriteByte(' ')
		fmt.Fprintf(&sb, "%v=", keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, "%v", keysAndValues[i+1])
		} else {
			sb.WriteString("<MISSING>")
		}
	}
	return sb.String()
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger writing to stderr at
// the given level. When stderr is a terminal it uses slog.TextHandler
// for human-readable output; when stderr is piped or redirected it
// uses slog.JSONHandler so scripts can parse progress and warnings.
//
// Callers scope the logger with command context via With():
//
//	logger := cli.NewCommandLogger(level).With("command", "save", "branch", branch)
func NewCommandLogger(level slog.Level) *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

func newLogger(w io.Writer, terminal bool, level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if terminal {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

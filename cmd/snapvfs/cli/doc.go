// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the snapvfs
// command.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/snapvfs/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help
// output with examples.
//
// [Command.Globals] registers flags that every command beneath it
// accepts (the store location, config file, log level). They are
// parsed after the subcommand name, together with the command's own
// flags, and listed separately in help output.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
//
// [ExitError] lets a command choose its exit status without an extra
// error line, and [NewCommandLogger] builds the structured logger
// commands report progress through.
package cli

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the snapvfs command tree.
//
// Every subcommand opens the object store named by the global flags
// (or the config file) through a [session], works on the VFS root
// built over it, and closes the store before returning. Output goes to
// the app's stdout writer; progress and per-path failures go to the
// command logger on stderr.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/clock"
	"github.com/bureau-foundation/snapvfs/lib/version"
)

// app carries what every command shares: the output writer, the
// clock that stamps saved snapshots, and the parsed global flags.
type app struct {
	stdout  io.Writer
	clock   clock.Clock
	globals globalFlags
}

// Root builds and returns the snapvfs command tree.
func Root() *cli.Command {
	return newApp(os.Stdout, clock.Real()).root()
}

func newApp(stdout io.Writer, clk clock.Clock) *app {
	return &app{stdout: stdout, clock: clk}
}

func (a *app) root() *cli.Command {
	return &cli.Command{
		Name: "snapvfs",
		Description: `snapvfs: browse snapshots in a content-addressed store.

The store holds branches of snapshot commits. snapvfs presents them as
one read-only tree:

  /BRANCH/YYYY-MM-DD-HHMMSS/...   one directory per snapshot
  /BRANCH/latest                  link to the newest snapshot
  /BRANCH/TAG                     link to a tagged snapshot
  /.tag/TAG/...                   every tag at the top level

Paths given to ls, cat, stat, tag, and restore are resolved in this
tree, following symlinks stored in snapshots. Absolute symlinks stay
inside the snapshot they were saved in.`,
		Globals: a.globals.register,
		Subcommands: []*cli.Command{
			a.lsCommand(),
			a.catCommand(),
			a.statCommand(),
			a.logCommand(),
			a.saveCommand(),
			a.tagCommand(),
			a.restoreCommand(),
			a.mountCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(a.stdout, "snapvfs %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Snapshot a directory onto the main branch",
				Command:     "snapvfs save --branch main ~/projects",
			},
			{
				Description: "List the newest snapshot",
				Command:     "snapvfs ls -l /main/latest",
			},
			{
				Description: "Mount the whole store",
				Command:     "snapvfs mount ~/snapshots",
			},
		},
	}
}

// requireArgs checks the positional argument count.
func requireArgs(args []string, minimum, maximum int, usage string) error {
	if len(args) < minimum || (maximum >= 0 && len(args) > maximum) {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

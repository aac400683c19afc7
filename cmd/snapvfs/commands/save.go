// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
	"github.com/bureau-foundation/snapvfs/lib/snapshot"
)

func (a *app) saveCommand() *cli.Command {
	var branch, author string

	return &cli.Command{
		Name:    "save",
		Summary: "Snapshot a local directory onto a branch",
		Description: `Store the contents of DIR as a new snapshot on BRANCH. Files larger
than the chunk threshold are split into content-defined chunks, so
unchanged regions are stored once across snapshots. Ownership,
permissions, and times are recorded alongside each directory.

The new commit's parent is the branch's current tip. Prints the short
commit ID and the snapshot's path in the tree.`,
		Usage: "snapvfs save --branch BRANCH [flags] DIR",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("save", pflag.ContinueOnError)
			flagSet.StringVarP(&branch, "branch", "b", "", "branch to save onto (required)")
			flagSet.StringVar(&author, "author", snapshot.DefaultAuthor, "author recorded in the commit")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, 1, "snapvfs save --branch BRANCH [flags] DIR"); err != nil {
				return err
			}
			if branch == "" {
				return fmt.Errorf("--branch is required")
			}
			session, err := a.open("save")
			if err != nil {
				return err
			}
			defer session.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			saver := snapshot.NewSaver(session.repo, snapshot.Options{
				Clock:  a.clock,
				Logger: session.logger.With("branch", branch),
				Author: author,
			})
			id, stats, err := saver.SaveWithStats(ctx, branch, args[0])
			if err != nil {
				return err
			}
			commitTime, err := session.repo.CommitTime(id)
			if err != nil {
				return err
			}
			location, err := session.config.Location()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "%s /%s/%s\n", objstore.ShortID(id), branch,
				commitTime.In(location).Format(snapshotNameLayout))
			session.logger.Info("saved",
				"files", stats.Files,
				"directories", stats.Directories,
				"symlinks", stats.Symlinks,
				"skipped", stats.Skipped,
				"size", humanize.IBytes(uint64(stats.Bytes)),
			)
			return nil
		},
		Examples: []cli.Example{
			{
				Description: "Snapshot a home directory",
				Command:     "snapvfs save -b home ~",
			},
		},
	}
}

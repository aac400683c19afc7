// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// snapshotNameLayout matches the directory names the VFS gives
// snapshots.
const snapshotNameLayout = "2006-01-02-150405"

func (a *app) logCommand() *cli.Command {
	var limit int

	return &cli.Command{
		Name:    "log",
		Summary: "List the snapshots of a branch",
		Description: `List every snapshot reachable from BRANCH, newest first: the short
commit ID, the snapshot directory name, how long ago it was taken,
any tags, and the first line of the commit message.`,
		Usage: "snapvfs log [flags] BRANCH",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("log", pflag.ContinueOnError)
			flagSet.IntVarP(&limit, "limit", "n", 0, "show at most this many snapshots (0 for all)")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, 1, "snapvfs log [flags] BRANCH"); err != nil {
				return err
			}
			session, err := a.open("log")
			if err != nil {
				return err
			}
			defer session.Close()

			branch := args[0]
			tip, err := session.repo.ReadRef(objstore.BranchPrefix + branch)
			if err != nil {
				return fmt.Errorf("branch %s: %w", branch, err)
			}
			revs, err := session.repo.RevList(tip)
			if err != nil {
				return err
			}
			tags, err := session.repo.Tags()
			if err != nil {
				return err
			}
			location, err := session.config.Location()
			if err != nil {
				return err
			}

			if limit > 0 && len(revs) > limit {
				revs = revs[:limit]
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			for _, rev := range revs {
				decoration := ""
				if names := tags[rev.ID]; len(names) > 0 {
					slices.Sort(names)
					decoration = " (tag: " + strings.Join(names, ", ") + ")"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s%s\n",
					objstore.ShortID(rev.ID),
					rev.Time().In(location).Format(snapshotNameLayout),
					humanize.Time(rev.Time()),
					firstLine(rev.Commit.Message),
					decoration,
				)
			}
			return tw.Flush()
		},
		Examples: []cli.Example{
			{
				Description: "Show the last five snapshots of main",
				Command:     "snapvfs log -n 5 main",
			},
		},
	}
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n")
	return line
}

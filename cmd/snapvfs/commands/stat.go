// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/codec"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
	"github.com/bureau-foundation/snapvfs/lib/vfs"
)

func (a *app) statCommand() *cli.Command {
	var dereference, diagnose bool

	return &cli.Command{
		Name:    "stat",
		Summary: "Show what a path resolves to",
		Description: `Describe the node at PATH: its kind, object ID, mode, size, and
recorded metadata. A final symlink is described itself unless
--dereference is given.

For a snapshot directory, the commit is shown as well. --diag prints
the commit object in CBOR diagnostic notation.`,
		Usage: "snapvfs stat [flags] PATH",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("stat", pflag.ContinueOnError)
			flagSet.BoolVarP(&dereference, "dereference", "L", false, "follow a final symlink")
			flagSet.BoolVar(&diagnose, "diag", false, "print commit objects in CBOR diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, 1, "snapvfs stat [flags] PATH"); err != nil {
				return err
			}
			session, err := a.open("stat")
			if err != nil {
				return err
			}
			defer session.Close()

			resolve := session.root.Lresolve
			if dereference {
				resolve = session.root.Resolve
			}
			node, err := resolve(args[0])
			if err != nil {
				return err
			}
			return writeStat(a.stdout, session.repo, node, diagnose)
		},
		Examples: []cli.Example{
			{
				Description: "Show the commit behind the newest snapshot",
				Command:     "snapvfs stat -L /main/latest",
			},
		},
	}
}

func writeStat(w io.Writer, repo *objstore.Repository, node *vfs.Node, diagnose bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "path:\t%s\n", node.FullName())
	fmt.Fprintf(tw, "kind:\t%s\n", node.Kind())
	if !node.ID().IsZero() {
		fmt.Fprintf(tw, "id:\t%s\n", objstore.FormatID(node.ID()))
	}
	if node.IsSymlink() {
		target, err := node.Readlink()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "target:\t%s\n", target)
	}

	size, err := node.Size()
	if err != nil {
		return err
	}
	fmt.Fprintf(tw, "mode:\t%s\n", displayMode(node))
	fmt.Fprintf(tw, "size:\t%d (%s)\n", size, humanize.IBytes(uint64(size)))
	fmt.Fprintf(tw, "links:\t%d\n", node.NLinks())

	record, err := node.Metadata()
	if err != nil {
		return err
	}
	if record != nil {
		fmt.Fprintf(tw, "recorded mode:\t%s\n", record.FileMode())
		fmt.Fprintf(tw, "owner:\t%s (%d/%d)\n", ownerName(record), record.UID, record.GID)
		fmt.Fprintf(tw, "access:\t%s\n", record.AccessTime().Format(time.RFC3339Nano))
		fmt.Fprintf(tw, "modify:\t%s\n", record.ModTime().Format(time.RFC3339Nano))
		fmt.Fprintf(tw, "change:\t%s\n", record.ChangeTime().Format(time.RFC3339Nano))
	} else {
		fmt.Fprintf(tw, "modify:\t%s\n", node.ModTime().Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if node.Kind() != vfs.KindDir {
		return nil
	}
	objectType, data, err := repo.Get(node.ID())
	if err != nil {
		return err
	}
	if objectType != objstore.TypeCommit {
		return nil
	}
	return writeCommit(w, data, diagnose)
}

func writeCommit(w io.Writer, data []byte, diagnose bool) error {
	if diagnose {
		diagnosis, err := codec.Diagnose(data)
		if err != nil {
			return fmt.Errorf("diagnosing commit: %w", err)
		}
		fmt.Fprintf(w, "\n%s\n", diagnosis)
		return nil
	}

	commit, err := objstore.DecodeCommit(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "commit tree:\t%s\n", objstore.FormatID(commit.Tree))
	for _, parent := range commit.Parents {
		fmt.Fprintf(tw, "parent:\t%s\n", objstore.FormatID(parent))
	}
	fmt.Fprintf(tw, "author:\t%s\n", commit.Author)
	fmt.Fprintf(tw, "date:\t%s\n", commit.When().Format(time.RFC1123Z))
	fmt.Fprintf(tw, "message:\t%s\n", strings.TrimRight(commit.Message, "\n"))
	return tw.Flush()
}

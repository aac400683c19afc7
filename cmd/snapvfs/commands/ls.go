// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/metadata"
	"github.com/bureau-foundation/snapvfs/lib/vfs"
)

// listTimeLayout formats modification times in long listings.
const listTimeLayout = "2006-01-02 15:04"

func (a *app) lsCommand() *cli.Command {
	var long, all, human bool

	return &cli.Command{
		Name:    "ls",
		Summary: "List directories in the snapshot tree",
		Description: `List the entries of each PATH (default "/").

A PATH that names a directory, or a symlink to one, lists the
directory's children. Any other PATH lists just that entry. Names
beginning with "." (including the top-level .tag directory) are hidden
unless --all is given.

With --long, each line shows the mode, owner, size, modification time,
and name. Entries inside snapshots use their recorded metadata; the
synthetic branch and tag directories show defaults.`,
		Usage: "snapvfs ls [flags] [PATH...]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			flagSet.BoolVarP(&long, "long", "l", false, "long listing format")
			flagSet.BoolVarP(&all, "all", "a", false, "show names beginning with '.'")
			flagSet.BoolVar(&human, "human-readable", false, "print sizes like 1.5 MiB with --long")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				args = []string{"/"}
			}
			session, err := a.open("ls")
			if err != nil {
				return err
			}
			defer session.Close()

			lister := &lister{
				out:    a.stdout,
				logger: session.logger,
				long:   long,
				all:    all,
				human:  human,
			}
			failed := 0
			for index, path := range args {
				if len(args) > 1 {
					if index > 0 {
						fmt.Fprintln(a.stdout)
					}
					fmt.Fprintf(a.stdout, "%s:\n", path)
				}
				if err := lister.list(session.root, path); err != nil {
					session.logger.Error("cannot list", "path", path, "error", err)
					failed++
				}
			}
			if failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
		Examples: []cli.Example{
			{
				Description: "List branches",
				Command:     "snapvfs ls",
			},
			{
				Description: "Long listing of the newest snapshot",
				Command:     "snapvfs ls -l /main/latest",
			},
		},
	}
}

type lister struct {
	out    io.Writer
	logger *slog.Logger
	long   bool
	all    bool
	human  bool
}

func (l *lister) list(root *vfs.Node, path string) error {
	node, err := root.Resolve(path)
	if err != nil {
		return err
	}
	if !node.IsDir() {
		// Show a symlink named directly as itself.
		if linked, err := root.Lresolve(path); err == nil {
			node = linked
		}
		return l.print([]vfs.Entry{{Name: node.Name(), Node: node}})
	}

	entries, err := node.Entries()
	if err != nil {
		return err
	}
	visible := entries[:0]
	for _, entry := range entries {
		if !l.all && strings.HasPrefix(entry.Name, ".") {
			continue
		}
		visible = append(visible, entry)
	}
	return l.print(visible)
}

func (l *lister) print(entries []vfs.Entry) error {
	if !l.long {
		for _, entry := range entries {
			fmt.Fprintln(l.out, entry.Name)
		}
		return nil
	}

	tw := tabwriter.NewWriter(l.out, 0, 0, 1, ' ', tabwriter.AlignRight)
	for _, entry := range entries {
		line, err := l.longLine(entry)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name, err)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// longLine formats one entry as mode, owner, size, time, and name.
// Columns are tab separated; the name column follows the last tab.
func (l *lister) longLine(entry vfs.Entry) (string, error) {
	node := entry.Node
	size, err := node.Size()
	if err != nil {
		return "", err
	}

	mode := displayMode(node)
	owner := "?/?"
	modTime := node.ModTime()
	record, err := node.Metadata()
	if err != nil {
		// A damaged metadata stream should not hide the entry.
		l.logger.Warn("cannot read metadata", "path", node.FullName(), "error", err)
	}
	if record != nil {
		mode = record.FileMode()
		owner = ownerName(record)
		modTime = record.ModTime()
	}

	sizeText := strconv.FormatInt(size, 10)
	if l.human {
		sizeText = humanize.IBytes(uint64(size))
	}

	name := entry.Name
	if node.IsSymlink() {
		if target, err := node.Readlink(); err == nil {
			name += " -> " + target
		}
	}
	return fmt.Sprintf("%s\t %s\t %s\t %s\t %s", mode, owner, sizeText,
		modTime.Format(listTimeLayout), name), nil
}

// displayMode returns the node's mode with default permissions for
// synthetic nodes that carry only a type.
func displayMode(node *vfs.Node) fs.FileMode {
	mode := metadata.FileMode(node.Mode())
	switch {
	case node.IsDir():
		mode |= fs.ModeDir
	case node.IsSymlink():
		mode |= fs.ModeSymlink
	}
	if mode.Perm() == 0 {
		switch {
		case mode.IsDir():
			mode |= 0o755
		case mode&fs.ModeSymlink != 0:
			mode |= 0o777
		default:
			mode |= 0o644
		}
	}
	return mode
}

// ownerName prefers recorded names and falls back to numeric IDs.
func ownerName(record *metadata.Record) string {
	user := record.User
	if user == "" {
		user = strconv.FormatUint(uint64(record.UID), 10)
	}
	group := record.Group
	if group == "" {
		group = strconv.FormatUint(uint64(record.GID), 10)
	}
	return user + "/" + group
}

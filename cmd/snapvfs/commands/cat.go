// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/vfs"
)

func (a *app) catCommand() *cli.Command {
	return &cli.Command{
		Name:    "cat",
		Summary: "Write file contents to stdout",
		Description: `Write the contents of each PATH to stdout, in order.

Symlinks are followed. A PATH that fails (missing, a directory, a
broken link) is reported on stderr and the remaining paths are still
written; the exit status is then 1.`,
		Usage: "snapvfs cat PATH...",
		Run: func(args []string) error {
			if err := requireArgs(args, 1, -1, "snapvfs cat PATH..."); err != nil {
				return err
			}
			session, err := a.open("cat")
			if err != nil {
				return err
			}
			defer session.Close()

			failed := 0
			for _, path := range args {
				if err := catFile(a.stdout, session.root, path); err != nil {
					session.logger.Error("cannot read", "path", path, "error", err)
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
				Description: "Print a file from the newest snapshot",
				Command:     "snapvfs cat /main/latest/etc/hosts",
			},
		},
	}
}

func catFile(w io.Writer, root *vfs.Node, path string) error {
	node, err := root.Resolve(path)
	if err != nil {
		return err
	}
	reader, err := node.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	if _, err := io.Copy(w, reader); err != nil {
		return fmt.Errorf("copying %s: %w", node.FullName(), err)
	}
	return nil
}

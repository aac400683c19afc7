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
	"github.com/bureau-foundation/snapvfs/lib/snapshot"
)

func (a *app) restoreCommand() *cli.Command {
	var withMetadata, owner bool

	return &cli.Command{
		Name:    "restore",
		Summary: "Copy a snapshot subtree to a local directory",
		Description: `Copy the file, symlink, or directory at PATH to DEST. DEST must not
exist for files and symlinks; directories are merged into an existing
DEST, but no existing file is overwritten.

--meta applies recorded permissions and times; --owner also applies
recorded ownership, which usually requires root.`,
		Usage: "snapvfs restore [flags] PATH DEST",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("restore", pflag.ContinueOnError)
			flagSet.BoolVar(&withMetadata, "meta", false, "apply recorded permissions and times")
			flagSet.BoolVar(&owner, "owner", false, "apply recorded ownership (implies --meta)")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 2, 2, "snapvfs restore [flags] PATH DEST"); err != nil {
				return err
			}
			session, err := a.open("restore")
			if err != nil {
				return err
			}
			defer session.Close()

			node, err := session.root.Resolve(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := snapshot.Restore(ctx, node, args[1], snapshot.RestoreOptions{
				Metadata: withMetadata || owner,
				Owner:    owner,
				Logger:   session.logger,
			})
			if err != nil {
				if snapshot.IsExist(err) {
					return fmt.Errorf("%w (restore never overwrites files)", err)
				}
				return err
			}
			session.logger.Info("restored",
				"path", node.FullName(),
				"dest", args[1],
				"files", stats.Files,
				"directories", stats.Directories,
				"symlinks", stats.Symlinks,
				"size", humanize.IBytes(uint64(stats.Bytes)),
			)
			return nil
		},
		Examples: []cli.Example{
			{
				Description: "Recover a directory from the newest snapshot",
				Command:     "snapvfs restore --meta /main/latest/projects/site ./site",
			},
		},
	}
}

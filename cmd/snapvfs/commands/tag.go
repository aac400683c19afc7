// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
	"github.com/bureau-foundation/snapvfs/lib/snapshot"
	"github.com/bureau-foundation/snapvfs/lib/vfs"
)

func (a *app) tagCommand() *cli.Command {
	var remove, force bool

	return &cli.Command{
		Name:    "tag",
		Summary: "Name a snapshot or directory",
		Description: `Create the tag NAME for the snapshot or directory at PATH. TARGET
is a path in the snapshot tree (symlinks such as "latest" are
followed) or a full 64-character object ID.

Tagged trees appear under /.tag/NAME, and tags on snapshot commits
also appear as links inside their branch directory. An existing tag is
left alone unless --force is given. --delete removes NAME.`,
		Usage: "snapvfs tag [flags] NAME TARGET\n  snapvfs tag --delete NAME",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tag", pflag.ContinueOnError)
			flagSet.BoolVarP(&remove, "delete", "d", false, "delete the tag")
			flagSet.BoolVarP(&force, "force", "f", false, "replace an existing tag")
			return flagSet
		},
		Run: func(args []string) error {
			if remove {
				if err := requireArgs(args, 1, 1, "snapvfs tag --delete NAME"); err != nil {
					return err
				}
			} else if err := requireArgs(args, 2, 2, "snapvfs tag [flags] NAME TARGET"); err != nil {
				return err
			}
			name := args[0]
			if err := snapshot.ValidateTagName(name); err != nil {
				return err
			}

			session, err := a.open("tag")
			if err != nil {
				return err
			}
			defer session.Close()

			if remove {
				return snapshot.DeleteTag(session.repo, name)
			}

			id, err := tagTarget(session.root, args[1])
			if err != nil {
				return err
			}
			if force {
				if err := snapshot.DeleteTag(session.repo, name); err != nil && !errors.Is(err, objstore.ErrNotFound) {
					return err
				}
			}
			if err := snapshot.Tag(session.repo, name, id); err != nil {
				if errors.Is(err, snapshot.ErrTagExists) {
					return fmt.Errorf("%w (use --force to replace it)", err)
				}
				return err
			}
			session.logger.Info("tagged", "tag", name, "id", objstore.ShortID(id))
			return nil
		},
		Examples: []cli.Example{
			{
				Description: "Tag the newest snapshot of main",
				Command:     "snapvfs tag release-1 /main/latest",
			},
			{
				Description: "Remove a tag",
				Command:     "snapvfs tag -d release-1",
			},
		},
	}
}

// tagTarget returns the object a tag should point at: a literal ID, or
// the commit or tree behind a directory in the snapshot tree.
func tagTarget(root *vfs.Node, target string) (objstore.ID, error) {
	if !strings.HasPrefix(target, "/") {
		if id, err := objstore.ParseID(target); err == nil {
			return id, nil
		}
	}
	node, err := root.Resolve(target)
	if err != nil {
		return objstore.EmptyID, err
	}
	if node.Kind() != vfs.KindDir {
		return objstore.EmptyID, fmt.Errorf("%s is a %s; only snapshots and directories can be tagged",
			node.FullName(), node.Kind())
	}
	return node.ID(), nil
}

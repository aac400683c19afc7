// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/config"
	"github.com/bureau-foundation/snapvfs/lib/vfs/fuse"
)

// mountFlags are the mount command's flags. Unset flags fall back to
// the mount section of the configuration.
type mountFlags struct {
	meta         bool
	allowOther   bool
	uid          int64
	gid          int64
	releaseAfter int
}

func (f *mountFlags) options(cfg *config.Config) (fuse.Options, error) {
	options := fuse.Options{
		Meta:         f.meta || cfg.Mount.Meta,
		AllowOther:   f.allowOther || cfg.Mount.AllowOther,
		ReleaseAfter: cfg.Mount.ReleaseAfter,
	}
	if f.releaseAfter != 0 {
		options.ReleaseAfter = f.releaseAfter
	}
	var err error
	if options.UID, err = ownerOverride("uid", f.uid); err != nil {
		return options, err
	}
	if options.GID, err = ownerOverride("gid", f.gid); err != nil {
		return options, err
	}
	return options, nil
}

// ownerOverride converts a --uid or --gid value; -1 means unset.
func ownerOverride(name string, value int64) (*uint32, error) {
	switch {
	case value == -1:
		return nil, nil
	case value < 0 || value > 1<<32-1:
		return nil, fmt.Errorf("--%s %d is out of range", name, value)
	}
	id := uint32(value)
	return &id, nil
}

func (a *app) mountCommand() *cli.Command {
	var flags mountFlags

	return &cli.Command{
		Name:    "mount",
		Summary: "Mount the snapshot tree with FUSE",
		Description: `Mount the snapshot tree read-only at MOUNTPOINT and serve it until
interrupted (Ctrl-C or SIGTERM), then unmount.

Without --meta, files report mode 0644 (0755 for executables),
directories 0755, and the mounting user's ownership. --meta reports the
permissions, ownership, and times recorded when each snapshot was
saved. --uid and --gid override the reported owner of every entry.

Flags default to the mount section of the configuration file.`,
		Usage: "snapvfs mount [flags] MOUNTPOINT",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			flagSet.BoolVar(&flags.meta, "meta", false, "report recorded metadata")
			flagSet.BoolVar(&flags.allowOther, "allow-other", false, "allow other users to access the mount")
			flagSet.Int64Var(&flags.uid, "uid", -1, "report this owner for every entry")
			flagSet.Int64Var(&flags.gid, "gid", -1, "report this group for every entry")
			flagSet.IntVar(&flags.releaseAfter, "release-after", 0, "lookups between cache releases (negative disables)")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, 1, "snapvfs mount [flags] MOUNTPOINT"); err != nil {
				return err
			}
			session, err := a.open("mount")
			if err != nil {
				return err
			}
			defer session.Close()

			options, err := flags.options(session.config)
			if err != nil {
				return err
			}
			options.Mountpoint = args[0]
			options.Root = session.root
			options.Logger = session.logger

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server, err := fuse.Mount(options)
			if err != nil {
				return err
			}

			unmounted := make(chan struct{})
			go func() {
				server.Wait()
				close(unmounted)
			}()

			select {
			case <-unmounted:
				session.logger.Info("filesystem unmounted externally", "mountpoint", options.Mountpoint)
			case <-ctx.Done():
				if err := server.Unmount(); err != nil {
					return fmt.Errorf("unmounting %s: %w", options.Mountpoint, err)
				}
				<-unmounted
				session.logger.Info("filesystem unmounted", "mountpoint", options.Mountpoint)
			}
			return nil
		},
		Examples: []cli.Example{
			{
				Description: "Mount with recorded ownership and permissions",
				Command:     "snapvfs mount --meta ~/snapshots",
			},
		},
	}
}

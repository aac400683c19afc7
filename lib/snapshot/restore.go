// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
	"github.com/bureau-foundation/snapvfs/lib/vfs"
)

// RestoreOptions configures [Restore].
type RestoreOptions struct {
	// Metadata applies recorded permissions and times to restored
	// files and directories.
	Metadata bool

	// Owner additionally applies recorded ownership. It usually
	// requires root.
	Owner bool

	// Logger receives per-entry debug output. Nil discards.
	Logger *slog.Logger
}

// RestoreStats counts what a restore wrote.
type RestoreStats struct {
	Directories int
	Files       int
	Symlinks    int
	Bytes       int64
}

// Restore copies node and everything below it to dest. A directory
// node becomes dest itself (created if needed); any other node is
// written at dest, which must not already exist.
func Restore(ctx context.Context, node *vfs.Node, dest string, options RestoreOptions) (RestoreStats, error) {
	restorer := &restorer{ctx: ctx, options: options, logger: options.Logger}
	if restorer.logger == nil {
		restorer.logger = slog.New(slog.DiscardHandler)
	}
	err := restorer.restore(node, dest)
	return restorer.stats, err
}

type restorer struct {
	ctx     context.Context
	options RestoreOptions
	logger  *slog.Logger
	stats   RestoreStats
}

func (r *restorer) restore(node *vfs.Node, dest string) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	r.logger.Debug("restoring", "node", node.FullName(), "dest", dest)

	switch {
	case node.IsDir():
		return r.restoreDir(node, dest)
	case node.IsSymlink():
		target, err := node.Readlink()
		if err != nil {
			return err
		}
		if err := os.Symlink(target, dest); err != nil {
			return fmt.Errorf("restoring symlink %s: %w", node.FullName(), err)
		}
		r.stats.Symlinks++
		return r.applyMetadata(node, dest, true)
	default:
		if err := r.restoreFile(node, dest); err != nil {
			return err
		}
		return r.applyMetadata(node, dest, false)
	}
}

func (r *restorer) restoreDir(node *vfs.Node, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	r.stats.Directories++
	entries, err := node.Entries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !isPathComponent(entry.Name) {
			return fmt.Errorf("restoring %s: entry %q is not a single path component: %w",
				node.FullName(), entry.Name, vfs.ErrCorrupt)
		}
		if err := r.restore(entry.Node, filepath.Join(dest, entry.Name)); err != nil {
			return err
		}
	}
	// After the children, so writing them does not disturb the
	// directory's restored mtime.
	return r.applyMetadata(node, dest, false)
}

// isPathComponent reports whether name joins onto a directory without
// leaving it.
func isPathComponent(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, "/\x00") && filepath.Base(name) == name
}

func (r *restorer) restoreFile(node *vfs.Node, dest string) error {
	perm := fs.FileMode(0o644)
	if node.Mode() == objstore.ModeExec {
		perm = 0o755
	}
	reader, err := node.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	written, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("restoring %s: %w", node.FullName(), err)
	}
	r.stats.Files++
	r.stats.Bytes += written
	return nil
}

// applyMetadata sets recorded attributes on dest. Symlink permissions
// and times are left alone; only ownership applies to a link itself.
func (r *restorer) applyMetadata(node *vfs.Node, dest string, isSymlink bool) error {
	if !r.options.Metadata && !r.options.Owner {
		return nil
	}
	record, err := node.Metadata()
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	if r.options.Owner {
		if err := os.Lchown(dest, int(record.UID), int(record.GID)); err != nil {
			return fmt.Errorf("chown %s: %w", dest, err)
		}
	}
	if !r.options.Metadata || isSymlink {
		return nil
	}
	if err := os.Chmod(dest, record.FileMode()); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}
	if err := os.Chtimes(dest, record.AccessTime(), record.ModTime()); err != nil {
		return fmt.Errorf("chtimes %s: %w", dest, err)
	}
	return nil
}

// IsExist reports whether a restore failed because a destination
// path already exists.
func IsExist(err error) bool {
	return errors.Is(err, fs.ErrExist)
}

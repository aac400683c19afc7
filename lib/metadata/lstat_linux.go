// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FromPath captures the attributes of path without following a final
// symlink. Ownership names are resolved through the local user
// database; unresolvable IDs leave the names empty.
func FromPath(path string) (*Record, error) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return nil, fmt.Errorf("lstat %s: %w", path, err)
	}
	record := &Record{
		Mode:  stat.Mode,
		UID:   stat.Uid,
		GID:   stat.Gid,
		Size:  stat.Size,
		Atime: stat.Atim.Nano(),
		Mtime: stat.Mtim.Nano(),
		Ctime: stat.Ctim.Nano(),
	}
	record.User, record.Group = lookupOwner(record.UID, record.GID)

	switch {
	case record.IsSymlink():
		target, err := os.Readlink(path)
		if err != nil {
			return nil, fmt.Errorf("readlink %s: %w", path, err)
		}
		record.SymlinkTarget = target
	case record.IsDir():
		record.Size = 0
	}
	return record, nil
}

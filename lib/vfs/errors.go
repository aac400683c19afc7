// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

var (
	// ErrNoSuchFile is returned when a path component does not
	// exist, when ".." is used at the top, or when a symlink target
	// does not resolve.
	ErrNoSuchFile = errors.New("no such file or directory")

	// ErrNotDir is returned when a directory operation is applied
	// to a non-directory.
	ErrNotDir = errors.New("not a directory")

	// ErrNotFile is returned when opening a node that has no
	// readable content.
	ErrNotFile = errors.New("not a regular file")

	// ErrTooManySymlinks is returned when one resolution follows
	// more than maxSymlinkDepth symlinks.
	ErrTooManySymlinks = errors.New("too many levels of symbolic links")

	// ErrCorrupt is returned when stored objects violate the
	// expected structure. It is the same value as
	// [objstore.ErrCorrupt] so errors.Is matches either name.
	ErrCorrupt = objstore.ErrCorrupt

	// ErrInvalid is returned for symlink operations on non-symlinks
	// and for invalid seek arguments.
	ErrInvalid = errors.New("invalid argument")
)

// maxSymlinkDepth bounds symlink dereferences within one resolution.
const maxSymlinkDepth = 100

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse mounts a [vfs.Node] tree as a read-only FUSE
// filesystem.
//
// The mount mirrors the VFS exactly: at the top, one directory per
// branch plus ".tag"; inside a branch, one directory per snapshot plus
// "latest" and tag symlinks; inside a snapshot, the saved files.
//
// # Concurrency
//
// The VFS has no internal locking, so every filesystem operation
// takes a single mutex before touching it. Inodes remember their path
// rather than a VFS node and re-resolve it on each operation. After
// [Options.ReleaseAfter] lookups the root's caches are released so
// that a long-lived mount over a large repository does not grow
// without bound; the next operations repopulate what they touch.
//
// # Attributes
//
// By default, attributes come from the tree: type and executable bit
// from the tree entry mode, size from the content, and commit times on
// history directories. With [Options.Meta], nodes that have a recorded
// metadata record report its permissions, ownership, and times
// instead. [Options.UID] and [Options.GID] override ownership last.
//
// # Write Path
//
// None. Opening for write returns EROFS; the kernel rejects other
// mutations because the mount is read-only.
package fuse

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs presents an object store as a read-only, POSIX-like
// filesystem tree.
//
// The root returned by [New] lists one directory per branch plus a
// ".tag" directory. A branch directory lists one snapshot per commit
// in the branch's history, named by commit time
// (YYYY-MM-DD-HHMMSS), plus a "latest" symlink to the newest snapshot
// and one symlink per tag pointing into ".tag". Inside a snapshot,
// directories, files, and symlinks mirror the stored trees. Large
// files are stored as chunk trees and reassembled on read by
// [FileReader].
//
// Nodes are built lazily: a directory's children are materialized on
// first access and cached. Branch directories re-check their branch
// tip on every access and rebuild their listing when it moves. The
// root and ".tag" rebuild when the set of refs changes. Snapshot
// directories are shared through a node cache keyed by commit ID, so
// a commit reachable from several branches or tags is materialized
// once.
//
// Path resolution follows symlinks the way lstat/stat do:
// [Node.Lresolve] leaves a trailing symlink alone, [Node.Resolve]
// dereferences it, and [Node.TryResolve] dereferences it unless the
// target is missing. Each resolution allows at most 100 symlink hops.
//
// The package does no locking. A root and every node under it belong
// to one goroutine at a time; concurrent consumers serialize access
// (see lib/vfs/fuse).
package vfs

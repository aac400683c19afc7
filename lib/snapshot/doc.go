// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot is the writer side of the object store: it turns a
// local directory into a snapshot commit on a branch, manages tags,
// and copies snapshot content back out to the local filesystem.
//
// [Saver.Save] walks a directory depth-first. Each directory becomes a
// tree whose entries keep [os.ReadDir] order. Files larger than the
// chunk threshold are split by content-defined chunking and stored as
// chunk trees under a mangled name. Every directory gets a ".bupm"
// metadata stream: one record per non-directory entry in tree order,
// followed by the directory's own record. Subdirectories carry their
// own record at the end of their own stream.
//
// [Restore] is the inverse, reading through a [vfs.Node] so that it
// works on anything the VFS can resolve: a snapshot, a subdirectory,
// or a single file.
package snapshot

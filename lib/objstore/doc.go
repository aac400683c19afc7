// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package objstore is the content-addressed object store underneath
// snapvfs. It holds three kinds of immutable objects (blobs, trees,
// and commits), each identified by the BLAKE3 keyed hash of its type,
// length, and content, plus a small set of mutable named refs that
// point at commits.
//
// The package is split into three layers:
//
//   - Encodings: [EncodeTree]/[DecodeTree] for directory listings,
//     [EncodeCommit]/[DecodeCommit] for snapshot commits (CBOR via
//     lib/codec), and [MangleName]/[DemangleName] for the name
//     suffixes that mark chunked files and escape colliding names.
//
//   - Backends: [Backend] is the storage interface. [MemoryBackend]
//     keeps everything in maps (tests, ephemeral mounts),
//     [DiskBackend] stores one compressed file per object under a
//     sharded directory tree, and [BadgerBackend] stores objects and
//     refs in a badger key-value database.
//
//   - [Repository]: the facade the VFS and the snapshot writer use.
//     It adds typed reads (trees, commits), ref queries (branches,
//     tags), history traversal ([Repository.RevList]), and the
//     writer helpers that build chunk trees from large files
//     ([Repository.WriteChunked]).
//
// Objects are verified on read: a backend that returns bytes whose
// hash does not match the requested ID reports [ErrCorrupt].
package objstore

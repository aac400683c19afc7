// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metadata defines the per-entry attribute records stored in
// a snapshot directory's metadata stream.
//
// A metadata stream is a CBOR sequence of [Record] values. The
// snapshot writer emits one record per non-directory entry of the
// directory, in the tree's store order, followed by one record for
// the directory itself. Subdirectories carry their own record at the
// end of their own stream, so they consume nothing from the parent's.
//
// Readers tolerate short streams: [Reader.Next] returns io.EOF when
// the records run out, and callers leave the remaining entries without
// metadata. A record that fails to decode is [ErrMalformed].
package metadata

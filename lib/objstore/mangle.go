// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import "strings"

// Name suffixes used in stored tree entries.
const (
	// ChunkedSuffix marks a regular file stored as a chunk tree.
	ChunkedSuffix = ".bup"

	// EscapeSuffix is appended to names that would otherwise be
	// mistaken for a mangled name.
	EscapeSuffix = ".bupl"

	// MetadataSuffix marks a metadata stream.
	MetadataSuffix = ".bupm"

	// MetadataStreamName is the tree entry holding a directory's
	// metadata stream. It is stored as a blob, or as a chunk tree
	// (mode [ModeTree]) when large.
	MetadataStreamName = MetadataSuffix
)

// ChunkingMode says how the content of a demangled entry is stored.
type ChunkingMode int

const (
	// ChunkingNormal means the entry's object is the content itself
	// (a blob, or a tree for a real directory).
	ChunkingNormal ChunkingMode = iota

	// ChunkingChunked means the entry's object is a chunk tree whose
	// leaves concatenate to the content.
	ChunkingChunked
)

// MangleName returns the stored name for a directory entry. chunked
// is true when a regular file is being stored as a chunk tree.
//
// Chunked files get [ChunkedSuffix]. Names that end in ".bup", or end
// in ".bup" plus one more character (".bupl", ".bupm"), get
// [EscapeSuffix] so that demangling recovers them unchanged.
func MangleName(name string, chunked bool) string {
	if chunked {
		return name + ChunkedSuffix
	}
	if strings.HasSuffix(name, ChunkedSuffix) ||
		(len(name) > 0 && strings.HasSuffix(name[:len(name)-1], ChunkedSuffix)) {
		return name + EscapeSuffix
	}
	return name
}

// DemangleName reverses [MangleName]. mode is the stored entry mode;
// it decides whether a ".bupm" stream is chunked.
func DemangleName(mangled string, mode uint32) (string, ChunkingMode) {
	switch {
	case strings.HasSuffix(mangled, EscapeSuffix):
		return strings.TrimSuffix(mangled, EscapeSuffix), ChunkingNormal
	case strings.HasSuffix(mangled, ChunkedSuffix):
		return strings.TrimSuffix(mangled, ChunkedSuffix), ChunkingChunked
	case strings.HasSuffix(mangled, MetadataSuffix):
		name := strings.TrimSuffix(mangled, MetadataSuffix)
		if IsTreeMode(mode) {
			return name, ChunkingChunked
		}
		return name, ChunkingNormal
	default:
		return mangled, ChunkingNormal
	}
}

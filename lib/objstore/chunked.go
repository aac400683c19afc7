// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import "fmt"

// DefaultChunkFanout is the maximum number of entries per chunk tree
// node written by [Repository.WriteChunked].
const DefaultChunkFanout = 256

// FormatChunkOffset returns the entry name for a chunk tree entry
// starting at offset: 16 lowercase hex digits.
func FormatChunkOffset(offset int64) string {
	return fmt.Sprintf("%016x", offset)
}

// WriteChunked splits data with the content-defined splitter and
// stores it as a chunk tree. The returned ID names the root tree; its
// entry in the parent directory should use [MangleName] with chunked
// set.
func (r *Repository) WriteChunked(data []byte) (ID, error) {
	return r.WriteChunks(SplitChunks(data), DefaultChunkFanout)
}

// chunkNode is one entry in a level of the chunk tree under
// construction: its absolute start offset, its object, and whether
// that object is a subtree.
type chunkNode struct {
	offset  int64
	id      ID
	subtree bool
}

// WriteChunks stores pre-split chunks as a chunk tree. Leaves are
// blobs; each tree node holds at most fanout entries named by the
// hex start offset of the entry relative to the node. Levels are
// added until a single root node remains. At least one chunk is
// required; pass a single empty chunk for empty content.
func (r *Repository) WriteChunks(chunks [][]byte, fanout int) (ID, error) {
	if len(chunks) == 0 {
		return EmptyID, fmt.Errorf("writing chunk tree: no chunks")
	}
	if fanout < 2 {
		return EmptyID, fmt.Errorf("writing chunk tree: fanout %d is less than 2", fanout)
	}

	level := make([]chunkNode, 0, len(chunks))
	var offset int64
	for _, chunk := range chunks {
		id, err := r.WriteBlob(chunk)
		if err != nil {
			return EmptyID, fmt.Errorf("writing chunk at offset %d: %w", offset, err)
		}
		level = append(level, chunkNode{offset: offset, id: id})
		offset += int64(len(chunk))
	}

	for {
		var next []chunkNode
		for start := 0; start < len(level); start += fanout {
			end := min(start+fanout, len(level))
			group := level[start:end]
			id, err := r.writeChunkNode(group)
			if err != nil {
				return EmptyID, err
			}
			next = append(next, chunkNode{offset: group[0].offset, id: id, subtree: true})
		}
		if len(next) == 1 {
			r.logger.Debug("chunk tree written",
				"id", ShortID(next[0].id),
				"size", offset,
				"chunks", len(chunks),
			)
			return next[0].id, nil
		}
		level = next
	}
}

// writeChunkNode writes one tree node with offsets relative to the
// first entry.
func (r *Repository) writeChunkNode(group []chunkNode) (ID, error) {
	base := group[0].offset
	entries := make([]TreeEntry, len(group))
	for i, node := range group {
		mode := ModeFile
		if node.subtree {
			mode = ModeTree
		}
		entries[i] = TreeEntry{
			Mode: mode,
			Name: FormatChunkOffset(node.offset - base),
			ID:   node.id,
		}
	}
	id, err := r.WriteTree(entries)
	if err != nil {
		return EmptyID, fmt.Errorf("writing chunk tree node at offset %d: %w", base, err)
	}
	return id, nil
}

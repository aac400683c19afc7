// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// chunkEntry is one decoded chunk tree entry. offset is relative to
// the start of the tree that contains it.
type chunkEntry struct {
	offset  int64
	id      objstore.ID
	subtree bool
}

// decodeChunkTree reads a chunk tree node. Entry names are hex
// offsets and must be strictly ascending.
func decodeChunkTree(repo *objstore.Repository, id objstore.ID) ([]chunkEntry, error) {
	treeEntries, err := repo.ReadTree(id)
	if err != nil {
		return nil, fmt.Errorf("reading chunk tree %s: %w", objstore.ShortID(id), err)
	}
	if len(treeEntries) == 0 {
		return nil, fmt.Errorf("%w: chunk tree %s is empty", ErrCorrupt, objstore.ShortID(id))
	}

	entries := make([]chunkEntry, len(treeEntries))
	for i, treeEntry := range treeEntries {
		offset, err := strconv.ParseInt(treeEntry.Name, 16, 64)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("%w: chunk tree %s: entry %q is not a hex offset",
				ErrCorrupt, objstore.ShortID(id), treeEntry.Name)
		}
		if i > 0 && offset <= entries[i-1].offset {
			return nil, fmt.Errorf("%w: chunk tree %s: offset %#x follows %#x",
				ErrCorrupt, objstore.ShortID(id), offset, entries[i-1].offset)
		}
		entries[i] = chunkEntry{
			offset:  offset,
			id:      treeEntry.ID,
			subtree: objstore.IsTreeMode(treeEntry.Mode),
		}
	}
	return entries, nil
}

// readBlob returns the content of a blob. Any other object type is
// corrupt in a position that requires file content.
func readBlob(repo *objstore.Repository, id objstore.ID) ([]byte, error) {
	objectType, data, err := repo.Get(id)
	if err != nil {
		return nil, err
	}
	if objectType != objstore.TypeBlob {
		return nil, fmt.Errorf("%w: object %s is a %s, want blob",
			ErrCorrupt, objstore.ShortID(id), objectType)
	}
	return data, nil
}

// TotalSize returns the length of the content stored in the chunk
// tree id: the offset of the last entry plus the size of what it
// covers, following the rightmost path down to a leaf.
func TotalSize(repo *objstore.Repository, id objstore.ID) (int64, error) {
	var total int64
	for {
		entries, err := decodeChunkTree(repo, id)
		if err != nil {
			return 0, err
		}
		last := entries[len(entries)-1]
		total += last.offset
		if !last.subtree {
			data, err := readBlob(repo, last.id)
			if err != nil {
				return 0, err
			}
			return total + int64(len(data)), nil
		}
		id = last.id
	}
}

// chunkSource yields successive pieces of file content. Next returns
// io.EOF after the last piece. Pieces may be empty.
type chunkSource interface {
	Next() ([]byte, error)
}

// chunkFrame is one level of an in-progress chunk tree walk.
type chunkFrame struct {
	entries []chunkEntry
	index   int
	start   int64
}

// chunkIterator walks a chunk tree depth-first from a starting
// offset. It is forward-only and cannot be restarted.
type chunkIterator struct {
	repo  *objstore.Repository
	stack []*chunkFrame
}

// newChunkIterator returns an iterator over the content of chunk tree
// id beginning at start. Entries wholly before start are skipped
// without being read.
func newChunkIterator(repo *objstore.Repository, id objstore.ID, start int64) (*chunkIterator, error) {
	iterator := &chunkIterator{repo: repo}
	if err := iterator.push(id, start); err != nil {
		return nil, err
	}
	return iterator, nil
}

// push descends into tree id. start is relative to the tree; the walk
// begins at the last entry whose offset is <= start.
func (it *chunkIterator) push(id objstore.ID, start int64) error {
	entries, err := decodeChunkTree(it.repo, id)
	if err != nil {
		return err
	}
	first := 0
	for i := range entries {
		if i+1 >= len(entries) || entries[i+1].offset > start {
			first = i
			break
		}
	}
	it.stack = append(it.stack, &chunkFrame{entries: entries, index: first, start: start})
	return nil
}

func (it *chunkIterator) Next() ([]byte, error) {
	for len(it.stack) > 0 {
		frame := it.stack[len(it.stack)-1]
		if frame.index >= len(frame.entries) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		entry := frame.entries[frame.index]
		frame.index++

		skip := max(0, frame.start-entry.offset)
		if entry.subtree {
			if err := it.push(entry.id, skip); err != nil {
				return nil, err
			}
			continue
		}
		data, err := readBlob(it.repo, entry.id)
		if err != nil {
			return nil, err
		}
		return data[min(skip, int64(len(data))):], nil
	}
	return nil, io.EOF
}

// blobSource yields the suffix of a single blob.
type blobSource struct {
	repo  *objstore.Repository
	id    objstore.ID
	start int64
	done  bool
}

func (s *blobSource) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	data, err := readBlob(s.repo, s.id)
	if err != nil {
		return nil, err
	}
	return data[min(s.start, int64(len(data))):], nil
}

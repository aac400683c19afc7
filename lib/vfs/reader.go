// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// FileReader reads the content of a file node. It implements
// io.Reader, io.Seeker, and io.ReaderAt over a cursor; ReadAt moves
// the cursor, so a FileReader must not be shared between goroutines.
//
// Sequential reads stream through the chunk tree without re-reading
// earlier chunks. A read that starts anywhere other than where the
// previous one stopped rebuilds the underlying stream from the new
// offset.
type FileReader struct {
	repo    *objstore.Repository
	id      objstore.ID
	chunked bool
	size    int64
	offset  int64

	source  chunkSource
	pending []byte
	// sourceOffset is the content offset of the first byte of
	// pending, valid while source is non-nil.
	sourceOffset int64
}

func newFileReader(repo *objstore.Repository, id objstore.ID, chunked bool, size int64) *FileReader {
	return &FileReader{repo: repo, id: id, chunked: chunked, size: size}
}

// Size returns the content length.
func (f *FileReader) Size() int64 {
	return f.size
}

// Tell returns the cursor position.
func (f *FileReader) Tell() int64 {
	return f.offset
}

// Seek moves the cursor. The result is clamped into [0, Size()].
func (f *FileReader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = f.offset + offset
	case io.SeekEnd:
		target = f.size + offset
	default:
		return f.offset, fmt.Errorf("seek whence %d: %w", whence, ErrInvalid)
	}
	f.offset = min(max(target, 0), f.size)
	return f.offset, nil
}

// Read reads up to len(p) bytes from the cursor and advances it. It
// returns io.EOF at the end of the content.
func (f *FileReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.offset >= f.size {
		return 0, io.EOF
	}
	if remaining := f.size - f.offset; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if f.source == nil || f.sourceOffset != f.offset {
		if err := f.reopen(); err != nil {
			return 0, err
		}
	}

	for len(f.pending) == 0 {
		piece, err := f.source.Next()
		if err == io.EOF {
			// Stored content is shorter than the computed size.
			f.drop()
			return 0, fmt.Errorf("%w: %s ends at offset %d before size %d",
				ErrCorrupt, objstore.ShortID(f.id), f.offset, f.size)
		}
		if err != nil {
			f.drop()
			return 0, err
		}
		f.pending = piece
	}

	n := copy(p, f.pending)
	f.pending = f.pending[n:]
	f.offset += int64(n)
	f.sourceOffset = f.offset
	return n, nil
}

// ReadN reads count bytes from the cursor, or everything up to the
// end when count is negative. Fewer bytes are returned only at the
// end of the content.
func (f *FileReader) ReadN(count int) ([]byte, error) {
	remaining := max(f.size-f.offset, 0)
	if count < 0 || int64(count) > remaining {
		count = int(remaining)
	}
	buffer := make([]byte, count)
	total := 0
	for total < count {
		n, err := f.Read(buffer[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return buffer[:total], err
		}
	}
	return buffer[:total], nil
}

// ReadAt seeks to offset and reads len(p) bytes. It returns io.EOF
// when fewer bytes are available.
func (f *FileReader) ReadAt(p []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("read at negative offset %d: %w", offset, ErrInvalid)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	total := 0
	for total < len(p) {
		n, err := f.Read(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close releases the underlying stream. The reader may be used again
// afterwards; the stream is rebuilt on the next read.
func (f *FileReader) Close() error {
	f.drop()
	return nil
}

func (f *FileReader) reopen() error {
	f.drop()
	var source chunkSource
	if f.chunked {
		iterator, err := newChunkIterator(f.repo, f.id, f.offset)
		if err != nil {
			return err
		}
		source = iterator
	} else {
		source = &blobSource{repo: f.repo, id: f.id, start: f.offset}
	}
	f.source = source
	f.sourceOffset = f.offset
	return nil
}

func (f *FileReader) drop() {
	f.source = nil
	f.pending = nil
}

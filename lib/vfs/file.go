// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// file is a regular file: a blob, or a chunk tree when chunked.
type file struct {
	baseVariant
	chunked bool

	sizeKnown bool
	cachedLen int64
}

func (*file) kind() Kind { return KindFile }

func (f *file) size(n *Node) (int64, error) {
	if f.sizeKnown {
		return f.cachedLen, nil
	}
	var size int64
	if f.chunked {
		total, err := TotalSize(n.session.repo, n.id)
		if err != nil {
			return 0, fmt.Errorf("size of %s: %w", n.FullName(), err)
		}
		size = total
	} else {
		data, err := readBlob(n.session.repo, n.id)
		if err != nil {
			return 0, fmt.Errorf("size of %s: %w", n.FullName(), err)
		}
		size = int64(len(data))
	}
	f.cachedLen = size
	f.sizeKnown = true
	return size, nil
}

func (f *file) open(n *Node) (*FileReader, error) {
	size, err := f.size(n)
	if err != nil {
		return nil, err
	}
	return newFileReader(n.session.repo, n.id, f.chunked, size), nil
}

// symlink is a stored symlink; its target text is the content of its
// blob (or chunk tree).
type symlink struct {
	baseVariant
	chunked bool

	targetKnown bool
	target      string
}

func (*symlink) kind() Kind { return KindSymlink }

func (s *symlink) readlink(n *Node) (string, error) {
	if s.targetKnown {
		return s.target, nil
	}
	var target []byte
	var err error
	if s.chunked {
		target, err = readAll(n.session.repo, n.id)
	} else {
		target, err = readBlob(n.session.repo, n.id)
	}
	if err != nil {
		return "", fmt.Errorf("readlink %s: %w", n.FullName(), err)
	}
	s.target = string(target)
	s.targetKnown = true
	return s.target, nil
}

func (s *symlink) size(n *Node) (int64, error) {
	target, err := s.readlink(n)
	if err != nil {
		return 0, err
	}
	return int64(len(target)), nil
}

func (s *symlink) open(n *Node) (*FileReader, error) {
	size, err := s.size(n)
	if err != nil {
		return nil, err
	}
	return newFileReader(n.session.repo, n.id, s.chunked, size), nil
}

// fakeSymlink is a synthetic symlink with a fixed target and no
// backing object.
type fakeSymlink struct {
	baseVariant
	target string
}

func (*fakeSymlink) kind() Kind { return KindFakeSymlink }

func (s *fakeSymlink) readlink(*Node) (string, error) {
	return s.target, nil
}

func (s *fakeSymlink) size(*Node) (int64, error) {
	return int64(len(s.target)), nil
}

// readAll concatenates the content of chunk tree id.
func readAll(repo *objstore.Repository, id objstore.ID) ([]byte, error) {
	iterator, err := newChunkIterator(repo, id, 0)
	if err != nil {
		return nil, err
	}
	var content []byte
	for {
		piece, err := iterator.Next()
		if err == io.EOF {
			return content, nil
		}
		if err != nil {
			return nil, err
		}
		content = append(content, piece...)
	}
}

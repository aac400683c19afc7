// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"io"
	"testing"
)

const readerContent = "0123456789abcdefghijklmnopqrstuv"

// readerFixture returns a chunked file node and a plain file node with
// the same content.
func readerFixture(t *testing.T) (chunked, plain *Node) {
	t.Helper()
	f := newFixture(t)
	chunkTree := f.chunked(2, readerContent[:5], readerContent[5:13], readerContent[13:14], readerContent[14:])
	root := f.treeRoot(f.tree(
		chunkedEntry("big", chunkTree),
		fileEntry("small", f.blob(readerContent)),
	))
	chunked, err := root.Child("big")
	if err != nil {
		t.Fatal(err)
	}
	plain, err = root.Child("small")
	if err != nil {
		t.Fatal(err)
	}
	return chunked, plain
}

func forEachReaderNode(t *testing.T, test func(t *testing.T, node *Node)) {
	chunked, plain := readerFixture(t)
	t.Run("chunked", func(t *testing.T) { test(t, chunked) })
	t.Run("plain", func(t *testing.T) { test(t, plain) })
}

func TestReaderSizeAndFullRead(t *testing.T) {
	forEachReaderNode(t, func(t *testing.T, node *Node) {
		size, err := node.Size()
		if err != nil {
			t.Fatalf("Size: %v", err)
		}
		if size != int64(len(readerContent)) {
			t.Errorf("Size = %d, want %d", size, len(readerContent))
		}
		if got := readAllNode(t, node); got != readerContent {
			t.Errorf("content = %q, want %q", got, readerContent)
		}
	})
}

func TestReaderSeekThenReadSuffix(t *testing.T) {
	forEachReaderNode(t, func(t *testing.T, node *Node) {
		reader, err := node.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer reader.Close()
		// Visit offsets out of order so the stream is rebuilt each time.
		for _, offset := range []int64{17, 0, 31, 5, 32, 13, 14, 4} {
			position, err := reader.Seek(offset, io.SeekStart)
			if err != nil || position != offset {
				t.Fatalf("Seek(%d) = %d, %v", offset, position, err)
			}
			got, err := reader.ReadN(-1)
			if err != nil {
				t.Fatalf("ReadN after Seek(%d): %v", offset, err)
			}
			if string(got) != readerContent[offset:] {
				t.Errorf("suffix from %d = %q, want %q", offset, got, readerContent[offset:])
			}
			if reader.Tell() != int64(len(readerContent)) {
				t.Errorf("Tell after full read = %d", reader.Tell())
			}
		}
	})
}

func TestReaderSmallReadsConcatenate(t *testing.T) {
	forEachReaderNode(t, func(t *testing.T, node *Node) {
		reader, err := node.Open()
		if err != nil {
			t.Fatal(err)
		}
		var got []byte
		for {
			piece, err := reader.ReadN(3)
			if err != nil {
				t.Fatal(err)
			}
			if len(piece) == 0 {
				break
			}
			if len(piece) < 3 && reader.Tell() != reader.Size() {
				t.Errorf("short read of %d bytes before end", len(piece))
			}
			got = append(got, piece...)
		}
		if string(got) != readerContent {
			t.Errorf("concatenated = %q, want %q", got, readerContent)
		}
	})
}

func TestReaderSeekClamps(t *testing.T) {
	forEachReaderNode(t, func(t *testing.T, node *Node) {
		reader, err := node.Open()
		if err != nil {
			t.Fatal(err)
		}
		size := int64(len(readerContent))
		tests := []struct {
			offset int64
			whence int
			want   int64
		}{
			{-10, io.SeekStart, 0},
			{size + 100, io.SeekStart, size},
			{-5, io.SeekEnd, size - 5},
			{10, io.SeekEnd, size},
			{-100, io.SeekCurrent, 0},
			{3, io.SeekCurrent, 3},
		}
		for _, tt := range tests {
			got, err := reader.Seek(tt.offset, tt.whence)
			if err != nil {
				t.Fatalf("Seek(%d, %d): %v", tt.offset, tt.whence, err)
			}
			if got != tt.want {
				t.Errorf("Seek(%d, %d) = %d, want %d", tt.offset, tt.whence, got, tt.want)
			}
		}
		if _, err := reader.Seek(0, 7); !errors.Is(err, ErrInvalid) {
			t.Errorf("Seek with bad whence: error = %v, want ErrInvalid", err)
		}
	})
}

func TestReaderAtEnd(t *testing.T) {
	forEachReaderNode(t, func(t *testing.T, node *Node) {
		reader, err := node.Open()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := reader.Seek(0, io.SeekEnd); err != nil {
			t.Fatal(err)
		}
		buffer := make([]byte, 4)
		if n, err := reader.Read(buffer); n != 0 || err != io.EOF {
			t.Errorf("Read at end = %d, %v; want 0, io.EOF", n, err)
		}
		if got, err := reader.ReadN(10); err != nil || len(got) != 0 {
			t.Errorf("ReadN at end = %q, %v", got, err)
		}
	})
}

func TestReaderReadAt(t *testing.T) {
	forEachReaderNode(t, func(t *testing.T, node *Node) {
		reader, err := node.Open()
		if err != nil {
			t.Fatal(err)
		}
		buffer := make([]byte, 6)
		n, err := reader.ReadAt(buffer, 11)
		if err != nil || string(buffer[:n]) != readerContent[11:17] {
			t.Errorf("ReadAt(11) = %q, %v", buffer[:n], err)
		}
		n, err = reader.ReadAt(buffer, int64(len(readerContent))-2)
		if err != io.EOF || string(buffer[:n]) != readerContent[len(readerContent)-2:] {
			t.Errorf("ReadAt near end = %q, %v; want short read with io.EOF", buffer[:n], err)
		}
		if _, err := reader.ReadAt(buffer, -1); !errors.Is(err, ErrInvalid) {
			t.Errorf("ReadAt(-1) error = %v, want ErrInvalid", err)
		}
	})
}

func TestReaderIOCopy(t *testing.T) {
	chunked, _ := readerFixture(t)
	reader, err := chunked.Open()
	if err != nil {
		t.Fatal(err)
	}
	var sink stringSink
	if _, err := io.Copy(&sink, reader); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	if sink.value != readerContent {
		t.Errorf("io.Copy content = %q", sink.value)
	}
}

// stringSink is a writer without ReaderFrom so io.Copy exercises Read.
type stringSink struct {
	value string
}

func (s *stringSink) Write(p []byte) (int, error) {
	s.value += string(p)
	return len(p), nil
}

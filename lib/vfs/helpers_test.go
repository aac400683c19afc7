// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"bytes"
	"testing"
	"time"

	"github.com/bureau-foundation/snapvfs/lib/metadata"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// fixture writes objects into an in-memory repository for tests.
type fixture struct {
	t    *testing.T
	repo *objstore.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, repo: objstore.NewRepository(objstore.NewMemoryBackend(), nil)}
}

func (f *fixture) blob(content string) objstore.ID {
	f.t.Helper()
	id, err := f.repo.WriteBlob([]byte(content))
	if err != nil {
		f.t.Fatalf("WriteBlob: %v", err)
	}
	return id
}

func (f *fixture) tree(entries ...objstore.TreeEntry) objstore.ID {
	f.t.Helper()
	id, err := f.repo.WriteTree(entries)
	if err != nil {
		f.t.Fatalf("WriteTree: %v", err)
	}
	return id
}

// chunked stores chunks as a chunk tree with the given fanout.
func (f *fixture) chunked(fanout int, chunks ...string) objstore.ID {
	f.t.Helper()
	raw := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		raw[i] = []byte(chunk)
	}
	id, err := f.repo.WriteChunks(raw, fanout)
	if err != nil {
		f.t.Fatalf("WriteChunks: %v", err)
	}
	return id
}

func (f *fixture) metaStream(records ...*metadata.Record) objstore.ID {
	f.t.Helper()
	var buffer bytes.Buffer
	writer := metadata.NewWriter(&buffer)
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			f.t.Fatalf("metadata Write: %v", err)
		}
	}
	return f.blob(buffer.String())
}

func (f *fixture) commit(tree objstore.ID, at time.Time, parents ...objstore.ID) objstore.ID {
	f.t.Helper()
	id, err := f.repo.WriteCommit(&objstore.Commit{
		Tree:      tree,
		Parents:   parents,
		Author:    "test <test@example.com>",
		Committer: "test <test@example.com>",
		Time:      at.Unix(),
		Message:   "snapshot",
	})
	if err != nil {
		f.t.Fatalf("WriteCommit: %v", err)
	}
	return id
}

func (f *fixture) setRef(name string, id objstore.ID) {
	f.t.Helper()
	if err := f.repo.UpdateRef(name, id); err != nil {
		f.t.Fatalf("UpdateRef(%s): %v", name, err)
	}
}

func (f *fixture) root() *Node {
	return New(f.repo, Options{Location: time.UTC})
}

func (f *fixture) treeRoot(id objstore.ID) *Node {
	f.t.Helper()
	node, err := NewTree(f.repo, id, Options{Location: time.UTC})
	if err != nil {
		f.t.Fatalf("NewTree: %v", err)
	}
	return node
}

func fileEntry(name string, id objstore.ID) objstore.TreeEntry {
	return objstore.TreeEntry{Mode: objstore.ModeFile, Name: name, ID: id}
}

func dirEntry(name string, id objstore.ID) objstore.TreeEntry {
	return objstore.TreeEntry{Mode: objstore.ModeTree, Name: name, ID: id}
}

func chunkedEntry(name string, id objstore.ID) objstore.TreeEntry {
	return objstore.TreeEntry{Mode: objstore.ModeTree, Name: objstore.MangleName(name, true), ID: id}
}

func (f *fixture) symlinkEntry(name, target string) objstore.TreeEntry {
	return objstore.TreeEntry{Mode: objstore.ModeSymlink, Name: name, ID: f.blob(target)}
}

// readAllNode opens node and returns its full content.
func readAllNode(t *testing.T, node *Node) string {
	t.Helper()
	reader, err := node.Open()
	if err != nil {
		t.Fatalf("Open(%s): %v", node.FullName(), err)
	}
	defer reader.Close()
	content, err := reader.ReadN(-1)
	if err != nil {
		t.Fatalf("ReadN(%s): %v", node.FullName(), err)
	}
	return string(content)
}

func entryNames(t *testing.T, node *Node) []string {
	t.Helper()
	entries, err := node.Entries()
	if err != nil {
		t.Fatalf("Entries(%s): %v", node.FullName(), err)
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

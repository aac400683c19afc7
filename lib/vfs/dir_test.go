// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/bureau-foundation/snapvfs/lib/metadata"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

func record(mode uint32, user string, mtime int64) *metadata.Record {
	return &metadata.Record{Mode: mode, UID: 1000, GID: 1000, User: user, Group: "staff", Mtime: mtime}
}

// sameRecord compares the fields the tests set.
func sameRecord(got, want *metadata.Record) bool {
	if got == nil || want == nil {
		return got == want
	}
	return got.Mode == want.Mode && got.User == want.User && got.Mtime == want.Mtime
}

// snapshotFixture builds:
//
//	/docs/report.txt   file "quarterly"
//	/docs/notes.txt    file "todo"
//	/image.bin         chunked, three chunks
//	/link              symlink -> docs/report.txt
//	/run.sh            executable file
//
// with a metadata record for every entry.
type snapshotFixture struct {
	root                                   *Node
	reportMeta, notesMeta, docsMeta        *metadata.Record
	imageMeta, linkMeta, runMeta, rootMeta *metadata.Record
	imageContent                           string
}

func newSnapshotFixture(t *testing.T) *snapshotFixture {
	t.Helper()
	f := newFixture(t)
	s := &snapshotFixture{
		reportMeta:   record(0o100644, "alice", 100),
		notesMeta:    record(0o100600, "bob", 200),
		docsMeta:     record(0o040750, "alice", 300),
		imageMeta:    record(0o100644, "carol", 400),
		linkMeta:     record(0o120777, "alice", 500),
		runMeta:      record(0o100755, "dave", 600),
		rootMeta:     record(0o040755, "root", 700),
		imageContent: "first-chunk|second-chunk|third",
	}

	// Store order puts report.txt before notes.txt; the metadata
	// stream follows store order, not name order.
	docs := f.tree(
		fileEntry("report.txt", f.blob("quarterly")),
		fileEntry("notes.txt", f.blob("todo")),
		fileEntry(objstore.MetadataStreamName, f.metaStream(s.reportMeta, s.notesMeta, s.docsMeta)),
	)
	top := f.tree(
		dirEntry("docs", docs),
		chunkedEntry("image.bin", f.chunked(2, "first-chunk|", "second-chunk|", "third")),
		f.symlinkEntry("link", "docs/report.txt"),
		objstore.TreeEntry{Mode: objstore.ModeExec, Name: "run.sh", ID: f.blob("#!/bin/sh\n")},
		fileEntry(objstore.MetadataStreamName, f.metaStream(s.imageMeta, s.linkMeta, s.runMeta, s.rootMeta)),
	)
	s.root = f.treeRoot(top)
	return s
}

func TestDirListingHidesMetadataStream(t *testing.T) {
	s := newSnapshotFixture(t)
	if got, want := entryNames(t, s.root), []string{"docs", "image.bin", "link", "run.sh"}; !equalStrings(got, want) {
		t.Errorf("root entries = %q, want %q", got, want)
	}
	docs := mustResolve(t, s.root, "docs")
	if got, want := entryNames(t, docs), []string{"notes.txt", "report.txt"}; !equalStrings(got, want) {
		t.Errorf("docs entries = %q, want %q", got, want)
	}
	if _, err := docs.Child(objstore.MetadataStreamName); !errors.Is(err, ErrNoSuchFile) {
		t.Errorf("Child(.bupm) error = %v, want ErrNoSuchFile", err)
	}
}

func TestDirChunkedFile(t *testing.T) {
	s := newSnapshotFixture(t)
	image := mustResolve(t, s.root, "image.bin")
	if image.Kind() != KindFile {
		t.Fatalf("image.bin kind = %s", image.Kind())
	}
	if image.Mode() != objstore.ModeFile {
		t.Errorf("image.bin mode = %o", image.Mode())
	}
	size, err := image.Size()
	if err != nil || size != int64(len(s.imageContent)) {
		t.Errorf("Size = %d, %v; want %d", size, err, len(s.imageContent))
	}
	if got := readAllNode(t, image); got != s.imageContent {
		t.Errorf("content = %q", got)
	}
	if _, err := s.root.Child("image.bin.bup"); !errors.Is(err, ErrNoSuchFile) {
		t.Errorf("mangled name visible: %v", err)
	}
}

func TestDirMetadataAlignment(t *testing.T) {
	s := newSnapshotFixture(t)
	tests := []struct {
		path string
		want *metadata.Record
	}{
		{"docs/report.txt", s.reportMeta},
		{"docs/notes.txt", s.notesMeta},
		{"docs", s.docsMeta},
		{"image.bin", s.imageMeta},
		{"link", s.linkMeta},
		{"run.sh", s.runMeta},
		{"", s.rootMeta},
	}
	for _, tt := range tests {
		node, err := s.root.Lresolve(tt.path)
		if err != nil {
			t.Fatalf("Lresolve(%q): %v", tt.path, err)
		}
		got, err := node.Metadata()
		if err != nil {
			t.Fatalf("Metadata(%q): %v", tt.path, err)
		}
		if !sameRecord(got, tt.want) {
			t.Errorf("Metadata(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}
}

func TestDirMetadataAfterRelease(t *testing.T) {
	s := newSnapshotFixture(t)
	docs := mustResolve(t, s.root, "docs")
	if meta, err := docs.Metadata(); err != nil || !sameRecord(meta, s.docsMeta) {
		t.Fatalf("Metadata = %+v, %v", meta, err)
	}
	docs.Release()
	report := mustResolve(t, docs, "report.txt")
	meta, err := report.Metadata()
	if err != nil || !sameRecord(meta, s.reportMeta) {
		t.Errorf("Metadata after Release = %+v, %v", meta, err)
	}
}

func TestDirMetadataHeldAcrossRelease(t *testing.T) {
	s := newSnapshotFixture(t)
	docs := mustResolve(t, s.root, "docs")

	tests := []struct {
		name  string
		reset func(report *Node)
	}{
		{"parent Release", func(*Node) { docs.Release() }},
		{"parent Refresh", func(*Node) { docs.Refresh() }},
		{"node Release", func(report *Node) { report.Release() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Held before metadata was ever loaded.
			held := mustResolve(t, docs, "report.txt")
			tt.reset(held)
			meta, err := held.Metadata()
			if err != nil || !sameRecord(meta, s.reportMeta) {
				t.Errorf("Metadata of held node = %+v, %v; want %+v", meta, err, s.reportMeta)
			}

			// Held after metadata was loaded once.
			notes := mustResolve(t, docs, "notes.txt")
			if _, err := notes.Metadata(); err != nil {
				t.Fatal(err)
			}
			tt.reset(notes)
			meta, err = notes.Metadata()
			if err != nil || !sameRecord(meta, s.notesMeta) {
				t.Errorf("Metadata of held node = %+v, %v; want %+v", meta, err, s.notesMeta)
			}
		})
	}
}

// countingBackend counts object reads.
type countingBackend struct {
	objstore.Backend
	reads int
}

func (c *countingBackend) ReadObject(id objstore.ID) (objstore.Type, []byte, error) {
	c.reads++
	return c.Backend.ReadObject(id)
}

func TestDirShortMetadataStreamReadOnce(t *testing.T) {
	backend := &countingBackend{Backend: objstore.NewMemoryBackend()}
	f := &fixture{t: t, repo: objstore.NewRepository(backend, nil)}
	root := f.treeRoot(f.tree(
		fileEntry("x", f.blob("x")),
		fileEntry("y", f.blob("y")),
		fileEntry(objstore.MetadataStreamName, f.metaStream(record(0o100644, "alice", 1))),
	))
	y := mustResolve(t, root, "y")
	if meta, err := y.Metadata(); err != nil || meta != nil {
		t.Fatalf("y metadata = %+v, %v; want nil", meta, err)
	}
	before := backend.reads
	for range 3 {
		if meta, err := y.Metadata(); err != nil || meta != nil {
			t.Fatalf("y metadata = %+v, %v; want nil", meta, err)
		}
	}
	if backend.reads != before {
		t.Errorf("repeated Metadata read %d objects, want 0", backend.reads-before)
	}
}

func TestDirShortMetadataStream(t *testing.T) {
	f := newFixture(t)
	first := record(0o100644, "alice", 1)
	root := f.treeRoot(f.tree(
		fileEntry("x", f.blob("x")),
		dirEntry("sub", f.tree(fileEntry("inner", f.blob("i")))),
		fileEntry("y", f.blob("y")),
		fileEntry(objstore.MetadataStreamName, f.metaStream(first)),
	))

	x := mustResolve(t, root, "x")
	if meta, err := x.Metadata(); err != nil || !sameRecord(meta, first) {
		t.Errorf("x metadata = %+v, %v", meta, err)
	}
	y := mustResolve(t, root, "y")
	if meta, err := y.Metadata(); err != nil || meta != nil {
		t.Errorf("y metadata = %+v, %v; want nil", meta, err)
	}
	if meta, err := root.Metadata(); err != nil || meta != nil {
		t.Errorf("root metadata = %+v, %v; want nil", meta, err)
	}
	// A directory without a stream has no records at all.
	inner := mustResolve(t, root, "sub/inner")
	if meta, err := inner.Metadata(); err != nil || meta != nil {
		t.Errorf("sub/inner metadata = %+v, %v; want nil", meta, err)
	}
}

func TestDirMalformedMetadataStream(t *testing.T) {
	f := newFixture(t)
	var stream bytes.Buffer
	writer := metadata.NewWriter(&stream)
	if err := writer.Write(record(0o100644, "alice", 1)); err != nil {
		t.Fatal(err)
	}
	stream.WriteByte(0xff)
	root := f.treeRoot(f.tree(
		fileEntry("ok", f.blob("ok")),
		fileEntry("bad", f.blob("bad")),
		fileEntry(objstore.MetadataStreamName, f.blob(stream.String())),
	))
	bad := mustResolve(t, root, "bad")
	if _, err := bad.Metadata(); !errors.Is(err, metadata.ErrMalformed) {
		t.Errorf("Metadata error = %v, want ErrMalformed", err)
	}
}

func TestDirChunkedMetadataStream(t *testing.T) {
	f := newFixture(t)
	var stream bytes.Buffer
	writer := metadata.NewWriter(&stream)
	want := []*metadata.Record{record(0o100644, "a", 1), record(0o040755, "b", 2)}
	for _, r := range want {
		if err := writer.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	raw := stream.Bytes()
	half := len(raw) / 2
	streamID := f.chunked(2, string(raw[:half]), string(raw[half:]))
	root := f.treeRoot(f.tree(
		fileEntry("file", f.blob("content")),
		dirEntry(objstore.MetadataStreamName, streamID),
	))
	if meta, err := mustResolve(t, root, "file").Metadata(); err != nil || !sameRecord(meta, want[0]) {
		t.Errorf("file metadata = %+v, %v", meta, err)
	}
	if meta, err := root.Metadata(); err != nil || !sameRecord(meta, want[1]) {
		t.Errorf("root metadata = %+v, %v", meta, err)
	}
}

func TestDirEscapedNames(t *testing.T) {
	f := newFixture(t)
	root := f.treeRoot(f.tree(
		fileEntry(objstore.MangleName("odd.bup", false), f.blob("escaped")),
		fileEntry(objstore.MangleName("plain.bupl", false), f.blob("also escaped")),
	))
	if got, want := entryNames(t, root), []string{"odd.bup", "plain.bupl"}; !equalStrings(got, want) {
		t.Fatalf("entries = %q, want %q", got, want)
	}
	if got := readAllNode(t, mustResolve(t, root, "odd.bup")); got != "escaped" {
		t.Errorf("odd.bup = %q", got)
	}
}

// rawTree stores a tree object without EncodeTree's name checks.
func (f *fixture) rawTree(mode uint32, name string, id objstore.ID) objstore.ID {
	f.t.Helper()
	data := append([]byte(strconv.FormatUint(uint64(mode), 8)+" "+name+"\x00"), id[:]...)
	treeID, err := f.repo.Backend().WriteObject(objstore.TypeTree, data)
	if err != nil {
		f.t.Fatalf("WriteObject: %v", err)
	}
	return treeID
}

func TestDirRejectsNamesOutsideDirectory(t *testing.T) {
	f := newFixture(t)
	inner := f.tree(fileEntry("evil", f.blob("x")))
	for _, name := range []string{"..", ".", "../up", "." + objstore.EscapeSuffix} {
		t.Run(name, func(t *testing.T) {
			root := f.treeRoot(f.rawTree(objstore.ModeTree, name, inner))
			if _, err := root.Children(); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Children error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDirFromCommit(t *testing.T) {
	f := newFixture(t)
	tree := f.tree(fileEntry("a", f.blob("alpha")))
	commit := f.commit(tree, firstSnapshot)
	root := f.treeRoot(commit)
	if root.ID() != commit {
		t.Errorf("root ID = %s, want the commit", root.ID())
	}
	if got := readAllNode(t, mustResolve(t, root, "a")); got != "alpha" {
		t.Errorf("a = %q", got)
	}
}

func TestDirOverNonTree(t *testing.T) {
	f := newFixture(t)
	blob := f.blob("not a tree")
	root := f.treeRoot(f.tree(dirEntry("bogus", blob)))
	bogus := mustResolve(t, root, "bogus")
	if _, err := bogus.Children(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Children on blob-backed dir: error = %v, want ErrCorrupt", err)
	}
	if _, err := NewTree(f.repo, blob, Options{}); !errors.Is(err, ErrNotDir) {
		t.Errorf("NewTree(blob) error = %v, want ErrNotDir", err)
	}
	if _, err := NewTree(f.repo, objstore.HashObject(objstore.TypeTree, []byte("absent")), Options{}); !errors.Is(err, objstore.ErrNotFound) {
		t.Errorf("NewTree(missing) error = %v, want ErrNotFound", err)
	}
}

func TestNodeBasics(t *testing.T) {
	s := newSnapshotFixture(t)
	docs := mustResolve(t, s.root, "docs")
	report := mustResolve(t, s.root, "docs/report.txt")

	if _, err := docs.Open(); !errors.Is(err, ErrNotFile) {
		t.Errorf("Open(dir) error = %v, want ErrNotFile", err)
	}
	if size, err := docs.Size(); err != nil || size != 0 {
		t.Errorf("dir Size = %d, %v", size, err)
	}
	if report.NLinks() != 1 || docs.NLinks() != 1 {
		t.Error("NLinks should be 1")
	}
	if got := report.FullName(); got != "/docs/report.txt" {
		t.Errorf("FullName = %q", got)
	}
	if s.root.FullName() != "/" {
		t.Errorf("root FullName = %q", s.root.FullName())
	}
	if report.Top() != s.root {
		t.Error("Top should be the root")
	}

	viaLink := mustResolve(t, s.root, "link")
	if !viaLink.Equal(report) || viaLink != report {
		t.Error("link should resolve to the same report.txt node")
	}
	notes := mustResolve(t, s.root, "docs/notes.txt")
	if report.Equal(notes) {
		t.Error("distinct entries compare equal")
	}

	run := mustResolve(t, s.root, "run.sh")
	if run.Mode() != objstore.ModeExec {
		t.Errorf("run.sh mode = %o", run.Mode())
	}
	if run.IsDir() || run.IsSymlink() || !docs.IsDir() {
		t.Error("IsDir/IsSymlink wrong")
	}

	children, err := s.root.Children()
	if err != nil {
		t.Fatal(err)
	}
	if children[0] != docs {
		t.Error("Children should return the cached nodes")
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/snapvfs/lib/metadata"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// dir is a stored directory. Its ID is a tree, or a commit whose tree
// is used.
type dir struct {
	baseVariant

	// storeOrder lists the children in tree order, which is the order
	// their records appear in the metadata stream.
	storeOrder []*Node

	// metaStream is the directory's ".bupm" entry, or nil.
	metaStream *Node

	// records holds the decoded record for each storeOrder entry, nil
	// for subdirectories and for entries past the end of a short
	// stream.
	records []*metadata.Record

	metaLoaded bool
}

func (*dir) kind() Kind { return KindDir }

func (d *dir) populate(n *Node) ([]Entry, error) {
	repo := n.session.repo
	treeID := n.id
	objectType, data, err := repo.Get(treeID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", n.FullName(), err)
	}
	if objectType == objstore.TypeCommit {
		commit, err := objstore.DecodeCommit(data)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", n.FullName(), err)
		}
		treeID = commit.Tree
		objectType, data, err = repo.Get(treeID)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", n.FullName(), err)
		}
	}
	if objectType != objstore.TypeTree {
		return nil, fmt.Errorf("listing %s: %w: object %s is a %s, want tree",
			n.FullName(), ErrCorrupt, objstore.ShortID(treeID), objectType)
	}
	treeEntries, err := objstore.DecodeTree(data)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", n.FullName(), err)
	}

	d.storeOrder = d.storeOrder[:0]
	d.metaStream = nil
	d.records = nil
	d.metaLoaded = false
	entries := make([]Entry, 0, len(treeEntries))
	for _, treeEntry := range treeEntries {
		if treeEntry.Name == objstore.MetadataStreamName {
			d.metaStream = newNode(n, treeEntry.Name, objstore.ModeFile, treeEntry.ID,
				&file{chunked: objstore.IsTreeMode(treeEntry.Mode)})
			continue
		}

		name, chunking := objstore.DemangleName(treeEntry.Name, treeEntry.Mode)
		if err := objstore.ValidateEntryName(name); err != nil {
			return nil, fmt.Errorf("listing %s: %w", n.FullName(), err)
		}
		chunked := chunking == objstore.ChunkingChunked
		mode := treeEntry.Mode
		if chunked {
			mode = objstore.ModeFile
		}

		var child *Node
		switch {
		case objstore.IsTreeMode(mode):
			child = newNode(n, name, mode, treeEntry.ID, &dir{})
		case objstore.IsSymlinkMode(mode):
			child = newNode(n, name, objstore.ModeSymlink, treeEntry.ID, &symlink{chunked: chunked})
		default:
			child = newNode(n, name, mode, treeEntry.ID, &file{chunked: chunked})
		}
		d.storeOrder = append(d.storeOrder, child)
		entries = append(entries, Entry{Name: name, Node: child})
	}
	return entries, nil
}

// populateMetadata reads the metadata stream: one record per
// non-directory child in store order, then the directory's own
// record. A short stream leaves the remaining nodes without metadata.
// The stream is read at most once per listing.
func (d *dir) populateMetadata(n *Node) error {
	if d.metaLoaded && n.state == cachePopulated {
		return nil
	}
	if err := n.ensureChildren(); err != nil {
		return err
	}
	if d.metaStream == nil {
		d.metaLoaded = true
		return nil
	}

	stream, err := d.metaStream.Open()
	if err != nil {
		return fmt.Errorf("metadata for %s: %w", n.FullName(), err)
	}
	defer stream.Close()
	reader := metadata.NewReader(stream)

	next := func() (*metadata.Record, bool, error) {
		record, err := reader.Next()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("metadata for %s: %w", n.FullName(), err)
		}
		return record, true, nil
	}

	records := make([]*metadata.Record, len(d.storeOrder))
	exhausted := false
	for i, child := range d.storeOrder {
		if objstore.IsTreeMode(child.mode) {
			continue
		}
		child.meta = nil
		if exhausted {
			continue
		}
		record, ok, err := next()
		if err != nil {
			return err
		}
		if !ok {
			exhausted = true
			continue
		}
		child.meta = record
		records[i] = record
	}

	n.meta = nil
	if !exhausted {
		record, _, err := next()
		if err != nil {
			return err
		}
		n.meta = record
	}
	d.records = records
	d.metaLoaded = true
	return nil
}

// recordFor returns the loaded record of the non-directory child
// listed under name.
func (d *dir) recordFor(name string) *metadata.Record {
	for i, child := range d.storeOrder {
		if child.name == name && i < len(d.records) {
			return d.records[i]
		}
	}
	return nil
}

func (d *dir) release(*Node) {
	d.storeOrder = nil
	d.metaStream = nil
	d.records = nil
	d.metaLoaded = false
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// snapshotTimeLayout names snapshot directories by commit time.
const snapshotTimeLayout = "2006-01-02-150405"

// tagDirName is the root entry listing all tags.
const tagDirName = ".tag"

// latestName is the branch entry pointing at the newest snapshot.
const latestName = "latest"

// refList is the root. It owns the node cache that shares snapshot
// directories between branches and tags.
type refList struct {
	baseVariant

	// nodes maps a commit or tree ID to the first Dir node created
	// for it.
	nodes map[objstore.ID]*Node

	// fingerprint identifies the branch ref set the listing was
	// built from.
	fingerprint string
}

func (*refList) kind() Kind { return KindRefList }

// cachedDir returns the shared Dir node for id, creating it under
// parent with the given name on first use.
func (r *refList) cachedDir(parent *Node, name string, id objstore.ID) *Node {
	if node, ok := r.nodes[id]; ok {
		return node
	}
	node := newNode(parent, name, objstore.ModeTree, id, &dir{})
	r.nodes[id] = node
	return node
}

func refFingerprint(refs []objstore.Ref) string {
	var builder strings.Builder
	for _, ref := range refs {
		builder.WriteString(ref.Name)
		builder.WriteByte(0)
		builder.Write(ref.ID[:])
	}
	return builder.String()
}

func (r *refList) changed(n *Node) (bool, error) {
	branches, err := n.session.repo.Branches()
	if err != nil {
		return false, fmt.Errorf("listing branches: %w", err)
	}
	return refFingerprint(branches) != r.fingerprint, nil
}

func (r *refList) populate(n *Node) ([]Entry, error) {
	branches, err := n.session.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	// Keep existing children so their caches survive a rebuild.
	existing := make(map[string]*Node, len(n.children))
	for _, entry := range n.children {
		existing[entry.Name] = entry.Node
	}

	tagDir, ok := existing[tagDirName]
	if !ok || tagDir.Kind() != KindTagDir {
		tagDir = newNode(n, tagDirName, objstore.ModeTree, objstore.EmptyID, &tagList{})
	}
	entries := []Entry{{Name: tagDirName, Node: tagDir}}

	for _, branch := range branches {
		commitTime, err := n.session.repo.CommitTime(branch.ID)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", branch.Name, err)
		}
		node, ok := existing[branch.Name]
		if !ok || node.Kind() != KindBranchList {
			node = newNode(n, branch.Name, objstore.ModeTree, branch.ID, &branchList{})
		}
		node.ctime = commitTime.Unix()
		node.mtime = commitTime.Unix()
		entries = append(entries, Entry{Name: branch.Name, Node: node})
	}

	r.fingerprint = refFingerprint(branches)
	n.session.logger.Debug("ref list rebuilt", "branches", len(branches))
	return entries, nil
}

func (r *refList) release(*Node) {
	r.nodes = make(map[objstore.ID]*Node)
	r.fingerprint = ""
}

// nodeCache returns the root's node cache, reached through the
// parent of a history directory.
func nodeCache(n *Node) *refList {
	if n.parent == nil {
		return nil
	}
	refs, _ := n.parent.variant.(*refList)
	return refs
}

// snapshotDir returns the Dir node for id, shared through the node
// cache when there is one.
func snapshotDir(n *Node, name string, id objstore.ID) *Node {
	if refs := nodeCache(n); refs != nil {
		return refs.cachedDir(n, name, id)
	}
	return newNode(n, name, objstore.ModeTree, id, &dir{})
}

// tagList is the ".tag" directory: one snapshot per tag.
type tagList struct {
	baseVariant
	fingerprint string
}

func (*tagList) kind() Kind { return KindTagDir }

func (t *tagList) changed(n *Node) (bool, error) {
	tags, err := n.session.repo.TagRefs()
	if err != nil {
		return false, fmt.Errorf("listing tags: %w", err)
	}
	return refFingerprint(tags) != t.fingerprint, nil
}

func (t *tagList) populate(n *Node) ([]Entry, error) {
	tags, err := n.session.repo.TagRefs()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	entries := make([]Entry, 0, len(tags))
	for _, tag := range tags {
		entries = append(entries, Entry{Name: tag.Name, Node: snapshotDir(n, tag.Name, tag.ID)})
	}
	t.fingerprint = refFingerprint(tags)
	n.session.logger.Debug("tag list rebuilt", "tags", len(tags))
	return entries, nil
}

func (t *tagList) release(*Node) {
	t.fingerprint = ""
}

// branchList lists one branch's history.
type branchList struct {
	baseVariant

	// tip is the branch tip the listing was built from.
	tip objstore.ID

	generation uint64
}

func (*branchList) kind() Kind { return KindBranchList }

func (b *branchList) readTip(n *Node) (objstore.ID, error) {
	tip, err := n.session.repo.ReadRef(objstore.BranchPrefix + n.name)
	if errors.Is(err, objstore.ErrNotFound) {
		return objstore.EmptyID, fmt.Errorf("branch %s no longer exists: %w", n.name, ErrNoSuchFile)
	}
	if err != nil {
		return objstore.EmptyID, fmt.Errorf("reading branch %s: %w", n.name, err)
	}
	return tip, nil
}

func (b *branchList) changed(n *Node) (bool, error) {
	tip, err := b.readTip(n)
	if err != nil {
		return false, err
	}
	return tip != b.tip, nil
}

func (b *branchList) populate(n *Node) ([]Entry, error) {
	repo := n.session.repo
	tip, err := b.readTip(n)
	if err != nil {
		return nil, err
	}
	revs, err := repo.RevList(tip)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", n.name, err)
	}
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	byName := make(map[string]*Node, len(revs)+1)
	for _, rev := range revs {
		commitTime := rev.Time()
		name := commitTime.In(n.session.location).Format(snapshotTimeLayout)
		snapshot := snapshotDir(n, name, rev.ID)
		if snapshot.mtime == 0 {
			snapshot.ctime = commitTime.Unix()
			snapshot.mtime = commitTime.Unix()
		}
		// On a name collision the older commit, listed later, wins.
		byName[name] = snapshot

		for _, tag := range tags[rev.ID] {
			link := newNode(n, tag, objstore.ModeSymlink, objstore.EmptyID,
				&fakeSymlink{target: "/" + tagDirName + "/" + tag})
			link.ctime = commitTime.Unix()
			link.mtime = commitTime.Unix()
			byName[tag] = link
		}
	}

	if len(revs) > 0 {
		newest := revs[0].Time()
		link := newNode(n, latestName, objstore.ModeSymlink, objstore.EmptyID,
			&fakeSymlink{target: newest.In(n.session.location).Format(snapshotTimeLayout)})
		link.ctime = newest.Unix()
		link.mtime = newest.Unix()
		byName[latestName] = link
	}

	entries := make([]Entry, 0, len(byName))
	for name, node := range byName {
		entries = append(entries, Entry{Name: name, Node: node})
	}

	b.tip = tip
	n.id = tip
	b.generation++
	n.session.logger.Debug("branch list rebuilt",
		"branch", n.name,
		"tip", objstore.ShortID(tip),
		"commits", len(revs),
		"generation", b.generation,
	)
	return entries, nil
}

func (b *branchList) release(*Node) {
	b.tip = objstore.EmptyID
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/bureau-foundation/snapvfs/lib/metadata"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// Kind identifies a node variant.
type Kind int

const (
	// KindFile is a regular file stored as a blob or chunk tree.
	KindFile Kind = iota

	// KindSymlink is a symlink whose target is stored as a blob.
	KindSymlink

	// KindFakeSymlink is a synthetic symlink with no backing object
	// ("latest" and tag links inside branch directories).
	KindFakeSymlink

	// KindDir is a stored directory: a tree, or a commit's tree.
	KindDir

	// KindTagDir is the synthetic ".tag" directory.
	KindTagDir

	// KindBranchList is a synthetic directory listing one branch's
	// snapshots.
	KindBranchList

	// KindRefList is the root: one BranchList per branch plus
	// ".tag".
	KindRefList
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindFakeSymlink:
		return "fake-symlink"
	case KindDir:
		return "dir"
	case KindTagDir:
		return "tag-dir"
	case KindBranchList:
		return "branch-list"
	case KindRefList:
		return "ref-list"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// cacheState is the lifecycle of a node's child listing.
type cacheState int

const (
	cacheUnpopulated cacheState = iota
	cachePopulated
	cacheStale
)

// variant holds the per-kind behavior of a node. The set of
// implementations is closed: one per Kind.
type variant interface {
	kind() Kind

	// populate builds the child listing. Order does not matter;
	// the caller sorts.
	populate(n *Node) ([]Entry, error)

	// changed reports whether a populated listing is out of date.
	changed(n *Node) (bool, error)

	open(n *Node) (*FileReader, error)
	size(n *Node) (int64, error)
	readlink(n *Node) (string, error)

	// populateMetadata assigns metadata records to n's children
	// (and to n itself where the record lives in n's own stream).
	populateMetadata(n *Node) error

	// release drops variant-specific caches.
	release(n *Node)
}

// baseVariant provides the behavior shared by most kinds: no
// children, no content, no link target, no metadata stream.
type baseVariant struct{}

func (baseVariant) populate(*Node) ([]Entry, error) { return nil, nil }
func (baseVariant) changed(*Node) (bool, error)     { return false, nil }
func (baseVariant) size(*Node) (int64, error)       { return 0, nil }
func (baseVariant) populateMetadata(*Node) error {
	return nil
}
func (baseVariant) release(*Node) {}

func (baseVariant) open(n *Node) (*FileReader, error) {
	return nil, fmt.Errorf("open %s: %w", n.FullName(), ErrNotFile)
}

func (baseVariant) readlink(n *Node) (string, error) {
	return "", fmt.Errorf("readlink %s: not a symlink: %w", n.FullName(), ErrInvalid)
}

// session is the state shared by every node under one root.
type session struct {
	repo     *objstore.Repository
	logger   *slog.Logger
	location *time.Location
}

// Entry is one child in a directory listing. Name is the name under
// which the child is listed; a node shared through the node cache
// keeps the name it was first created with, so Name may differ from
// Node.Name().
type Entry struct {
	Name string
	Node *Node
}

// Node is one file, directory, or symlink in the tree.
type Node struct {
	parent  *Node
	name    string
	mode    uint32
	id      objstore.ID
	session *session
	variant variant

	// Unix seconds. Zero unless the node's kind assigns them.
	ctime, mtime, atime int64

	state    cacheState
	children []Entry
	meta     *metadata.Record
}

func newNode(parent *Node, name string, mode uint32, id objstore.ID, v variant) *Node {
	return &Node{
		parent:  parent,
		name:    name,
		mode:    mode,
		id:      id,
		session: parent.session,
		variant: v,
	}
}

// Name returns the node's name. The root is named "/".
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, or nil at the top.
func (n *Node) Parent() *Node { return n.parent }

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.variant.kind() }

// Mode returns the POSIX mode bits from the tree entry (type bits and
// the executable bit; full permissions are in [Node.Metadata]).
func (n *Node) Mode() uint32 { return n.mode }

// ID returns the object backing the node, or [objstore.EmptyID] for
// synthetic nodes. For a branch directory it is the last observed
// tip.
func (n *Node) ID() objstore.ID { return n.id }

// ModTime returns the node's modification time.
func (n *Node) ModTime() time.Time { return time.Unix(n.mtime, 0) }

// ChangeTime returns the node's change time.
func (n *Node) ChangeTime() time.Time { return time.Unix(n.ctime, 0) }

// AccessTime returns the node's access time.
func (n *Node) AccessTime() time.Time { return time.Unix(n.atime, 0) }

// IsDir reports whether the node can have children.
func (n *Node) IsDir() bool {
	switch n.Kind() {
	case KindDir, KindTagDir, KindBranchList, KindRefList:
		return true
	}
	return false
}

// IsSymlink reports whether the node is a stored or synthetic
// symlink.
func (n *Node) IsSymlink() bool {
	kind := n.Kind()
	return kind == KindSymlink || kind == KindFakeSymlink
}

// Equal reports whether n and other denote the same entry: the same
// name under the same parent.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	return n.parent == other.parent && n.name == other.name
}

// FullName returns the node's absolute path from the top.
func (n *Node) FullName() string {
	if n.parent == nil {
		return n.name
	}
	return path.Join(n.parent.FullName(), n.name)
}

// Top returns the root of the tree.
func (n *Node) Top() *Node {
	top := n
	for top.parent != nil {
		top = top.parent
	}
	return top
}

// FSTop returns the top of the snapshot containing n: the nearest
// ancestor (or n itself) whose parent is a branch directory or
// ".tag". Outside any snapshot it returns the root.
func (n *Node) FSTop() *Node {
	top := n
	for top.parent != nil {
		if kind := top.parent.Kind(); kind == KindBranchList || kind == KindTagDir {
			break
		}
		top = top.parent
	}
	return top
}

// ensureChildren populates the child listing if it is missing or
// out of date.
func (n *Node) ensureChildren() error {
	if !n.IsDir() {
		return fmt.Errorf("%s: %w", n.FullName(), ErrNotDir)
	}
	if n.state == cachePopulated {
		changed, err := n.variant.changed(n)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		n.state = cacheStale
	}

	entries, err := n.variant.populate(n)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	n.children = entries
	n.state = cachePopulated
	return nil
}

// Entries returns the child listing sorted by name.
func (n *Node) Entries() ([]Entry, error) {
	if err := n.ensureChildren(); err != nil {
		return nil, err
	}
	entries := make([]Entry, len(n.children))
	copy(entries, n.children)
	return entries, nil
}

// Children returns the child nodes sorted by listing name.
func (n *Node) Children() ([]*Node, error) {
	if err := n.ensureChildren(); err != nil {
		return nil, err
	}
	nodes := make([]*Node, len(n.children))
	for i, entry := range n.children {
		nodes[i] = entry.Node
	}
	return nodes, nil
}

// Child returns the child listed under name.
func (n *Node) Child(name string) (*Node, error) {
	if err := n.ensureChildren(); err != nil {
		return nil, err
	}
	index := sort.Search(len(n.children), func(i int) bool { return n.children[i].Name >= name })
	if index < len(n.children) && n.children[index].Name == name {
		return n.children[index].Node, nil
	}
	return nil, fmt.Errorf("no file %q in %s: %w", name, n.FullName(), ErrNoSuchFile)
}

// Open returns a reader over the node's content. Only files and
// stored symlinks have content.
func (n *Node) Open() (*FileReader, error) {
	return n.variant.open(n)
}

// Size returns the content length of a file, the target length of a
// symlink, and zero for everything else.
func (n *Node) Size() (int64, error) {
	return n.variant.size(n)
}

// NLinks returns the hard link count, which is always 1.
func (n *Node) NLinks() int {
	return 1
}

// Readlink returns a symlink's target text.
func (n *Node) Readlink() (string, error) {
	return n.variant.readlink(n)
}

// Metadata returns the node's recorded attributes, or nil when none
// were recorded.
func (n *Node) Metadata() (*metadata.Record, error) {
	if n.Kind() == KindDir {
		// A directory's own record is the last one in its own
		// stream.
		if err := n.variant.populateMetadata(n); err != nil {
			return nil, err
		}
		return n.meta, nil
	}
	if n.meta == nil && n.parent != nil {
		if err := n.parent.variant.populateMetadata(n.parent); err != nil {
			return nil, err
		}
		// A node released on its own, or held across a rebuild of
		// its parent's listing, takes the record of the entry now
		// listed under its name.
		if parent, ok := n.parent.variant.(*dir); ok && n.meta == nil {
			n.meta = parent.recordFor(n.name)
		}
	}
	return n.meta, nil
}

// Release drops cached children and metadata. They are rebuilt on
// next access. On the root this also empties the node cache.
func (n *Node) Release() {
	n.meta = nil
	n.children = nil
	n.state = cacheUnpopulated
	n.variant.release(n)
}

// Refresh marks the child listing stale so the next access rebuilds
// it even if nothing appears to have changed.
func (n *Node) Refresh() {
	if n.state == cachePopulated {
		n.state = cacheStale
	}
}

// Generation returns how many times a branch directory has rebuilt
// its listing. Other kinds return 0.
func (n *Node) Generation() uint64 {
	if branch, ok := n.variant.(*branchList); ok {
		return branch.generation
	}
	return 0
}

// CacheLen returns the number of nodes in the root's node cache.
// Other kinds return 0.
func (n *Node) CacheLen() int {
	if refs, ok := n.variant.(*refList); ok {
		return len(refs.nodes)
	}
	return 0
}

func (n *Node) String() string {
	return fmt.Sprintf("%s %s", n.Kind(), n.FullName())
}

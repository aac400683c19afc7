// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Repository is the typed view over a [Backend] used by the VFS and
// the snapshot writer.
type Repository struct {
	backend Backend
	logger  *slog.Logger
}

// NewRepository wraps backend. A nil logger discards output.
func NewRepository(backend Backend, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = discardLogger()
	}
	return &Repository{backend: backend, logger: logger}
}

// Backend returns the underlying storage backend.
func (r *Repository) Backend() Backend {
	return r.backend
}

// Close closes the backend.
func (r *Repository) Close() error {
	return r.backend.Close()
}

// Get returns the type and content of an object. Unknown IDs return
// an error wrapping [ErrNotFound].
func (r *Repository) Get(id ID) (Type, []byte, error) {
	return r.backend.ReadObject(id)
}

// Exists reports whether an object is stored.
func (r *Repository) Exists(id ID) (bool, error) {
	return r.backend.HasObject(id)
}

// ReadTree reads and decodes a tree object. A non-tree object is
// [ErrCorrupt].
func (r *Repository) ReadTree(id ID) ([]TreeEntry, error) {
	objectType, data, err := r.backend.ReadObject(id)
	if err != nil {
		return nil, err
	}
	if objectType != TypeTree {
		return nil, fmt.Errorf("%w: object %s is a %s, want tree", ErrCorrupt, ShortID(id), objectType)
	}
	entries, err := DecodeTree(data)
	if err != nil {
		return nil, fmt.Errorf("reading tree %s: %w", ShortID(id), err)
	}
	return entries, nil
}

// ReadCommit reads and decodes a commit object. A non-commit object
// is [ErrCorrupt].
func (r *Repository) ReadCommit(id ID) (*Commit, error) {
	objectType, data, err := r.backend.ReadObject(id)
	if err != nil {
		return nil, err
	}
	if objectType != TypeCommit {
		return nil, fmt.Errorf("%w: object %s is a %s, want commit", ErrCorrupt, ShortID(id), objectType)
	}
	commit, err := DecodeCommit(data)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", ShortID(id), err)
	}
	return commit, nil
}

// CommitTime returns the commit time of a commit object.
func (r *Repository) CommitTime(id ID) (time.Time, error) {
	commit, err := r.ReadCommit(id)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(commit.Time, 0), nil
}

// ListRefs returns every ref sorted by name.
func (r *Repository) ListRefs() ([]Ref, error) {
	refs, err := r.backend.Refs()
	if err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// ReadRef returns the ID a full ref name points at.
func (r *Repository) ReadRef(name string) (ID, error) {
	return r.backend.ReadRef(name)
}

// UpdateRef points a full ref name at id.
func (r *Repository) UpdateRef(name string, id ID) error {
	return r.backend.UpdateRef(name, id)
}

// DeleteRef removes a full ref name.
func (r *Repository) DeleteRef(name string) error {
	return r.backend.DeleteRef(name)
}

// Branches returns the branch refs sorted by name, with the
// refs/heads/ prefix removed from each name.
func (r *Repository) Branches() ([]Ref, error) {
	return r.refsWithPrefix(BranchPrefix)
}

// TagRefs returns the tag refs sorted by name, with the refs/tags/
// prefix removed from each name.
func (r *Repository) TagRefs() ([]Ref, error) {
	return r.refsWithPrefix(TagPrefix)
}

// Tags returns tag names grouped by the object they point at. Names
// within each group are sorted.
func (r *Repository) Tags() (map[ID][]string, error) {
	tags, err := r.TagRefs()
	if err != nil {
		return nil, err
	}
	byID := make(map[ID][]string, len(tags))
	for _, tag := range tags {
		byID[tag.ID] = append(byID[tag.ID], tag.Name)
	}
	return byID, nil
}

func (r *Repository) refsWithPrefix(prefix string) ([]Ref, error) {
	refs, err := r.ListRefs()
	if err != nil {
		return nil, err
	}
	var matched []Ref
	for _, ref := range refs {
		if name, ok := strings.CutPrefix(ref.Name, prefix); ok {
			matched = append(matched, Ref{Name: name, ID: ref.ID})
		}
	}
	return matched, nil
}

// Rev is one commit in a history listing.
type Rev struct {
	ID     ID
	Commit *Commit
}

// Time returns the commit time.
func (rev Rev) Time() time.Time {
	return time.Unix(rev.Commit.Time, 0)
}

// RevList returns tip and every ancestor reachable through parent
// links, newest first. Commits with equal times are ordered by ID.
func (r *Repository) RevList(tip ID) ([]Rev, error) {
	seen := map[ID]bool{tip: true}
	pending := []ID{tip}
	var revs []Rev
	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		commit, err := r.ReadCommit(id)
		if err != nil {
			return nil, fmt.Errorf("walking history from %s: %w", ShortID(tip), err)
		}
		revs = append(revs, Rev{ID: id, Commit: commit})
		for _, parent := range commit.Parents {
			if !seen[parent] {
				seen[parent] = true
				pending = append(pending, parent)
			}
		}
	}

	sort.Slice(revs, func(i, j int) bool {
		if revs[i].Commit.Time != revs[j].Commit.Time {
			return revs[i].Commit.Time > revs[j].Commit.Time
		}
		return bytes.Compare(revs[i].ID[:], revs[j].ID[:]) < 0
	})
	return revs, nil
}

// WriteBlob stores data as a blob.
func (r *Repository) WriteBlob(data []byte) (ID, error) {
	return r.backend.WriteObject(TypeBlob, data)
}

// WriteTree encodes and stores a tree. Entry order is preserved.
func (r *Repository) WriteTree(entries []TreeEntry) (ID, error) {
	data, err := EncodeTree(entries)
	if err != nil {
		return EmptyID, fmt.Errorf("encoding tree: %w", err)
	}
	return r.backend.WriteObject(TypeTree, data)
}

// WriteCommit encodes and stores a commit.
func (r *Repository) WriteCommit(commit *Commit) (ID, error) {
	data, err := EncodeCommit(commit)
	if err != nil {
		return EmptyID, err
	}
	return r.backend.WriteObject(TypeCommit, data)
}

// IsNotFound reports whether err wraps [ErrNotFound].
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// Options configures a tree built by [New] or [NewTree].
type Options struct {
	// Location is the time zone used to name snapshot directories.
	// Nil means time.Local.
	Location *time.Location

	// Logger receives debug output when history listings are
	// rebuilt. Nil discards.
	Logger *slog.Logger
}

func newSession(repo *objstore.Repository, options Options) *session {
	location := options.Location
	if location == nil {
		location = time.Local
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &session{repo: repo, logger: logger, location: location}
}

// New returns the root of the tree over repo: one directory per
// branch plus ".tag".
func New(repo *objstore.Repository, options Options) *Node {
	return &Node{
		name:    "/",
		mode:    objstore.ModeTree,
		id:      objstore.EmptyID,
		session: newSession(repo, options),
		variant: &refList{nodes: make(map[objstore.ID]*Node)},
	}
}

// NewTree returns a standalone directory over a single tree or
// commit, with no branch or tag context. The returned node is its own
// top, so absolute symlink targets resolve from it.
func NewTree(repo *objstore.Repository, id objstore.ID, options Options) (*Node, error) {
	objectType, _, err := repo.Get(id)
	if err != nil {
		return nil, err
	}
	if objectType != objstore.TypeTree && objectType != objstore.TypeCommit {
		return nil, fmt.Errorf("%s is a %s: %w", objstore.ShortID(id), objectType, ErrNotDir)
	}
	return &Node{
		name:    "/",
		mode:    objstore.ModeTree,
		id:      id,
		session: newSession(repo, options),
		variant: &dir{},
	}, nil
}

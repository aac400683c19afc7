// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/snapvfs/lib/codec"
)

// Commit is a snapshot: a root tree plus history links and
// authorship. Commits are CBOR-encoded with deterministic encoding so
// the same commit always produces the same ID.
type Commit struct {
	Tree      ID     `cbor:"tree"`
	Parents   []ID   `cbor:"parents,omitempty"`
	Author    string `cbor:"author"`
	Committer string `cbor:"committer"`

	// Time is the commit time in Unix seconds.
	Time int64 `cbor:"time"`

	// TZOffset is the committer's UTC offset in minutes east of UTC
	// at commit time. It only affects display.
	TZOffset int `cbor:"tz_offset"`

	Message string `cbor:"message"`
}

// When returns the commit time in the committer's recorded zone.
func (c *Commit) When() time.Time {
	zone := time.FixedZone("", c.TZOffset*60)
	return time.Unix(c.Time, 0).In(zone)
}

// EncodeCommit serializes a commit.
func EncodeCommit(commit *Commit) ([]byte, error) {
	if commit.Tree.IsZero() {
		return nil, fmt.Errorf("commit has no tree")
	}
	data, err := codec.Marshal(commit)
	if err != nil {
		return nil, fmt.Errorf("encoding commit: %w", err)
	}
	return data, nil
}

// DecodeCommit parses a commit object. Malformed input returns an
// error wrapping [ErrCorrupt].
func DecodeCommit(data []byte) (*Commit, error) {
	var commit Commit
	if err := codec.Unmarshal(data, &commit); err != nil {
		return nil, fmt.Errorf("%w: decoding commit: %v", ErrCorrupt, err)
	}
	if commit.Tree.IsZero() {
		return nil, fmt.Errorf("%w: commit has no tree", ErrCorrupt)
	}
	return &commit, nil
}

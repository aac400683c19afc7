// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"errors"
	"fmt"
)

// Type identifies the kind of a stored object. The numeric values are
// written into stored object headers and must not change.
type Type uint8

const (
	TypeBlob   Type = 1
	TypeTree   Type = 2
	TypeCommit Type = 3
)

// String returns the type name used in the hash header.
func (t Type) String() string {
	switch t {
	case TypeBlob:
		return "blob"
	case TypeTree:
		return "tree"
	case TypeCommit:
		return "commit"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the defined object types.
func (t Type) Valid() bool {
	return t >= TypeBlob && t <= TypeCommit
}

// ParseType parses an object type name.
func ParseType(name string) (Type, error) {
	switch name {
	case "blob":
		return TypeBlob, nil
	case "tree":
		return TypeTree, nil
	case "commit":
		return TypeCommit, nil
	default:
		return 0, fmt.Errorf("unknown object type %q", name)
	}
}

var (
	// ErrNotFound is returned when an object or ref does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt is returned when stored bytes cannot be decoded or
	// do not hash to the ID they were stored under.
	ErrCorrupt = errors.New("corrupt object")
)

// Ref is a named pointer to an object. Name is the full ref name
// ("refs/heads/main", "refs/tags/v1").
type Ref struct {
	Name string
	ID   ID
}

const (
	// BranchPrefix is the ref namespace for branches.
	BranchPrefix = "refs/heads/"

	// TagPrefix is the ref namespace for tags.
	TagPrefix = "refs/tags/"
)

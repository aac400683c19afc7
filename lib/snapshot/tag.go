// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// ErrTagExists is returned by [Tag] when the name is already taken.
var ErrTagExists = errors.New("tag already exists")

// ValidateTagName checks that name can appear as a single entry in
// the ".tag" directory.
func ValidateTagName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("tag name is required")
	case name == "." || name == "..":
		return fmt.Errorf("tag name %q is reserved", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("tag name %q must not contain '/' or NUL", name)
	}
	return objstore.ValidateRefName(objstore.TagPrefix + name)
}

// Tag creates refs/tags/<name> pointing at id, which must be a commit
// or tree already in the repository. An existing tag is never moved;
// delete it first with [DeleteTag].
func Tag(repo *objstore.Repository, name string, id objstore.ID) error {
	if err := ValidateTagName(name); err != nil {
		return err
	}
	objectType, _, err := repo.Get(id)
	if err != nil {
		return fmt.Errorf("tag %s: %w", name, err)
	}
	if objectType != objstore.TypeCommit && objectType != objstore.TypeTree {
		return fmt.Errorf("tag %s: object %s is a %s, want commit or tree",
			name, objstore.ShortID(id), objectType)
	}

	refName := objstore.TagPrefix + name
	existing, err := repo.ReadRef(refName)
	switch {
	case err == nil:
		return fmt.Errorf("tag %s points at %s: %w", name, objstore.ShortID(existing), ErrTagExists)
	case !errors.Is(err, objstore.ErrNotFound):
		return fmt.Errorf("reading tag %s: %w", name, err)
	}
	return repo.UpdateRef(refName, id)
}

// DeleteTag removes refs/tags/<name>. The tagged objects are not
// touched.
func DeleteTag(repo *objstore.Repository, name string) error {
	if err := ValidateTagName(name); err != nil {
		return err
	}
	if err := repo.DeleteRef(objstore.TagPrefix + name); err != nil {
		return fmt.Errorf("deleting tag %s: %w", name, err)
	}
	return nil
}

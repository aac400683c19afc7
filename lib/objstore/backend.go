// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"fmt"
	"strings"
)

// Backend stores objects and refs. Implementations must be safe for
// concurrent use. Objects are immutable: writing an object that
// already exists is a no-op that returns the same ID.
type Backend interface {
	// ReadObject returns the type and content of an object, or an
	// error wrapping [ErrNotFound].
	ReadObject(id ID) (Type, []byte, error)

	// WriteObject stores an object and returns its ID.
	WriteObject(objectType Type, data []byte) (ID, error)

	// HasObject reports whether an object is stored.
	HasObject(id ID) (bool, error)

	// Refs returns every ref, in no particular order.
	Refs() ([]Ref, error)

	// ReadRef returns the ID a ref points at, or an error wrapping
	// [ErrNotFound].
	ReadRef(name string) (ID, error)

	// UpdateRef points a ref at id, creating it if needed.
	UpdateRef(name string, id ID) error

	// DeleteRef removes a ref, or returns an error wrapping
	// [ErrNotFound] if it does not exist.
	DeleteRef(name string) error

	// Close releases backend resources.
	Close() error
}

// ValidateRefName checks that name is a full ref name under refs/
// with non-empty components and no "." or ".." components.
func ValidateRefName(name string) error {
	if !strings.HasPrefix(name, "refs/") {
		return fmt.Errorf("ref name %q must start with refs/", name)
	}
	for _, component := range strings.Split(name, "/") {
		switch component {
		case "", ".", "..":
			return fmt.Errorf("ref name %q has invalid component %q", name, component)
		}
		if strings.ContainsAny(component, "\x00\\") {
			return fmt.Errorf("ref name %q contains invalid characters", name)
		}
	}
	return nil
}

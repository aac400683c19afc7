// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Tree entry modes. Only the file-type bits and the executable bit
// are significant; full permission bits live in metadata streams.
const (
	ModeTree    uint32 = 0o40000
	ModeFile    uint32 = 0o100644
	ModeExec    uint32 = 0o100755
	ModeSymlink uint32 = 0o120000

	modeTypeMask uint32 = 0o170000
)

// IsTreeMode reports whether mode has the directory type bits.
func IsTreeMode(mode uint32) bool {
	return mode&modeTypeMask == ModeTree
}

// IsSymlinkMode reports whether mode has the symlink type bits.
func IsSymlinkMode(mode uint32) bool {
	return mode&modeTypeMask == ModeSymlink
}

// IsRegularMode reports whether mode has the regular-file type bits.
func IsRegularMode(mode uint32) bool {
	return mode&modeTypeMask == 0o100000
}

// TreeEntry is one entry of a tree object. Name is the stored
// (mangled) name.
type TreeEntry struct {
	Mode uint32
	Name string
	ID   ID
}

// ValidateEntryName checks that name is usable as one path component:
// not empty, not "." or "..", and free of '/' and NUL. Errors wrap
// [ErrCorrupt].
func ValidateEntryName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: tree entry has empty name", ErrCorrupt)
	case name == "." || name == "..":
		return fmt.Errorf("%w: tree entry named %q", ErrCorrupt, name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%w: tree entry name %q contains '/' or NUL", ErrCorrupt, name)
	}
	return nil
}

// EncodeTree serializes entries in the order given. Each entry is
// "<octal mode> <name>\x00" followed by the 32 raw ID bytes. Order is
// significant: metadata streams line up with it.
func EncodeTree(entries []TreeEntry) ([]byte, error) {
	var buffer bytes.Buffer
	buffer.Grow(len(entries) * 48)
	for _, entry := range entries {
		if err := ValidateEntryName(entry.Name); err != nil {
			return nil, err
		}
		buffer.WriteString(strconv.FormatUint(uint64(entry.Mode), 8))
		buffer.WriteByte(' ')
		buffer.WriteString(entry.Name)
		buffer.WriteByte(0)
		buffer.Write(entry.ID[:])
	}
	return buffer.Bytes(), nil
}

// DecodeTree parses a tree object, preserving entry order. Malformed
// input returns an error wrapping [ErrCorrupt].
func DecodeTree(data []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	for offset := 0; offset < len(data); {
		space := bytes.IndexByte(data[offset:], ' ')
		if space <= 0 {
			return nil, fmt.Errorf("%w: tree entry at byte %d has no mode", ErrCorrupt, offset)
		}
		mode, err := strconv.ParseUint(string(data[offset:offset+space]), 8, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: tree entry at byte %d: bad mode: %v", ErrCorrupt, offset, err)
		}
		nameStart := offset + space + 1
		nul := bytes.IndexByte(data[nameStart:], 0)
		if nul <= 0 {
			return nil, fmt.Errorf("%w: tree entry at byte %d has no name", ErrCorrupt, offset)
		}
		idStart := nameStart + nul + 1
		if idStart+len(ID{}) > len(data) {
			return nil, fmt.Errorf("%w: tree entry at byte %d is truncated", ErrCorrupt, offset)
		}
		entry := TreeEntry{
			Mode: uint32(mode),
			Name: string(data[nameStart : nameStart+nul]),
		}
		if err := ValidateEntryName(entry.Name); err != nil {
			return nil, fmt.Errorf("tree entry at byte %d: %w", offset, err)
		}
		copy(entry.ID[:], data[idStart:])
		entries = append(entries, entry)
		offset = idStart + len(ID{})
	}
	return entries, nil
}

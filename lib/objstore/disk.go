// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Directory layout under the store root.
const (
	objectsDir = "objects"
	refsDir    = "refs"
	tmpDir     = "tmp"
)

// DiskOptions configures a [DiskBackend].
type DiskOptions struct {
	// Compression is the policy applied to newly written objects.
	// The zero value stores objects uncompressed; most callers want
	// [CompressionAuto].
	Compression Compression

	// Logger receives debug output for object writes. Nil discards.
	Logger *slog.Logger
}

// DiskBackend stores one file per object under a sharded directory
// tree (objects/ab/cd/abcd...) and one file per ref under refs/. Every
// write goes to tmp/ first and is renamed into place, so readers never
// observe a partial object or ref.
type DiskBackend struct {
	root        string
	compression Compression
	logger      *slog.Logger
}

var _ Backend = (*DiskBackend)(nil)

// NewDiskBackend opens (creating if needed) a store rooted at root.
func NewDiskBackend(root string, options DiskOptions) (*DiskBackend, error) {
	for _, dir := range []string{
		root,
		filepath.Join(root, objectsDir),
		filepath.Join(root, refsDir),
		filepath.Join(root, tmpDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	logger := options.Logger
	if logger == nil {
		logger = discardLogger()
	}
	return &DiskBackend{
		root:        root,
		compression: options.Compression,
		logger:      logger,
	}, nil
}

// Root returns the store directory.
func (d *DiskBackend) Root() string {
	return d.root
}

// objectPath returns the sharded path for an object:
// objects/a3/f9/a3f9b2c1...
func (d *DiskBackend) objectPath(id ID) string {
	hex := FormatID(id)
	return filepath.Join(d.root, objectsDir, hex[:2], hex[2:4], hex)
}

func (d *DiskBackend) refPath(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

func (d *DiskBackend) ReadObject(id ID) (Type, []byte, error) {
	record, err := os.ReadFile(d.objectPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil, fmt.Errorf("object %s: %w", ShortID(id), ErrNotFound)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("reading object %s: %w", ShortID(id), err)
	}
	return decodeStored(id, record)
}

func (d *DiskBackend) WriteObject(objectType Type, data []byte) (ID, error) {
	if !objectType.Valid() {
		return EmptyID, fmt.Errorf("writing object: invalid type %s", objectType)
	}
	id := HashObject(objectType, data)
	path := d.objectPath(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	record, err := encodeStored(objectType, data, d.compression)
	if err != nil {
		return EmptyID, err
	}
	if err := d.writeAtomic(path, record); err != nil {
		return EmptyID, fmt.Errorf("writing object %s: %w", ShortID(id), err)
	}
	d.logger.Debug("object written",
		"id", ShortID(id),
		"type", objectType.String(),
		"size", len(data),
		"stored_size", len(record),
		"compression", Compression(record[1]).String(),
	)
	return id, nil
}

func (d *DiskBackend) HasObject(id ID) (bool, error) {
	_, err := os.Stat(d.objectPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking object %s: %w", ShortID(id), err)
	}
	return true, nil
}

func (d *DiskBackend) Refs() ([]Ref, error) {
	var refs []Ref
	base := filepath.Join(d.root, refsDir)
	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(relative)
		id, err := d.ReadRef(name)
		if err != nil {
			return err
		}
		refs = append(refs, Ref{Name: name, ID: id})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing refs: %w", err)
	}
	return refs, nil
}

func (d *DiskBackend) ReadRef(name string) (ID, error) {
	if err := ValidateRefName(name); err != nil {
		return EmptyID, err
	}
	content, err := os.ReadFile(d.refPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return EmptyID, fmt.Errorf("ref %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return EmptyID, fmt.Errorf("reading ref %s: %w", name, err)
	}
	id, err := ParseID(strings.TrimSpace(string(content)))
	if err != nil {
		return EmptyID, fmt.Errorf("%w: ref %s: %v", ErrCorrupt, name, err)
	}
	return id, nil
}

func (d *DiskBackend) UpdateRef(name string, id ID) error {
	if err := ValidateRefName(name); err != nil {
		return err
	}
	if err := d.writeAtomic(d.refPath(name), []byte(FormatID(id)+"\n")); err != nil {
		return fmt.Errorf("updating ref %s: %w", name, err)
	}
	d.logger.Debug("ref updated", "ref", name, "id", ShortID(id))
	return nil
}

func (d *DiskBackend) DeleteRef(name string) error {
	if err := ValidateRefName(name); err != nil {
		return err
	}
	err := os.Remove(d.refPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ref %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting ref %s: %w", name, err)
	}
	d.logger.Debug("ref deleted", "ref", name)
	return nil
}

// Close is a no-op; the disk backend holds no open handles.
func (d *DiskBackend) Close() error {
	return nil
}

// writeAtomic writes data to a temp file under tmp/ and renames it to
// path.
func (d *DiskBackend) writeAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Join(d.root, tmpDir), "write-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}

	success = true
	return nil
}

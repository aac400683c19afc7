// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Key prefixes in the badger keyspace.
const (
	badgerObjectPrefix = "o/"
	badgerRefPrefix    = "r/"
)

// BadgerOptions configures a [BadgerBackend].
type BadgerOptions struct {
	// InMemory keeps the database entirely in memory. Path is
	// ignored.
	InMemory bool

	// Compression is the policy applied to newly written objects.
	Compression Compression

	// Logger receives badger's internal log output (warnings and
	// errors) plus object write debug output. Nil discards.
	Logger *slog.Logger
}

// BadgerBackend stores objects under "o/<raw id>" and refs under
// "r/<ref name>" in a badger database. Object values use the same
// header and compression as [DiskBackend]; badger's own block
// compression is disabled to avoid compressing twice.
type BadgerBackend struct {
	db          *badger.DB
	compression Compression
	logger      *slog.Logger
}

var _ Backend = (*BadgerBackend)(nil)

// NewBadgerBackend opens (creating if needed) a badger database at
// path.
func NewBadgerBackend(path string, backendOptions BadgerOptions) (*BadgerBackend, error) {
	logger := backendOptions.Logger
	if logger == nil {
		logger = discardLogger()
	}

	opts := badger.DefaultOptions(path)
	if backendOptions.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.
		WithLogger(badgerLogger{logger: logger}).
		WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store at %q: %w", path, err)
	}
	return &BadgerBackend{
		db:          db,
		compression: backendOptions.Compression,
		logger:      logger,
	}, nil
}

func badgerObjectKey(id ID) []byte {
	key := make([]byte, 0, len(badgerObjectPrefix)+len(id))
	key = append(key, badgerObjectPrefix...)
	return append(key, id[:]...)
}

func badgerRefKey(name string) []byte {
	return []byte(badgerRefPrefix + name)
}

func (b *BadgerBackend) ReadObject(id ID) (Type, []byte, error) {
	var record []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerObjectKey(id))
		if err != nil {
			return err
		}
		record, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil, fmt.Errorf("object %s: %w", ShortID(id), ErrNotFound)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("reading object %s: %w", ShortID(id), err)
	}
	return decodeStored(id, record)
}

func (b *BadgerBackend) WriteObject(objectType Type, data []byte) (ID, error) {
	if !objectType.Valid() {
		return EmptyID, fmt.Errorf("writing object: invalid type %s", objectType)
	}
	id := HashObject(objectType, data)
	exists, err := b.HasObject(id)
	if err != nil {
		return EmptyID, err
	}
	if exists {
		return id, nil
	}

	record, err := encodeStored(objectType, data, b.compression)
	if err != nil {
		return EmptyID, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerObjectKey(id), record)
	})
	if err != nil {
		return EmptyID, fmt.Errorf("writing object %s: %w", ShortID(id), err)
	}
	b.logger.Debug("object written",
		"id", ShortID(id),
		"type", objectType.String(),
		"size", len(data),
		"stored_size", len(record),
	)
	return id, nil
}

func (b *BadgerBackend) HasObject(id ID) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerObjectKey(id))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking object %s: %w", ShortID(id), err)
	}
	return true, nil
}

func (b *BadgerBackend) Refs() ([]Ref, error) {
	var refs []Ref
	prefix := []byte(badgerRefPrefix)
	err := b.db.View(func(txn *badger.Txn) error {
		iteratorOptions := badger.DefaultIteratorOptions
		iteratorOptions.Prefix = prefix
		it := txn.NewIterator(iteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if len(value) != len(ID{}) {
				return fmt.Errorf("%w: ref %s has %d-byte value", ErrCorrupt, name, len(value))
			}
			var id ID
			copy(id[:], value)
			refs = append(refs, Ref{Name: name, ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing refs: %w", err)
	}
	return refs, nil
}

func (b *BadgerBackend) ReadRef(name string) (ID, error) {
	var id ID
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerRefKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			if len(value) != len(id) {
				return fmt.Errorf("%w: ref %s has %d-byte value", ErrCorrupt, name, len(value))
			}
			copy(id[:], value)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return EmptyID, fmt.Errorf("ref %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return EmptyID, fmt.Errorf("reading ref %s: %w", name, err)
	}
	return id, nil
}

func (b *BadgerBackend) UpdateRef(name string, id ID) error {
	if err := ValidateRefName(name); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerRefKey(name), id[:])
	})
	if err != nil {
		return fmt.Errorf("updating ref %s: %w", name, err)
	}
	b.logger.Debug("ref updated", "ref", name, "id", ShortID(id))
	return nil
}

func (b *BadgerBackend) DeleteRef(name string) error {
	if err := ValidateRefName(name); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerRefKey(name)); err != nil {
			return err
		}
		return txn.Delete(badgerRefKey(name))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("ref %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting ref %s: %w", name, err)
	}
	b.logger.Debug("ref deleted", "ref", name)
	return nil
}

// Close flushes and closes the database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's internal logging to slog. Badger is
// chatty at info level (compaction, value log GC), so info and debug
// output are both logged at debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error("badger: " + strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn("badger: " + strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug("badger: " + strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug("badger: " + strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

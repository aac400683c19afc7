// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"fmt"
	"log/slog"
)

// Backend kind names as used in configuration.
const (
	BackendDisk   = "disk"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// OpenOptions selects and configures a backend for [Open].
type OpenOptions struct {
	// Backend is one of [BackendDisk], [BackendBadger], or
	// [BackendMemory].
	Backend string

	// Path is the store directory. Ignored for the memory backend.
	Path string

	// Compression is the write policy for persistent backends.
	Compression Compression

	Logger *slog.Logger
}

// Open constructs the configured backend and wraps it in a
// [Repository].
func Open(options OpenOptions) (*Repository, error) {
	var backend Backend
	var err error
	switch options.Backend {
	case BackendDisk, "":
		if options.Path == "" {
			return nil, fmt.Errorf("disk backend requires a store path")
		}
		backend, err = NewDiskBackend(options.Path, DiskOptions{
			Compression: options.Compression,
			Logger:      options.Logger,
		})
	case BackendBadger:
		if options.Path == "" {
			return nil, fmt.Errorf("badger backend requires a store path")
		}
		backend, err = NewBadgerBackend(options.Path, BadgerOptions{
			Compression: options.Compression,
			Logger:      options.Logger,
		})
	case BackendMemory:
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown store backend %q", options.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewRepository(backend, options.Logger), nil
}

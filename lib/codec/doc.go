// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by every
// snapvfs package that persists structured data.
//
// Two on-disk structures use it:
//
//   - commit objects in the object store (lib/objstore), where the
//     encoded bytes are hashed, so the encoding must be deterministic;
//   - metadata streams (lib/metadata), a CBOR sequence with one
//     attribute record per directory entry, read incrementally.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes, and therefore an
// identical object ID.
//
// For buffer-oriented operations (objects):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (metadata streams):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Struct types use `cbor` tags. Types in this repository are never
// serialized as JSON, so there is no json-tag fallback to worry about.
package codec

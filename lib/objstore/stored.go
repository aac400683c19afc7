// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"encoding/binary"
	"fmt"
)

// Persistent backends store each object as a short header followed by
// the (possibly compressed) content:
//
//	[1 byte type][1 byte compression][uvarint uncompressed size][payload]
//
// The ID is not part of the record; it is the record's key.

// maxObjectSize bounds the size field so a corrupt header cannot make
// the decoder allocate unbounded memory.
const maxObjectSize = 1 << 30

// encodeStored builds the stored record for an object.
func encodeStored(objectType Type, data []byte, policy Compression) ([]byte, error) {
	payload, tag, err := compress(data, policy)
	if err != nil {
		return nil, fmt.Errorf("compressing %s object: %w", objectType, err)
	}
	record := make([]byte, 2, 2+binary.MaxVarintLen64+len(payload))
	record[0] = byte(objectType)
	record[1] = byte(tag)
	record = binary.AppendUvarint(record, uint64(len(data)))
	record = append(record, payload...)
	return record, nil
}

// decodeStored parses a stored record and checks the content hashes
// to id. Any mismatch wraps [ErrCorrupt].
func decodeStored(id ID, record []byte) (Type, []byte, error) {
	if len(record) < 3 {
		return 0, nil, fmt.Errorf("%w: object %s: record too short", ErrCorrupt, ShortID(id))
	}
	objectType := Type(record[0])
	if !objectType.Valid() {
		return 0, nil, fmt.Errorf("%w: object %s: unknown type %d", ErrCorrupt, ShortID(id), record[0])
	}
	tag := Compression(record[1])
	size, width := binary.Uvarint(record[2:])
	if width <= 0 || size > maxObjectSize {
		return 0, nil, fmt.Errorf("%w: object %s: bad size field", ErrCorrupt, ShortID(id))
	}
	data, err := decompress(record[2+width:], tag, int(size))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: object %s: %v", ErrCorrupt, ShortID(id), err)
	}
	if HashObject(objectType, data) != id {
		return 0, nil, fmt.Errorf("%w: object %s: content hash mismatch", ErrCorrupt, ShortID(id))
	}
	return objectType, data, nil
}

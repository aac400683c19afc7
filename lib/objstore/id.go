// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"
)

// ID is the 32-byte BLAKE3 keyed hash identifying an object.
type ID [32]byte

// EmptyID is the all-zero ID. It never names a stored object and is
// used for synthetic nodes with no backing content.
var EmptyID ID

// IsZero reports whether id is [EmptyID].
func (id ID) IsZero() bool {
	return id == EmptyID
}

// String returns the 64-character hex form of id.
func (id ID) String() string {
	return FormatID(id)
}

// objectDomainKey is the BLAKE3 key for object hashing. Changing it
// changes every object ID in every store. The bytes are the ASCII
// domain name, zero-padded to 32 bytes.
var objectDomainKey = [32]byte{
	's', 'n', 'a', 'p', 'v', 'f', 's', '.', 'o', 'b', 'j', 'e', 'c', 't',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashObject computes the ID of an object with the given type and
// content. The hash input is "<type> <length>\x00" followed by the
// content, so a blob and a tree with identical bytes get different
// IDs.
func HashObject(objectType Type, data []byte) ID {
	hasher, err := blake3.NewKeyed(objectDomainKey[:])
	if err != nil {
		panic("objstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	header := make([]byte, 0, 24)
	header = append(header, objectType.String()...)
	header = append(header, ' ')
	header = strconv.AppendInt(header, int64(len(data)), 10)
	header = append(header, 0)
	hasher.Write(header)
	hasher.Write(data)
	var id ID
	copy(id[:], hasher.Sum(nil))
	return id
}

// FormatID returns the hex-encoded string form of id. This is the
// format used in ref files, logs, and CLI output.
func FormatID(id ID) string {
	return hex.EncodeToString(id[:])
}

// ParseID parses a 64-character hex string into an ID.
func ParseID(hexString string) (ID, error) {
	var id ID
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return id, fmt.Errorf("parsing object id: %w", err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("object id is %d bytes, want %d", len(decoded), len(id))
	}
	copy(id[:], decoded)
	return id, nil
}

// ShortID returns the first 12 hex characters of id, for display.
func ShortID(id ID) string {
	return hex.EncodeToString(id[:6])
}

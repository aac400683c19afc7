// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the compression applied to a stored object.
// The numeric values of None, LZ4, and Zstd are written into object
// headers and must not change.
type Compression uint8

const (
	// CompressionNone stores the object bytes as-is. Used for
	// content that does not shrink (already-compressed media).
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression: fast, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level: better ratio for
	// text-like content.
	CompressionZstd Compression = 2

	// CompressionAuto is a write policy, never a stored tag: each
	// object is probed and gets whichever of the above fits best.
	CompressionAuto Compression = 0xFF
)

// String returns the configuration name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as used in the
// configuration file.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "auto", "":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// zstdEncoder and zstdDecoder are shared; both are safe for
// concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("objstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("objstore: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible is returned when compressed output would not be
// smaller than the input. Callers fall back to CompressionNone.
var errIncompressible = errors.New("data is incompressible")

// selectCompression probes data with zstd. A ratio of at least 1.5
// selects zstd, at least 1.1 selects LZ4, anything less stores the
// bytes uncompressed. Tiny objects (tree entries, short symlink
// targets) are never worth the header.
func selectCompression(data []byte) Compression {
	if len(data) < 64 {
		return CompressionNone
	}
	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))
	switch {
	case ratio >= 1.5:
		return CompressionZstd
	case ratio >= 1.1:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// compress applies policy to data and returns the stored bytes and
// the tag actually used.
func compress(data []byte, policy Compression) ([]byte, Compression, error) {
	tag := policy
	if tag == CompressionAuto {
		tag = selectCompression(data)
	}

	var compressed []byte
	var err error
	switch tag {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		compressed, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("unsupported compression %s", tag)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, tag, nil
}

// decompress reverses compress. uncompressedSize must match the
// original length exactly.
func decompress(stored []byte, tag Compression, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(stored) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed object: size %d does not match expected %d",
				len(stored), uncompressedSize)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, uncompressedSize)
	case CompressionZstd:
		return decompressZstd(stored, uncompressedSize)
	default:
		return nil, fmt.Errorf("unsupported compression tag %d", uint8(tag))
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

// Content-defined chunking parameters. Changing them changes where
// files split and therefore every chunk tree written afterwards;
// existing chunk trees stay readable because readers only follow the
// recorded offsets.
const (
	// TargetChunkSize is the expected average chunk size.
	TargetChunkSize = 64 * 1024

	// MinChunkSize is the smallest chunk the splitter produces
	// (other than the final one).
	MinChunkSize = 8 * 1024

	// MaxChunkSize forces a boundary regardless of content.
	MaxChunkSize = 128 * 1024
)

// gearBoundaryMask selects a boundary with probability 1/2^16 per
// byte, giving ~64 KiB average chunks.
const gearBoundaryMask uint64 = 0xFFFF000000000000

// gearSkipBytes is how far into a chunk hashing can start. No
// boundary may fall before MinChunkSize and the hash window is 64
// bytes, so the bytes before MinChunkSize-65 cannot influence any
// reachable boundary.
const gearSkipBytes = MinChunkSize - 64 - 1

// Splitter walks a byte slice and yields content-defined chunks.
// Chunks are subslices of the input; the input must not be modified
// while splitting.
type Splitter struct {
	data     []byte
	position int
}

// NewSplitter returns a splitter over data.
func NewSplitter(data []byte) *Splitter {
	return &Splitter{data: data}
}

// Next returns the next chunk, or nil when the input is exhausted.
func (s *Splitter) Next() []byte {
	if s.position >= len(s.data) {
		return nil
	}
	remaining := s.data[s.position:]
	end := gearFindBoundary(remaining)
	s.position += end
	return remaining[:end]
}

// SplitChunks splits data into content-defined chunks. Empty input
// yields one empty chunk so that every file has at least one leaf.
func SplitChunks(data []byte) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	splitter := NewSplitter(data)
	var chunks [][]byte
	for chunk := splitter.Next(); chunk != nil; chunk = splitter.Next() {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// gearFindBoundary returns the length of the first chunk in data.
func gearFindBoundary(data []byte) int {
	length := len(data)
	if length <= MaxChunkSize {
		return length
	}

	var hash uint64
	position := gearSkipBytes
	for position < MaxChunkSize && position < length {
		hash = (hash << 1) + gearTable[data[position]]
		position++
		if position >= MinChunkSize && (hash&gearBoundaryMask) == 0 {
			return position
		}
	}
	return MaxChunkSize
}

// gearTable holds the per-byte constants of the GearHash rolling
// hash: hash = (hash << 1) + gearTable[byte].
var gearTable = [256]uint64{
	0x5c95c078, 0x22408989, 0x2d48a214, 0x12842087,
	0x530f8afb, 0x474536b9, 0x2963b4f1, 0x44cb738b,
	0x4ea7403d, 0x4d606b6e, 0x074ec5d3, 0x3af39d18,
	0x726c4b7d, 0x60b26d8c, 0x3bd7a0a2, 0x7e51163a,
	0x07e7fbe3, 0x2da12162, 0x4dc3c487, 0x74b82462,
	0x5c74486e, 0x4d30a5dd, 0x5218c048, 0x25fd6e8c,
	0x1001de8e, 0x06f68502, 0x04681ce7, 0x18840c6b,
	0x28716fab, 0x27a7a855, 0x1d5bb906, 0x00eea11c,
	0x42c21f83, 0x0b2f6c73, 0x151c0a4f, 0x0c88e74b,
	0x44297db3, 0x0c9f2889, 0x22c19b89, 0x397e0284,
	0x3b47e2cf, 0x5e6a06a4, 0x02a60ec5, 0x10a30dc4,
	0x259f4bf4, 0x7448e0a6, 0x0d9b89b1, 0x0a0857b0,
	0x1e2a9eab, 0x09a3fdab, 0x3f6a6ff5, 0x5ad8cb5e,
	0x2a96c135, 0x46aff290, 0x544ff32c, 0x51e8cad1,
	0x4e0c57c8, 0x4d1ab85c, 0x5c9f62c5, 0x3bf82ccc,
	0x08a6ae66, 0x570fb7ac, 0x2cc96de0, 0x3ba9d60a,
	0x2c5fad64, 0x10ca4656, 0x06d0e217, 0x32b94f28,
	0x1d10fe68, 0x66f3df1a, 0x555fc7c0, 0x1afeb39d,
	0x08e1e40f, 0x31c86d13, 0x12e1a55b, 0x78aa48f0,
	0x4a71e0d9, 0x6b6cfbb0, 0x4a8a4b5d, 0x26e11f1b,
	0x4b65fb4f, 0x0eac5bdb, 0x7108e3c2, 0x0f03e6a3,
	0x41e3dce0, 0x1e80b9f2, 0x4a4cc2bc, 0x51fb08bc,
	0x05e33025, 0x72421bca, 0x00b93a24, 0x6dfd0e3c,
	0x23f18d04, 0x3e16cd59, 0x4d5b2a04, 0x49b2a50b,
	0x5fa94b5e, 0x35d16efc, 0x1e83a79a, 0x58c0d77d,
	0x4e45e50e, 0x1f64ee5d, 0x16ef2bb3, 0x5e27dc6e,
	0x7f0b8a3f, 0x3f59d96f, 0x232a5c1f, 0x7f83a841,
	0x59a11b26, 0x7b0c98f9, 0x5b93ed6e, 0x2f7c3534,
	0x0b66a92b, 0x10741c6e, 0x4a05bbae, 0x544e9756,
	0x33161fba, 0x248ca40b, 0x20a2f5ff, 0x6e529a22,
	0x316aeed5, 0x2a0af2cc, 0x1a4bbd7a, 0x1b9c4c28,
	0x4ea13a8c, 0x37eeff2c, 0x00a5d16d, 0x3ba2e855,
	0x2fdc2bae, 0x552985cf, 0x100a3d1b, 0x5897d96c,
	0x79a18dd4, 0x3fba8cfe, 0x0e8c0d27, 0x7e75cf15,
	0x4f10a4a8, 0x5e38a7b6, 0x7ed42d93, 0x28c2d49d,
	0x36aeafc3, 0x7361fffe, 0x27685296, 0x7cf7bdcf,
	0x00eb2c20, 0x0e97d95a, 0x7b14c77b, 0x46e97cb4,
	0x349a2cce, 0x2b00d5f0, 0x33a3ed5f, 0x6028f41d,
	0x1ed51d48, 0x6e75ec40, 0x6bfe88b0, 0x5ab96b34,
	0x45eb5e21, 0x5ba3faa6, 0x7e397ad3, 0x5cb7f39e,
	0x6d89f1e3, 0x3d1e1a72, 0x37000acc, 0x3f70d73e,
	0x7b120ad6, 0x75c84c75, 0x0b96d26c, 0x3a2e14b8,
	0x0e2a7a25, 0x21fcf4db, 0x5ed8c765, 0x01c08d38,
	0x09b24969, 0x5d5f684b, 0x36c0e8f2, 0x41cb6e2a,
	0x57dff2e1, 0x4c51b47d, 0x35bfbe24, 0x7b7ca00e,
	0x16e7e68f, 0x0cc6cff1, 0x6d5f0b69, 0x5f07e8c2,
	0x2bc8e7f2, 0x4dff3652, 0x31eb7bb4, 0x3e9e2df0,
	0x7a6b96d0, 0x600cd1da, 0x3ae99a7d, 0x3c2baabd,
	0x5df7c7c3, 0x73ee1e12, 0x02eae5d1, 0x6f5b5dd7,
	0x117caeb7, 0x3d39b7d5, 0x07b83b5b, 0x71da406f,
	0x4c93d7e6, 0x0e37ff7a, 0x7e91c441, 0x5c7e90e4,
	0x51b9c0c7, 0x32cf793e, 0x47ceff44, 0x2ef06e0f,
	0x6d02afc1, 0x2b0c1bc5, 0x5de2d15c, 0x16f93f40,
	0x0ef05e5e, 0x32b2f28f, 0x5a4a5fca, 0x7b37a3db,
	0x29786a10, 0x66f31c5a, 0x6d4c66f8, 0x14f43c6c,
	0x1a81fc14, 0x3b8f03ab, 0x163f8ab7, 0x1e92ab2e,
	0x3e3e1c34, 0x35ac0284, 0x61d4b73d, 0x76b7c71d,
	0x5aee7044, 0x6db41689, 0x5d3e1e24, 0x6b3c82b7,
	0x15ea6a23, 0x411e4e66, 0x2fe46038, 0x2aff5ca1,
	0x344e7bf6, 0x0c3743f4, 0x1bb8c8f5, 0x54b4c77f,
	0x6fc6cfaa, 0x7d012bdd, 0x3e8d9c39, 0x57204ab9,
	0x2f6f4ad5, 0x4ad26c8a, 0x6b8ea98e, 0x73a28ba6,
	0x7a70d90e, 0x51cf88e4, 0x6aff9307, 0x56d74c87,
	0x3c47d6c6, 0x4a8e8930, 0x4bf9a794, 0x5c3da92e,
}

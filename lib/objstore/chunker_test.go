// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"bytes"
	"math/rand/v2"
	"testing"
)

// deterministicData returns size pseudo-random bytes from a fixed
// seed so chunk boundaries are stable across runs.
func deterministicData(size int, seed uint64) []byte {
	source := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(source.Uint32())
	}
	return data
}

func TestSplitChunksReassembles(t *testing.T) {
	data := deterministicData(1<<20, 1)
	chunks := SplitChunks(data)
	if len(chunks) < 2 {
		t.Fatalf("1 MiB split into %d chunks, want several", len(chunks))
	}
	var joined []byte
	for i, chunk := range chunks {
		if len(chunk) > MaxChunkSize {
			t.Errorf("chunk %d is %d bytes, above MaxChunkSize", i, len(chunk))
		}
		if i < len(chunks)-1 && len(chunk) < MinChunkSize {
			t.Errorf("chunk %d is %d bytes, below MinChunkSize", i, len(chunk))
		}
		joined = append(joined, chunk...)
	}
	if !bytes.Equal(joined, data) {
		t.Error("chunks do not reassemble to the input")
	}
}

func TestSplitChunksDeterministic(t *testing.T) {
	data := deterministicData(600*1024, 2)
	first := SplitChunks(data)
	second := SplitChunks(data)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i]) != len(second[i]) {
			t.Errorf("chunk %d length differs", i)
		}
	}
}

func TestSplitChunksSmallAndEmpty(t *testing.T) {
	if chunks := SplitChunks(nil); len(chunks) != 1 || len(chunks[0]) != 0 {
		t.Errorf("SplitChunks(nil) = %d chunks, want one empty chunk", len(chunks))
	}
	small := []byte("fits in one chunk")
	if chunks := SplitChunks(small); len(chunks) != 1 || !bytes.Equal(chunks[0], small) {
		t.Errorf("SplitChunks(small) = %d chunks, want 1", len(chunks))
	}
}

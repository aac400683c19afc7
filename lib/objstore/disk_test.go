// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskBackendSurvivesReopen(t *testing.T) {
	root := t.TempDir()
	backend, err := NewDiskBackend(root, DiskOptions{Compression: CompressionZstd})
	if err != nil {
		t.Fatal(err)
	}
	data := []byte(strings.Repeat("persist me ", 64))
	id, err := backend.WriteObject(TypeBlob, data)
	if err != nil {
		t.Fatal(err)
	}
	if err := backend.UpdateRef("refs/heads/main", id); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewDiskBackend(root, DiskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, got, err := reopened.ReadObject(id)
	if err != nil {
		t.Fatalf("ReadObject after reopen: %v", err)
	}
	if string(got) != string(data) {
		t.Error("content changed across reopen")
	}
	ref, err := reopened.ReadRef("refs/heads/main")
	if err != nil || ref != id {
		t.Errorf("ReadRef after reopen = %s, %v", ShortID(ref), err)
	}
}

func TestDiskBackendLayout(t *testing.T) {
	root := t.TempDir()
	backend, err := NewDiskBackend(root, DiskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	id, err := backend.WriteObject(TypeBlob, []byte("layout"))
	if err != nil {
		t.Fatal(err)
	}
	hex := FormatID(id)
	if _, err := os.Stat(filepath.Join(root, "objects", hex[:2], hex[2:4], hex)); err != nil {
		t.Errorf("object not at sharded path: %v", err)
	}

	if err := backend.UpdateRef("refs/heads/feature/x", id); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(filepath.Join(root, "refs", "heads", "feature", "x"))
	if err != nil {
		t.Fatalf("ref file: %v", err)
	}
	if strings.TrimSpace(string(content)) != hex {
		t.Errorf("ref file content = %q, want %q", content, hex)
	}

	entries, err := os.ReadDir(filepath.Join(root, "tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("tmp/ has %d leftover files", len(entries))
	}
}

func TestDiskBackendDetectsCorruption(t *testing.T) {
	root := t.TempDir()
	backend, err := NewDiskBackend(root, DiskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	id, err := backend.WriteObject(TypeBlob, []byte("original content"))
	if err != nil {
		t.Fatal(err)
	}
	record, err := encodeStored(TypeBlob, []byte("tampered content"), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(backend.objectPath(id), record, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := backend.ReadObject(id); !errors.Is(err, ErrCorrupt) {
		t.Errorf("ReadObject(tampered) error = %v, want ErrCorrupt", err)
	}
}

func TestDiskBackendCorruptRef(t *testing.T) {
	root := t.TempDir()
	backend, err := NewDiskBackend(root, DiskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "refs", "heads", "broken")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not-hex\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := backend.ReadRef("refs/heads/broken"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("ReadRef(broken) error = %v, want ErrCorrupt", err)
	}
}

func TestOpenBackends(t *testing.T) {
	for _, kind := range []string{BackendDisk, BackendBadger, BackendMemory} {
		t.Run(kind, func(t *testing.T) {
			repo, err := Open(OpenOptions{Backend: kind, Path: t.TempDir(), Compression: CompressionAuto})
			if err != nil {
				t.Fatalf("Open(%s): %v", kind, err)
			}
			defer repo.Close()
			if _, err := repo.WriteBlob([]byte("hello")); err != nil {
				t.Errorf("WriteBlob: %v", err)
			}
		})
	}
	if _, err := Open(OpenOptions{Backend: "s3"}); err == nil {
		t.Error("Open accepted unknown backend")
	}
	if _, err := Open(OpenOptions{Backend: BackendDisk}); err == nil {
		t.Error("Open accepted disk backend without path")
	}
}

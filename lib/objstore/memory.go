// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"fmt"
	"sync"
)

type memoryObject struct {
	objectType Type
	data       []byte
}

// MemoryBackend keeps objects and refs in memory. Used by tests and
// for throwaway stores.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[ID]memoryObject
	refs    map[string]ID
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[ID]memoryObject),
		refs:    make(map[string]ID),
	}
}

func (m *MemoryBackend) ReadObject(id ID) (Type, []byte, error) {
	m.mu.RLock()
	object, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		return 0, nil, fmt.Errorf("object %s: %w", ShortID(id), ErrNotFound)
	}
	return object.objectType, object.data, nil
}

func (m *MemoryBackend) WriteObject(objectType Type, data []byte) (ID, error) {
	if !objectType.Valid() {
		return EmptyID, fmt.Errorf("writing object: invalid type %s", objectType)
	}
	id := HashObject(objectType, data)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[id]; !exists {
		stored := make([]byte, len(data))
		copy(stored, data)
		m.objects[id] = memoryObject{objectType: objectType, data: stored}
	}
	return id, nil
}

func (m *MemoryBackend) HasObject(id ID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok, nil
}

func (m *MemoryBackend) Refs() ([]Ref, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	refs := make([]Ref, 0, len(m.refs))
	for name, id := range m.refs {
		refs = append(refs, Ref{Name: name, ID: id})
	}
	return refs, nil
}

func (m *MemoryBackend) ReadRef(name string) (ID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.refs[name]
	if !ok {
		return EmptyID, fmt.Errorf("ref %s: %w", name, ErrNotFound)
	}
	return id, nil
}

func (m *MemoryBackend) UpdateRef(name string, id ID) error {
	if err := ValidateRefName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[name] = id
	return nil
}

func (m *MemoryBackend) DeleteRef(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.refs[name]; !ok {
		return fmt.Errorf("ref %s: %w", name, ErrNotFound)
	}
	delete(m.refs, name)
	return nil
}

// Close is a no-op.
func (m *MemoryBackend) Close() error {
	return nil
}


/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// KV is an opaque string key-value store. Get reports ok=false for keys that
// were never written.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryKV keeps entries in process memory only.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: map[string]string{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
	return nil
}

// FileKV persists entries as a single JSON object on disk. Every Set rewrites
// the file through a temporary file and rename.
type FileKV struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// OpenFileKV opens (or lazily creates) a file-backed store. A file that is
// not a JSON object of strings is ignored and will be overwritten on the
// next Set.
func OpenFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, errEmptyDataFile
	}

	kv := &FileKV{path: path, entries: map[string]string{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return kv, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &kv.entries); err != nil {
			logger.Warn("Ignoring unreadable data file", "path", path, "error", err)
			kv.entries = map[string]string{}
		}
	}

	return kv, nil
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]string, len(f.entries)+1)
	for k, v := range f.entries {
		next[k] = v
	}
	next[key] = value

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".echocalc-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary data file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	f.entries = next

	return nil
}

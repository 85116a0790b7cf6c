package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BlobStore persists raw audio bytes under caller-chosen names. Names
// are flat; the store never interprets them as paths.
type BlobStore interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	Exists(name string) bool
	Remove(name string) error
}

// DiskStore keeps audio files in a single directory on local disk.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed and returns the store.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *DiskStore) Write(name string, data []byte) error {
	return os.WriteFile(s.path(name), data, 0o600)
}

func (s *DiskStore) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, ErrAssetNotFound
	}
	return data, err
}

func (s *DiskStore) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *DiskStore) Remove(name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemoryBlobStore is an in-memory BlobStore for tests.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[name] = buf
	return nil
}

func (s *MemoryBlobStore) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return data, nil
}

func (s *MemoryBlobStore) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[name]
	return ok
}

func (s *MemoryBlobStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, name)
	return nil
}

var (
	_ BlobStore = (*DiskStore)(nil)
	_ BlobStore = (*MemoryBlobStore)(nil)
)

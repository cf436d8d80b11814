// Package localstore persists small client-side state blobs (cart, session) under fixed names.
package localstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Storage is a single durable slot.
type Storage interface {
	// Load returns the stored bytes or an error wrapping fs.ErrNotExist when empty.
	Load() ([]byte, error)
	// Save replaces the stored bytes.
	Save(data []byte) error
	// Remove empties the slot. Removing an empty slot is not an error.
	Remove() error
}

// FileStorage keeps the slot in one file readable only by the owner.
type FileStorage struct {
	Path string
}

// NewFileStorage returns storage for dir/name.
func NewFileStorage(dir, name string) *FileStorage {
	return &FileStorage{Path: filepath.Join(dir, name)}
}

func (f *FileStorage) Load() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// Save writes to a temp file and renames it so a crash never leaves half a snapshot.
func (f *FileStorage) Save(data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f *FileStorage) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MemStorage is an in-memory Storage. SaveErr, when set, fails every Save.
type MemStorage struct {
	mu      sync.Mutex
	data    []byte
	SaveErr error
}

// NewMemStorage returns storage preloaded with data (nil means empty).
func NewMemStorage(data []byte) *MemStorage {
	return &MemStorage{data: data}
}

func (m *MemStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemStorage) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemStorage) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

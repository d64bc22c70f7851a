package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the durable local store behind the history. Load returns
// nil data (and nil error) when the key has never been written.
type Storage interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
}

// FileStorage keeps one JSON file per storage key under a directory
type FileStorage struct {
	dir string
}

// NewFileStorage creates a file-backed storage rooted at dir
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// DefaultFileStorage stores history under ~/.cmdpal
func DefaultFileStorage() (*FileStorage, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewFileStorage(filepath.Join(homeDir, ".cmdpal"))
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Load reads the value for key, nil if absent
func (f *FileStorage) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path(key), err)
	}
	return data, nil
}

// Save writes the value for key
func (f *FileStorage) Save(key string, data []byte) error {
	if err := os.WriteFile(f.path(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path(key), err)
	}
	return nil
}

// Delete removes the value for key
func (f *FileStorage) Delete(key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemoryStorage is an in-memory Storage, used in tests and as the
// degradation target when durable storage is unavailable.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

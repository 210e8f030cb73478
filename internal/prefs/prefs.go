// Package prefs provides the flat key/value preference area the library is
// persisted into.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// Store is a per-application string key/value area. A missing key loads as
// the empty string.
type Store interface {
	Load(key string) (string, error)
	Save(key, value string) error
}

// FileStore keeps preferences as a flat JSON object in a single file.
type FileStore struct {
	path string
	data map[string]string
	mu   sync.RWMutex
}

// NewFileStore opens the preferences at path, creating its directory. An
// unreadable or corrupt file is not fatal: the store starts empty and the
// error is returned alongside it for logging.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create prefs dir: %w", err)
	}

	store := &FileStore{
		path: path,
		data: make(map[string]string),
	}
	if err := store.read(); err != nil {
		store.data = make(map[string]string)
		return store, err
	}
	return store, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the value stored under key.
func (s *FileStore) Load(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

// Save stores value under key and writes the file.
func (s *FileStore) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.write()
}

func (s *FileStore) read() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read prefs: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.data); err != nil {
		return fmt.Errorf("failed to parse prefs %s: %w", s.path, err)
	}
	return nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *FileStore) write() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*.json")
	if err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Load(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *Memory) Save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

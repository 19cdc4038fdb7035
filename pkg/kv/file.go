package kv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the whole key space in a single JSON file. Every Set
// rewrites the file; with three well-known keys that is cheap and keeps the
// on-disk form trivially inspectable.
type FileStore struct {
	Path string

	mu    sync.RWMutex
	pairs map[string]string
	dirty bool
}

// NewFileStore loads the store at path, creating an empty one if the file
// does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		Path:  path,
		pairs: make(map[string]string),
	}
	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&s.pairs)
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.pairs[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.pairs[key]; !ok || old != value {
		s.pairs[key] = value
		s.dirty = true
	}
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	if !s.dirty {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.pairs); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

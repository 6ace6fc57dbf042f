package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JoshPattman/cvquestions/metrics"
)

var ErrInvalidKey = errors.New("invalid storage key")

// KVStore is a small persistent string key-value store, the local equivalent of browser storage.
type KVStore interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// entryDTO is used only for storage and JSON encoding/decoding
type entryDTO struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type fileKVStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileKVStore creates a store that keeps one JSON file per key inside folder.
func NewFileKVStore(folder string) (*fileKVStore, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, err
	}
	return &fileKVStore{dir: folder}, nil
}

func (s *fileKVStore) entryPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get loads a value from disk
func (s *fileKVStore) Get(key string) (string, bool, error) {
	metrics.IncStoreOp("get")
	path, err := s.entryPath(key)
	if err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	var dto entryDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return "", false, fmt.Errorf("decode entry %q: %w", key, err)
	}
	return dto.Value, true, nil
}

// Set saves a value to disk, replacing any previous value
func (s *fileKVStore) Set(key, value string) error {
	metrics.IncStoreOp("set")
	path, err := s.entryPath(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entryDTO{Key: key, Value: value}, "", "  ")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Remove deletes the file backing key
func (s *fileKVStore) Remove(key string) error {
	metrics.IncStoreOp("remove")
	path, err := s.entryPath(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

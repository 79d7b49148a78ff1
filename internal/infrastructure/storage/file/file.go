// Package file persists the session as a small JSON document on disk, the
// default backend for a single user on one machine.
//
// Every call re-reads the file so separate CLI invocations observe each
// other's logins and logouts.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/librarydesk/library-client/internal/core/ports"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

type Storage struct {
	path string
	mu   sync.Mutex
}

// New returns a Storage backed by path. The file and its directory are
// created on the first write.
func New(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("file storage: path is required")
	}
	return &Storage{path: path}, nil
}

// Path returns the backing file.
func (s *Storage) Path() string { return s.path }

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := data[key]
	if !ok {
		return "", ports.ErrKeyNotFound
	}
	return v, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

func (s *Storage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := data[k]; ok {
			delete(data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if len(data) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file storage: %w", err)
		}
		return nil
	}
	return s.save(data)
}

// Ping checks that the state directory can be created.
func (s *Storage) Ping(context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("file storage: %w", err)
	}
	return nil
}

func (s *Storage) Close(context.Context) error { return nil }

func (s *Storage) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file storage: %w", err)
	}

	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("file storage: corrupt state file %s: %w", s.path, err)
	}
	return data, nil
}

// save writes through a temp file and rename so readers never see a torn
// document.
func (s *Storage) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("file storage: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("file storage: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("file storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("file storage: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("file storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("file storage: %w", err)
	}
	return nil
}

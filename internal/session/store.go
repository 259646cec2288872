package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists the session token. The login flow writes it and the Guard
// clears it; everything else only reads through the Guard.
type Store interface {
	Read() (string, error)
	Write(token string) error
	Clear() error
}

// FileStore keeps the token in a file (default ~/.aeternum/token).
// When EnvVar is set and non-empty in the environment it takes precedence
// on Read.
type FileStore struct {
	Path   string
	EnvVar string
}

// NewFileStore returns a FileStore for path that honours AETERNUM_TOKEN.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, EnvVar: "AETERNUM_TOKEN"}
}

// Read returns the stored token, or "" when none is stored.
func (s *FileStore) Read() (string, error) {
	if s.EnvVar != "" {
		if tok := os.Getenv(s.EnvVar); tok != "" {
			return tok, nil
		}
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("session.FileStore.Read: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write replaces the stored token.
func (s *FileStore) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("session.FileStore.Write: create dir: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("session.FileStore.Write: %w", err)
	}
	return nil
}

// Clear removes the token file. Clearing an absent token is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session.FileStore.Clear: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a MemoryStore holding token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Write(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

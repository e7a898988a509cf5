package credential

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// keyFileName is the fixed storage key for the local credential
const keyFileName = "api_key"

// FileStore persists a single key in the user's config directory
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to the given file path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStore returns the store at its standard location,
// $XDG_CONFIG_HOME/saucy/api_key or the platform equivalent
func DefaultStore() (*FileStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	return NewFileStore(filepath.Join(dir, "saucy", keyFileName)), nil
}

// Load reads the persisted key; a missing file is an empty key, not an error
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the key with owner-only permissions
func (s *FileStore) Save(key string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(key+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// Clear removes the persisted key
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove key file: %w", err)
	}
	return nil
}

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ids are UUIDs; the pattern also guards the filename against traversal.
var validScreenshotID = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// DiskStore writes screenshots as screenshot_<id>.png files under a
// directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Put(id string, data []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return errors.New("screenshot id already used")
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *DiskStore) Get(id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *DiskStore) path(id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}
	if !validScreenshotID.MatchString(id) {
		return "", fmt.Errorf("invalid screenshot id %q", id)
	}
	return filepath.Join(s.dir, "screenshot_"+id+".png"), nil
}

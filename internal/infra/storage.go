package infra

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists captured video bytes and returns the storage path.
// The artifact must be durably on disk before any metadata referencing its
// file name is created.
type ArtifactStore interface {
	Save(data []byte, fileName string) (string, error)
}

// DiskStore writes artifacts under a base directory.
type DiskStore struct {
	base string
}

func NewDiskStore(base string) (*DiskStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create video storage dir: %w", err)
	}
	return &DiskStore{base: base}, nil
}

func (s *DiskStore) Save(data []byte, fileName string) (string, error) {
	path := filepath.Join(s.base, fileName)

	// Write to a temp file then rename so a crash mid-write never leaves a
	// truncated artifact under the final name.
	tmp, err := os.CreateTemp(s.base, ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// MachineName identifies the station in recording metadata.
func MachineName() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown-station"
	}
	return name
}

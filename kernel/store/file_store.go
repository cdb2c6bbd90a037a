package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore is a MemoryStore seeded from, and saved to, a JSON snapshot file.
type FileStore struct {
	*MemoryStore
	Path string
	mu   sync.Mutex
}

// NewFileStore loads path if it exists. A missing file yields an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{MemoryStore: NewMemoryStore(), Path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read snapshots from [%s]", path)
	}

	var states []ResourceState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, errors.Wrapf(err, "failed to parse snapshots from [%s]", path)
	}
	for _, rs := range states {
		if rs.Resource == "" {
			return nil, errors.Errorf("snapshot file [%s] contains an entry without a resource name", path)
		}
		s.Set(rs.Resource, rs.Snapshot)
	}
	return s, nil
}

// Save writes a point-in-time copy of every snapshot to Path. Updates landing while it runs may be missed;
// mu only keeps concurrent saves from interleaving their writes.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}

	data, err := json.MarshalIndent(s.Snapshots(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal snapshots")
	}

	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write snapshots to [%s]", s.Path)
	}
	return nil
}

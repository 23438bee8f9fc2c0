package positions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/KevinLongeway/Safe2Day/internal/fsutil"
)

// ErrNotFound means no scan has been saved yet. It matches fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("no position data: %w", fs.ErrNotExist)

// Store persists a Dataset as a single JSON snapshot.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path is the snapshot file location.
func (s *Store) Path() string { return s.path }

// Save replaces the snapshot atomically.
func (s *Store) Save(ds *Dataset) error {
	if ds == nil {
		ds = NewDataset()
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save positions: %w", err)
	}
	return nil
}

// Load reads the snapshot. It returns ErrNotFound when none exists, which
// is distinct from a snapshot whose documents have no records.
func (s *Store) Load() (*Dataset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	ds := NewDataset()
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, fmt.Errorf("parse positions %s: %w", s.path, err)
	}
	return ds, nil
}

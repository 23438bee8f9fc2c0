// Package selection persists which logo image is currently chosen for
// replacement. It is independent of any scan data.
package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KevinLongeway/Safe2Day/internal/fsutil"
	"github.com/KevinLongeway/Safe2Day/internal/imaging"
)

// ErrNotFound means no logo has been selected yet.
var ErrNotFound = fmt.Errorf("no logo selected: %w", fs.ErrNotExist)

// ErrLogoMissing means the selected image no longer exists.
var ErrLogoMissing = errors.New("selected logo not found")

// Selection points at the chosen replacement image.
type Selection struct {
	LogoPath string `json:"logo_path"`
	LogoName string `json:"logo_name"`
}

// New builds a selection for an image path.
func New(path string) Selection {
	return Selection{LogoPath: path, LogoName: filepath.Base(path)}
}

// Validate checks that the selected image is still usable.
func (s Selection) Validate() error {
	if s.LogoPath == "" {
		return ErrNotFound
	}
	if !imaging.IsSupported(s.LogoPath) {
		return fmt.Errorf("%w: %s", imaging.ErrUnsupported, s.LogoName)
	}
	info, err := os.Stat(s.LogoPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w at %s", ErrLogoMissing, s.LogoPath)
	}
	return nil
}

// Store persists the selection as a small JSON file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path is the selection file location.
func (s *Store) Path() string { return s.path }

// Save overwrites the selection atomically.
func (s *Store) Save(sel Selection) error {
	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// Load returns the saved selection or ErrNotFound.
func (s *Store) Load() (Selection, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Selection{}, ErrNotFound
	}
	if err != nil {
		return Selection{}, fmt.Errorf("read selection: %w", err)
	}
	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return Selection{}, fmt.Errorf("parse selection %s: %w", s.path, err)
	}
	if sel.LogoName == "" && sel.LogoPath != "" {
		sel.LogoName = filepath.Base(sel.LogoPath)
	}
	return sel, nil
}

// Candidates lists the selectable logos in dir.
func Candidates(dir string) ([]Selection, error) {
	paths, err := imaging.List(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Selection, 0, len(paths))
	for _, p := range paths {
		out = append(out, New(p))
	}
	return out, nil
}

// Choose resolves a user's choice against the candidates: a 1-based menu
// number or an exact file name.
func Choose(candidates []Selection, choice string) (Selection, error) {
	var n int
	if _, err := fmt.Sscanf(choice, "%d", &n); err == nil && fmt.Sprint(n) == choice {
		if n < 1 || n > len(candidates) {
			return Selection{}, fmt.Errorf("choice %d out of range 1-%d", n, len(candidates))
		}
		return candidates[n-1], nil
	}
	for _, c := range candidates {
		if c.LogoName == choice {
			return c, nil
		}
	}
	return Selection{}, fmt.Errorf("no logo named %q", choice)
}

// Package images provides recipe photo validation, placeholder hashing, and storage.
package images

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Storage keeps recipe photos on disk as {media}/recipes/{recipeID}.jpg.
// All photos are normalized to JPEG before they reach Save, so the extension
// is fixed. Safe for concurrent use.
type Storage struct {
	dir string
	mu  sync.RWMutex
}

// NewStorage creates the recipes subdirectory under the media path and
// returns a Storage rooted there.
func NewStorage(mediaPath string) (*Storage, error) {
	if mediaPath == "" {
		return nil, errors.New("media path cannot be empty")
	}

	dir := filepath.Join(mediaPath, "recipes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recipes directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes the photo for a recipe, replacing any previous one.
func (s *Storage) Save(recipeID string, data []byte) error {
	if recipeID == "" {
		return errors.New("recipe ID cannot be empty")
	}
	if len(data) == 0 {
		return errors.New("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(recipeID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Get reads the stored photo for a recipe.
func (s *Storage) Get(recipeID string) ([]byte, error) {
	if recipeID == "" {
		return nil, errors.New("recipe ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(recipeID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no image stored for %s: %w", recipeID, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists reports whether a photo is stored for the recipe.
func (s *Storage) Exists(recipeID string) bool {
	if recipeID == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(recipeID))
	return err == nil
}

// Delete removes the photo for a recipe. Deleting a photo that was never
// uploaded is not an error.
func (s *Storage) Delete(recipeID string) error {
	if recipeID == "" {
		return errors.New("recipe ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(recipeID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Hash returns the hex SHA-256 of the stored photo, used as the ETag for
// HTTP cache validation.
func (s *Storage) Hash(recipeID string) (string, error) {
	data, err := s.Get(recipeID)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Path returns the filesystem location of a recipe's photo.
func (s *Storage) Path(recipeID string) string {
	return filepath.Join(s.dir, recipeID+".jpg")
}

package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AvatarStore persists student photos on disk under a base directory and
// resolves stored filenames into servable URLs.
type AvatarStore struct {
	baseDir string
	baseURL string
}

// NewAvatarStore ensures the base directory exists and returns a handle.
func NewAvatarStore(baseDir, baseURL string) (*AvatarStore, error) {
	if baseDir == "" {
		baseDir = "./avatars"
	}
	if baseURL == "" {
		baseURL = "/avatars"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatars directory: %w", err)
	}
	return &AvatarStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save stores the photo stream under a generated filename and returns the
// stored name. The original filename only contributes its extension.
func (s *AvatarStore) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext

	file, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	return name, nil
}

// Delete removes a stored avatar if present.
func (s *AvatarStore) Delete(name string) error {
	if name == "" {
		return nil
	}
	full := filepath.Join(s.baseDir, filepath.Base(name))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete avatar file: %w", err)
	}
	return nil
}

// URL resolves a stored filename into the URL the frontend can load. A nil
// input yields nil so callers can pass the photo reference straight through.
func (s *AvatarStore) URL(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}
	u := s.baseURL + "/" + path.Base(*name)
	return &u
}

// Dir exposes the storage directory for static file serving.
func (s *AvatarStore) Dir() string {
	return s.baseDir
}

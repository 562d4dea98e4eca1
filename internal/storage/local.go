package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is the route the server mounts the upload directory on.
const URLPrefix = "/uploads"

// LocalStore writes images under a directory served by the API itself.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Save writes the image as <uuid><ext> and returns its URL path.
func (s *LocalStore) Save(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + mimetype.Detect(image).Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), image, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return URLPrefix + "/" + name, nil
}

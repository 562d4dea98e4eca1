// Package storage keeps a copy of accepted scan images.
package storage

import (
	"context"
	"fmt"

	"riy-server/internal/config"
)

// ImageStore saves an image and returns where it can be fetched from.
type ImageStore interface {
	Save(ctx context.Context, image []byte) (string, error)
}

// New picks the store named by IMAGE_STORE. It returns nil for "none"; callers
// skip saving in that case.
func New(cfg *config.Config) (ImageStore, error) {
	switch cfg.ImageStore {
	case "", "none":
		return nil, nil
	case "local":
		s, err := NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "cloudinary":
		s, err := NewCloudinaryStore(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
}

package storage

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/plantvision/leafscan/internal/imaging"
)

// LocalStore archives leaf images as JPEG files under a base directory.
// This is the default archive for single-node deployments.
type LocalStore struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// BasePath is the archive directory, exposed so the HTTP layer can
// serve archived images from it.
func (ls *LocalStore) BasePath() string { return ls.basePath }

// SaveImage implements predictions.ArchiveStore. The returned value is
// the on-disk path recorded on the PredictionRecord.
func (ls *LocalStore) SaveImage(ctx context.Context, name string, img image.Image) (string, error) {
	cleanName := filepath.Clean(name)
	if strings.Contains(cleanName, "..") || filepath.IsAbs(cleanName) {
		return "", fmt.Errorf("invalid archive name")
	}

	data, err := imaging.EncodeJPEG(img)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(ls.basePath, cleanName)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return fullPath, nil
}

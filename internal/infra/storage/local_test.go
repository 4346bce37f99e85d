package storage

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantvision/leafscan/internal/imaging"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.RGBA{R: 120, G: 200, B: 40, A: 255})
	return img
}

func TestLocalStoreSaveImage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(filepath.Join(dir, "images"))
	require.NoError(t, err)

	path, err := store.SaveImage(context.Background(), "20250601_123045_ab12cd34_leaf.jpg", testImage())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// archived blob must decode back as a valid image
	_, err = imaging.Decode(data)
	assert.NoError(t, err)
}

func TestLocalStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "archive")
	_, err := NewLocal(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// creation is idempotent
	_, err = NewLocal(dir)
	assert.NoError(t, err)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveImage(context.Background(), "../escape.jpg", testImage())
	assert.Error(t, err)

	_, err = store.SaveImage(context.Background(), "/abs/escape.jpg", testImage())
	assert.Error(t, err)
}

package predictions

import (
	"context"
	"image"
)

// Repository port (interface for persistence)
type Repository interface {
	// Insert stores a new record and returns it with ID, CreatedAt and
	// UpdatedAt filled in by the store.
	Insert(ctx context.Context, in RecordInput) (*PredictionRecord, error)
	// GetByID returns ErrNotFound when no record exists for id.
	GetByID(ctx context.Context, id RecordID) (*PredictionRecord, error)
	// Latest returns up to limit records ordered by created_at descending.
	Latest(ctx context.Context, limit int) ([]*PredictionRecord, error)
}

// ArchiveStore port (interface for durable image-blob storage)
type ArchiveStore interface {
	// SaveImage writes the image under name and returns the stored path
	// or object URL. Directory/bucket creation is idempotent.
	SaveImage(ctx context.Context, name string, img image.Image) (string, error)
}

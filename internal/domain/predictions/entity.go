package predictions

import (
	"time"

	"github.com/plantvision/leafscan/internal/domain/engine"
)

// RecordID identifier type, assigned by the store on insert
type RecordID int64

// Aggregate Root: PredictionRecord, the durable unit of history.
// Records are append-only: no update or delete path exists.
type PredictionRecord struct {
	ID             RecordID  `json:"id"`
	ClassName      string    `json:"class_name"`
	ClassInfo      string    `json:"class_info"`
	Recommendation string    `json:"recommendation"`
	ImagePath      string    `json:"image_path"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RecordInput is what callers provide on insert; the store assigns
// ID, CreatedAt and UpdatedAt.
type RecordInput struct {
	ClassName      string
	ClassInfo      string
	Recommendation string
	ImagePath      string
}

// BatchItem is one named image payload in an inbound batch.
type BatchItem struct {
	Filename string
	Data     []byte
}

// BatchItemResult is the per-item outcome of a batch submission.
// It is response-only and never persisted. Exactly one of
// SavedRecord/Error is set depending on Success.
type BatchItemResult struct {
	Filename    string             `json:"filename"`
	Success     bool               `json:"success"`
	Prediction  *engine.Prediction `json:"prediction,omitempty"`
	SavedRecord *PredictionRecord  `json:"saved_record,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// ResultsPage wraps a recent-N query response.
type ResultsPage struct {
	Results    []*PredictionRecord `json:"results"`
	TotalCount int                 `json:"total_count"`
}

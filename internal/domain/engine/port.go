// Package engine defines the boundary to the externally supplied
// prediction engine. The engine itself (model architecture, ensembling,
// confidence computation) is an opaque collaborator; this package only
// fixes the shape of its answer.
package engine

import (
	"context"
	"image"
)

// Candidate is one classification decision from a sub-model or
// ensemble member.
type Candidate struct {
	Label      string  `json:"label"`
	Model      string  `json:"model"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the engine's full answer for one image. Callers
// interpret only Picked; Candidates carries per-member provenance
// when the engine provides it.
type Prediction struct {
	Picked     Candidate   `json:"picked"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Engine port (interface for single-image classification)
type Engine interface {
	PredictOne(ctx context.Context, img image.Image) (*Prediction, error)
}

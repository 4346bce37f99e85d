package predictions

import (
	"context"
	"fmt"

	domain "github.com/plantvision/leafscan/internal/domain/predictions"
)

// Results returns up to limit recent records, most recent first.
// limit <= 0 falls back to the store default except an explicit 0,
// which yields an empty page.
func (s *Service) Results(ctx context.Context, limit int) (domain.ResultsPage, error) {
	records, err := s.Repo.Latest(ctx, limit)
	if err != nil {
		return domain.ResultsPage{}, fmt.Errorf("lookup results: %w", err)
	}
	if records == nil {
		records = []*domain.PredictionRecord{}
	}
	return domain.ResultsPage{Results: records, TotalCount: len(records)}, nil
}

// ResultByID returns one record. domain.ErrNotFound passes through
// unchanged so the transport can answer 404 instead of a generic
// lookup failure.
func (s *Service) ResultByID(ctx context.Context, id domain.RecordID) (*domain.PredictionRecord, error) {
	return s.Repo.GetByID(ctx, id)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/plantvision/leafscan/internal/domain/predictions"
)

const defaultLimit = 100

type PredictionRepository struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db, clock: time.Now}
}

func (r *PredictionRepository) Insert(ctx context.Context, in domain.RecordInput) (*domain.PredictionRecord, error) {
	const q = `
INSERT INTO prediction_records
(class_name, class_info, recommendation, image_path, created_at, updated_at)
VALUES (?,?,?,?,?,?);`

	now := r.clock().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx, q,
		in.ClassName, in.ClassInfo, in.Recommendation, in.ImagePath, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting prediction record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading inserted id: %w", err)
	}

	return &domain.PredictionRecord{
		ID:             domain.RecordID(id),
		ClassName:      in.ClassName,
		ClassInfo:      in.ClassInfo,
		Recommendation: in.Recommendation,
		ImagePath:      in.ImagePath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, id domain.RecordID) (*domain.PredictionRecord, error) {
	const q = `
SELECT id, class_name, class_info, recommendation, image_path, created_at, updated_at
FROM prediction_records
WHERE id=? LIMIT 1;`

	var rec domain.PredictionRecord
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.ClassName, &rec.ClassInfo, &rec.Recommendation,
		&rec.ImagePath, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying prediction record: %w", err)
	}
	return &rec, nil
}

func (r *PredictionRepository) Latest(ctx context.Context, limit int) ([]*domain.PredictionRecord, error) {
	if limit == 0 {
		return []*domain.PredictionRecord{}, nil
	}
	if limit < 0 {
		limit = defaultLimit
	}
	const q = `
SELECT id, class_name, class_info, recommendation, image_path, created_at, updated_at
FROM prediction_records
ORDER BY created_at DESC, id DESC
LIMIT ?;`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying latest records: %w", err)
	}
	defer rows.Close()

	out := []*domain.PredictionRecord{}
	for rows.Next() {
		var rec domain.PredictionRecord
		if err := rows.Scan(
			&rec.ID, &rec.ClassName, &rec.ClassInfo, &rec.Recommendation,
			&rec.ImagePath, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

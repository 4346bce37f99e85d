// Package sqlite provides the development/test flavor of the result
// store. Schema creation is handled here; production deployments run
// mysql or postgres with managed migrations instead.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	class_name TEXT NOT NULL,
	class_info TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	image_path TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prediction_records_created_at
	ON prediction_records (created_at DESC);
`

func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx2, schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

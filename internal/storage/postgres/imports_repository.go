package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ImportBatch is one recorded importer run.
type ImportBatch struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Created    int        `json:"created"`
	Duplicates int        `json:"duplicates"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// ImportRepository logs importer runs in import_batches.
type ImportRepository struct {
	conn
}

func (r *ImportRepository) StartBatch(ctx context.Context, id, source string, startedAt time.Time) error {
	_, err := r.queryer().Exec(ctx,
		`INSERT INTO import_batches (id, source, started_at) VALUES ($1, $2, $3)`,
		id, source, startedAt)
	if err != nil {
		return fmt.Errorf("start import batch: %w", err)
	}
	return nil
}

func (r *ImportRepository) FinishBatch(ctx context.Context, id string, created, duplicates, failed int, finishedAt time.Time) error {
	tag, err := r.queryer().Exec(ctx, `
		UPDATE import_batches
		SET created = $2, duplicates = $3, failed = $4, finished_at = $5
		WHERE id = $1`,
		id, created, duplicates, failed, finishedAt)
	if err != nil {
		return fmt.Errorf("finish import batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish import batch %s: not found", id)
	}
	return nil
}

// Recent returns the newest batches first. ULIDs sort by start time.
func (r *ImportRepository) Recent(ctx context.Context, limit int) ([]ImportBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.queryer().Query(ctx, `
		SELECT id, source, created, duplicates, failed, started_at, finished_at
		FROM import_batches
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}
	batches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ImportBatch, error) {
		var b ImportBatch
		err := row.Scan(&b.ID, &b.Source, &b.Created, &b.Duplicates, &b.Failed, &b.StartedAt, &b.FinishedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan import batches: %w", err)
	}
	return batches, nil
}

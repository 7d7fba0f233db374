package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, report *Report) (*Report, error) {

	preds, err := json.Marshal(report.Predictions)
	if err != nil {
		return nil, fmt.Errorf("error encoding predictions: %w", err)
	}

	query :=
		`INSERT INTO reports (owner, source_name, predictions, sample_count, storage_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		report.Owner, report.SourceName, preds, report.SampleCount, report.StorageKey).
		Scan(&report.ID, &report.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return report, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]*Report, error) {

	query :=
		`SELECT id, owner, created_at, source_name, predictions, sample_count, storage_key
		 FROM reports
		 WHERE owner = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := make([]*Report, 0)
	for rows.Next() {
		report, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByOwnerAndID(ctx context.Context, owner, id string) (*Report, error) {

	// Reject non-UUID ids before they hit the database; a malformed id
	// is indistinguishable from an absent report.
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}

	query :=
		`SELECT id, owner, created_at, source_name, predictions, sample_count, storage_key
		 FROM reports
		 WHERE owner = $1 AND id = $2
		 `

	row := r.db.QueryRowContext(ctx, query, owner, id)
	report, err := scanReport(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	return report, nil
}

func scanReport(scan func(dest ...any) error) (*Report, error) {
	report := &Report{}
	var preds []byte

	err := scan(&report.ID, &report.Owner, &report.CreatedAt,
		&report.SourceName, &preds, &report.SampleCount, &report.StorageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}

	if err := json.Unmarshal(preds, &report.Predictions); err != nil {
		return nil, fmt.Errorf("error decoding predictions: %w", err)
	}

	return report, nil
}

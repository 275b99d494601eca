package storage

import (
	"context"
	"fmt"
)

// RunRow is the archive entry for one persisted run record. The JSON file on
// disk stays the source of truth; the archive exists so run sets can be
// listed and traced without walking the results tree.
type RunRow struct {
	RunID    string
	RunSetID string
	Study    string
	Model    string
	Version  float64
	FilePath string
}

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Insert(ctx context.Context, row RunRow) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO runs(run_id, run_set_id, study_number, model_name, version, file_path)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6)`,
		row.RunID, row.RunSetID, row.Study, row.Model, row.Version, row.FilePath)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepo) ListByRunSet(ctx context.Context, runSetID string) ([]RunRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id::text, run_set_id, study_number, model_name, version, file_path
FROM runs WHERE run_set_id = $1 ORDER BY study_number`, runSetID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var row RunRow
		if err := rows.Scan(&row.RunID, &row.RunSetID, &row.Study, &row.Model, &row.Version, &row.FilePath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *RunRepo) ListRunSets(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT run_set_id FROM runs ORDER BY run_set_id`)
	if err != nil {
		return nil, fmt.Errorf("list run sets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run set: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

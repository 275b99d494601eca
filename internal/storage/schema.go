package storage

import (
	"context"
	"fmt"
)

// EnsureSchema creates the archive tables when they do not exist yet, so a
// fresh database works without a separate migration step.
func EnsureSchema(ctx context.Context, db *DB) error {
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
  run_id UUID PRIMARY KEY,
  run_set_id TEXT NOT NULL,
  study_number TEXT NOT NULL,
  model_name TEXT NOT NULL,
  version DOUBLE PRECISION NOT NULL,
  file_path TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_runs_run_set ON runs(run_set_id, study_number);

CREATE TABLE IF NOT EXISTS llm_calls (
  call_id UUID PRIMARY KEY,
  operation TEXT NOT NULL,
  run_set_id TEXT,
  study_number TEXT,
  provider_name TEXT NOT NULL,
  model TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('ok','error')),
  error_type TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_llm_calls_run_set ON llm_calls(run_set_id, created_at DESC);
`
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

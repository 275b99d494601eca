package storage

import (
	"context"
	"fmt"
)

type LLMCallRecord struct {
	CallID       string
	Operation    string
	RunSetID     string
	Study        string
	ProviderName string
	Model        string
	Status       string
	ErrorType    string
}

// LLMAuditRepo records every provider call so failed or rate-limited
// batches can be traced after the fact.
type LLMAuditRepo struct {
	db *DB
}

func NewLLMAuditRepo(db *DB) *LLMAuditRepo {
	return &LLMAuditRepo{db: db}
}

func (r *LLMAuditRepo) Insert(ctx context.Context, rec LLMCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO llm_calls(call_id, operation, run_set_id, study_number, provider_name, model, status, error_type)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, NULLIF($3,''), NULLIF($4,''), $5, $6, $7, NULLIF($8,''))`,
		rec.CallID, rec.Operation, rec.RunSetID, rec.Study, rec.ProviderName, rec.Model, rec.Status, rec.ErrorType)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

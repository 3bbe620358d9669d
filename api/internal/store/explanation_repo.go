package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"exam-coach/api/internal/explain"
)

type ExplanationRepo struct{ DB *sql.DB }

func NewExplanationRepo(db *sql.DB) *ExplanationRepo { return &ExplanationRepo{DB: db} }

// Find возвращает закэшированное объяснение для (questionID, engine, model).
// Если maxAge > 0 и запись старше, вернёт sql.ErrNoRows (чтобы вызвать LLM заново).
func (r *ExplanationRepo) Find(ctx context.Context, questionID, engine, model string, maxAge time.Duration) (explain.Explanation, error) {
	const q = `select explanation_json, created_at
	           from explanations_cache
	           where question_id=$1 and engine=$2 and model=$3`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, questionID, engine, model).Scan(&js, &ts); err != nil {
		return explain.Explanation{}, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return explain.Explanation{}, sql.ErrNoRows
	}
	var exp explain.Explanation
	if err := json.Unmarshal(js, &exp); err != nil {
		// Если кэш битый — считаем, что нет валидной записи
		return explain.Explanation{}, sql.ErrNoRows
	}
	return exp, nil
}

// Upsert сохраняет/обновляет объяснение.
// PK: (question_id, engine, model).
func (r *ExplanationRepo) Upsert(ctx context.Context, questionID, engine, model string, exp explain.Explanation) error {
	js, _ := json.Marshal(exp)
	const q = `
insert into explanations_cache(question_id, engine, model, explanation_json)
values ($1,$2,$3,$4)
on conflict (question_id, engine, model)
do update set explanation_json=excluded.explanation_json, created_at=now()`
	_, err := r.DB.ExecContext(ctx, q, questionID, engine, model, js)
	return err
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"exam-coach/api/internal/explain"
)

// Question — вопрос банка с ключом ответа. Варианты, ключ и выдержки
// лежат в jsonb-колонках.
type Question struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Options        []explain.Option   `json:"options"`
	CorrectAnswers []string           `json:"correct_answers"`
	Category       string             `json:"category,omitempty"`
	DifficultyHint string             `json:"difficulty_hint,omitempty"`
	SyllabusPath   string             `json:"syllabus_path,omitempty"`
	Evidence       []explain.Evidence `json:"evidence,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ExplainRequest собирает вход пайплайна из сохранённого вопроса.
func (q Question) ExplainRequest() explain.Request {
	return explain.Request{
		QuestionTitle:  q.Title,
		Options:        q.Options,
		CorrectAnswers: q.CorrectAnswers,
		Category:       q.Category,
		DifficultyHint: q.DifficultyHint,
		SyllabusPath:   q.SyllabusPath,
		Evidence:       q.Evidence,
	}
}

type QuestionRepo struct{ DB *sql.DB }

func NewQuestionRepo(db *sql.DB) *QuestionRepo { return &QuestionRepo{DB: db} }

func (r *QuestionRepo) Create(ctx context.Context, q *Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question needs at least 2 options")
	}
	if len(q.CorrectAnswers) == 0 {
		return fmt.Errorf("question needs at least 1 correct answer")
	}
	opts, _ := json.Marshal(q.Options)
	correct, _ := json.Marshal(q.CorrectAnswers)
	ev, _ := json.Marshal(q.Evidence)
	const query = `
insert into questions(id, title, options, correct_answers, category, difficulty_hint, syllabus_path, evidence)
values ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.DB.ExecContext(ctx, query, q.ID, q.Title, opts, correct, q.Category, q.DifficultyHint, q.SyllabusPath, ev)
	return err
}

func (r *QuestionRepo) Get(ctx context.Context, id string) (Question, error) {
	const query = `
select id, title, options, correct_answers, category, difficulty_hint, syllabus_path, evidence, created_at, updated_at
from questions where id=$1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// Random — случайный вопрос, опционально в рамках категории. Банк
// небольшой, order by random() достаточно.
func (r *QuestionRepo) Random(ctx context.Context, category string) (Question, error) {
	if category != "" {
		const query = `
select id, title, options, correct_answers, category, difficulty_hint, syllabus_path, evidence, created_at, updated_at
from questions where category=$1 order by random() limit 1`
		return r.scanOne(r.DB.QueryRowContext(ctx, query, category))
	}
	const query = `
select id, title, options, correct_answers, category, difficulty_hint, syllabus_path, evidence, created_at, updated_at
from questions order by random() limit 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query))
}

func (r *QuestionRepo) List(ctx context.Context, category string, limit, offset int) ([]Question, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const query = `
select id, title, options, correct_answers, category, difficulty_hint, syllabus_path, evidence, created_at, updated_at
from questions
where ($1 = '' or category = $1)
order by created_at desc
limit $2 offset $3`
	rows, err := r.DB.QueryContext(ctx, query, category, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *QuestionRepo) Update(ctx context.Context, q Question) error {
	opts, _ := json.Marshal(q.Options)
	correct, _ := json.Marshal(q.CorrectAnswers)
	ev, _ := json.Marshal(q.Evidence)
	const query = `
update questions
set title=$2, options=$3, correct_answers=$4, category=$5, difficulty_hint=$6, syllabus_path=$7, evidence=$8, updated_at=now()
where id=$1`
	res, err := r.DB.ExecContext(ctx, query, q.ID, q.Title, opts, correct, q.Category, q.DifficultyHint, q.SyllabusPath, ev)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *QuestionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `delete from questions where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *QuestionRepo) scanOne(row rowScanner) (Question, error) {
	return scanQuestion(row)
}

func scanQuestion(row rowScanner) (Question, error) {
	var (
		q                 Question
		opts, correct, ev []byte
	)
	if err := row.Scan(&q.ID, &q.Title, &opts, &correct, &q.Category, &q.DifficultyHint, &q.SyllabusPath, &ev, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return Question{}, err
	}
	_ = json.Unmarshal(opts, &q.Options)
	_ = json.Unmarshal(correct, &q.CorrectAnswers)
	_ = json.Unmarshal(ev, &q.Evidence)
	return q, nil
}

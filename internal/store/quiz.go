package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Quiz is the persisted outcome of one generation run. The style profile
// is stored verbatim as JSON for auditability; questions are stored in
// display order.
type Quiz struct {
	ID           string
	ClassID      string
	CreatedAt    time.Time
	Approved     bool
	AttemptCount int
	StyleProfile string   // JSON
	Questions    []string // JSON payload per question, insertion order = display order
}

// QuizRepo persists finalized quizzes.
type QuizRepo interface {
	Save(ctx context.Context, q *Quiz) error
	Get(ctx context.Context, id string) (*Quiz, error)
}

type quizRepo struct {
	db *sql.DB
}

func (r *quizRepo) Save(ctx context.Context, q *Quiz) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quizzes (id, class_id, created_at, approved, attempt_count, style_profile)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.ClassID, q.CreatedAt.UTC(), q.Approved, q.AttemptCount, q.StyleProfile)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	for i, payload := range q.Questions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (quiz_id, position, payload) VALUES (?, ?, ?)`,
			q.ID, i, payload)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *quizRepo) Get(ctx context.Context, id string) (*Quiz, error) {
	var q Quiz
	err := r.db.QueryRowContext(ctx,
		`SELECT id, class_id, created_at, approved, attempt_count, style_profile
		 FROM quizzes WHERE id = ?`, id).
		Scan(&q.ID, &q.ClassID, &q.CreatedAt, &q.Approved, &q.AttemptCount, &q.StyleProfile)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan quiz: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM questions WHERE quiz_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Questions = append(q.Questions, payload)
	}
	return &q, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Lesson records one taught lesson for a class.
type Lesson struct {
	ID        int64
	ClassID   string
	TaughtAt  time.Time
	Topic     string
	Summary   string
	Standards []string
}

// LessonRepo manages lesson history rows.
type LessonRepo interface {
	Add(ctx context.Context, l *Lesson) error

	// ListSince returns lessons for a class taught at or after since,
	// oldest first. An empty result is not an error.
	ListSince(ctx context.Context, classID string, since time.Time) ([]*Lesson, error)
}

type lessonRepo struct {
	db *sql.DB
}

func (r *lessonRepo) Add(ctx context.Context, l *Lesson) error {
	standards, err := json.Marshal(l.Standards)
	if err != nil {
		return fmt.Errorf("marshal standards: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO lessons (class_id, taught_at, topic, summary, standards)
		 VALUES (?, ?, ?, ?, ?)`,
		l.ClassID, l.TaughtAt.UTC(), l.Topic, l.Summary, string(standards))
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	l.ID, _ = res.LastInsertId()
	return nil
}

func (r *lessonRepo) ListSince(ctx context.Context, classID string, since time.Time) ([]*Lesson, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, class_id, taught_at, topic, summary, standards
		 FROM lessons WHERE class_id = ? AND taught_at >= ?
		 ORDER BY taught_at, id`,
		classID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var out []*Lesson
	for rows.Next() {
		var l Lesson
		var standards string
		if err := rows.Scan(&l.ID, &l.ClassID, &l.TaughtAt, &l.Topic, &l.Summary, &standards); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		if err := json.Unmarshal([]byte(standards), &l.Standards); err != nil {
			return nil, fmt.Errorf("parse standards: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

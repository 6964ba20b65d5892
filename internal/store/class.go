package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Class holds a teacher's stored class configuration.
type Class struct {
	ID        string
	Name      string
	Grade     int
	Subject   string
	Standards []string // ordered standard codes
	CreatedAt time.Time
}

// ClassRepo manages class configuration rows.
type ClassRepo interface {
	Create(ctx context.Context, c *Class) error
	Get(ctx context.Context, id string) (*Class, error)
	List(ctx context.Context) ([]*Class, error)
}

type classRepo struct {
	db *sql.DB
}

func (r *classRepo) Create(ctx context.Context, c *Class) error {
	standards, err := json.Marshal(c.Standards)
	if err != nil {
		return fmt.Errorf("marshal standards: %w", err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO classes (id, name, grade, subject, standards, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Grade, c.Subject, string(standards), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

func (r *classRepo) Get(ctx context.Context, id string) (*Class, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, grade, subject, standards, created_at FROM classes WHERE id = ?`, id)
	return scanClass(row)
}

func (r *classRepo) List(ctx context.Context) ([]*Class, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, grade, subject, standards, created_at FROM classes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	var out []*Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(row rowScanner) (*Class, error) {
	var c Class
	var standards string
	err := row.Scan(&c.ID, &c.Name, &c.Grade, &c.Subject, &standards, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan class: %w", err)
	}
	if err := json.Unmarshal([]byte(standards), &c.Standards); err != nil {
		return nil, fmt.Errorf("parse standards: %w", err)
	}
	return &c, nil
}

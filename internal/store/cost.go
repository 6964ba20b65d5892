package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CostRecord is one billable call's cost accounting row. Append-only;
// the pipeline never mutates or deletes rows.
type CostRecord struct {
	ID           int64
	Timestamp    time.Time
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// CostRepo is the append-only cost ledger backing store.
type CostRepo interface {
	Append(ctx context.Context, rec *CostRecord) error
	List(ctx context.Context, limit int) ([]*CostRecord, error)
	Total(ctx context.Context) (float64, error)
}

type costRepo struct {
	db *sql.DB
}

func (r *costRepo) Append(ctx context.Context, rec *CostRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cost_records (recorded_at, provider, model, input_tokens, output_tokens, cost_usd)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC(), rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens, rec.CostUSD)
	if err != nil {
		return fmt.Errorf("insert cost record: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

func (r *costRepo) List(ctx context.Context, limit int) ([]*CostRecord, error) {
	q := `SELECT id, recorded_at, provider, model, input_tokens, output_tokens, cost_usd
	      FROM cost_records ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query cost records: %w", err)
	}
	defer rows.Close()

	var out []*CostRecord
	for rows.Next() {
		var rec CostRecord
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Provider, &rec.Model,
			&rec.InputTokens, &rec.OutputTokens, &rec.CostUSD); err != nil {
			return nil, fmt.Errorf("scan cost record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *costRepo) Total(ctx context.Context) (float64, error) {
	var total sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(cost_usd) FROM cost_records`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum cost records: %w", err)
	}
	return total.Float64, nil
}

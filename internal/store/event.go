package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ModelEventData captures the data for a single model request event.
type ModelEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// ModelEvent is a persisted model request event.
type ModelEvent struct {
	ID        int64
	Timestamp time.Time
	ModelEventData
}

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // filter by purpose label ("" = all)
}

// EventRepo is the append-only log of model requests.
type EventRepo interface {
	AppendModelEvent(ctx context.Context, data ModelEventData) error
	QueryModelEvents(ctx context.Context, opts QueryOpts) ([]*ModelEvent, error)
}

type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendModelEvent(ctx context.Context, data ModelEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO model_events
		 (recorded_at, provider, model, purpose, input_tokens, output_tokens,
		  latency_ms, success, error_message, request_body, response_body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
		data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if err != nil {
		return fmt.Errorf("insert model event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryModelEvents(ctx context.Context, opts QueryOpts) ([]*ModelEvent, error) {
	q := `SELECT id, recorded_at, provider, model, purpose, input_tokens, output_tokens,
	             latency_ms, success, error_message, request_body, response_body
	      FROM model_events`
	var args []any
	if opts.Purpose != "" {
		q += ` WHERE purpose = ?`
		args = append(args, opts.Purpose)
	}
	q += ` ORDER BY id DESC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query model events: %w", err)
	}
	defer rows.Close()

	var out []*ModelEvent
	for rows.Next() {
		var e ModelEvent
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
			&e.ErrorMessage, &e.RequestBody, &e.ResponseBody); err != nil {
			return nil, fmt.Errorf("scan model event: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

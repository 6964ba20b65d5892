package budget

import (
	"context"
	"fmt"
	"os"
	"sync"

	"quizforge/internal/store"
)

// FileLedger appends one human-diffable line per billable call to a text
// file. Format, tab-separated:
//
//	2026-08-31T14:02:11Z	openai	gpt-4o-mini	1532	904	0.000925
//
// (timestamp, provider, model, input tokens, output tokens, USD cost).
// Appends are serialized under a single writer lock; the file is opened
// in append mode so concurrent processes interleave whole lines.
type FileLedger struct {
	mu   sync.Mutex
	path string
}

// NewFileLedger creates a ledger writing to path. The file is created on
// first append.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// Append writes one ledger line. Never rewrites or truncates.
func (l *FileLedger) Append(_ context.Context, rec *store.CostRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\t%d\t%d\t%.6f\n",
		rec.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		rec.Provider,
		rec.Model,
		rec.InputTokens,
		rec.OutputTokens,
		rec.CostUSD)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write ledger line: %w", err)
	}
	return nil
}

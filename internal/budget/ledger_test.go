package budget

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quizforge/internal/store"
)

func TestFileLedger_AppendsTabSeparatedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.log")
	l := NewFileLedger(path)

	ts := time.Date(2026, 8, 31, 14, 2, 11, 0, time.UTC)
	rec := &store.CostRecord{
		Timestamp:    ts,
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		InputTokens:  1532,
		OutputTokens: 904,
		CostUSD:      0.000925,
	}
	if err := l.Append(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	want := "2026-08-31T14:02:11Z\topenai\tgpt-4o-mini\t1532\t904\t0.000925\n"
	if string(data) != want {
		t.Fatalf("ledger line mismatch:\n got: %q\nwant: %q", data, want)
	}
}

func TestFileLedger_AppendsNeverTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.log")
	l := NewFileLedger(path)

	for i := 0; i < 3; i++ {
		rec := &store.CostRecord{
			Timestamp: time.Now().UTC(),
			Provider:  "anthropic",
			Model:     "claude-haiku-4-5",
			CostUSD:   0.001,
		}
		if err := l.Append(context.Background(), rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// retried wraps a mock queue with tight backoff so tests stay fast.
func retried(responses ...MockResponse) (*MockProvider, Provider) {
	mock := NewMockProvider(responses...)
	return mock, WithRetry(mock, RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	})
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
}

func okJSON() MockResponse {
	return MockResponse{Content: json.RawMessage(`{"ok":true}`)}
}

func TestRetry_Classification(t *testing.T) {
	cases := []struct {
		name      string
		queue     []MockResponse
		wantCalls int
		wantOK    bool
	}{
		{
			name:      "clean first attempt",
			queue:     []MockResponse{okJSON()},
			wantCalls: 1,
			wantOK:    true,
		},
		{
			name:      "transient outage then recovery",
			queue:     []MockResponse{down(), okJSON()},
			wantCalls: 2,
			wantOK:    true,
		},
		{
			name:      "outage exhausts the attempt budget",
			queue:     []MockResponse{down(), down(), down()},
			wantCalls: 3,
		},
		{
			name: "truncated output is terminal",
			queue: []MockResponse{
				{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{`)}},
				okJSON(),
			},
			wantCalls: 1,
		},
		{
			name: "schema-invalid output gets one more try",
			queue: []MockResponse{
				{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}},
				{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}},
				okJSON(),
			},
			wantCalls: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock, p := retried(tc.queue...)

			resp, err := p.Generate(context.Background(), Request{})
			if tc.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(resp.Content) != `{"ok":true}` {
					t.Fatalf("unexpected content: %s", resp.Content)
				}
			} else if err == nil {
				t.Fatal("expected error")
			}
			if mock.CallCount() != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, mock.CallCount())
			}
		})
	}
}

func TestRetry_TerminalErrorKeepsItsType(t *testing.T) {
	_, p := retried(MockResponse{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{}`)}})

	_, err := p.Generate(context.Background(), Request{})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T", err)
	}
}

func TestRetry_RateLimitWaitsRetryAfter(t *testing.T) {
	mock, p := retried(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 1 * time.Millisecond, Err: errors.New("429")}},
		okJSON(),
	)

	start := time.Now()
	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
	if time.Since(start) < 1*time.Millisecond {
		t.Fatal("expected the retry to wait out RetryAfter")
	}
}

func TestRetry_CancelledContextStopsRetrying(t *testing.T) {
	_, p := retried(down(), okJSON())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error from a cancelled context")
	}
}

func TestRetry_Delegates(t *testing.T) {
	mock := NewMockProvider()
	mock.BillableFlag = true
	p := WithRetry(mock, RetryConfig{MaxAttempts: 1, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1})
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
	if !p.Billable() {
		t.Fatal("expected Billable to delegate to the inner provider")
	}
}

package budget

import (
	"context"
	"fmt"
	"os"
	"time"

	"quizforge/internal/llm"
	"quizforge/internal/store"
)

// GuardedProvider is a decorator that routes every call through the
// Guard: rate pacing, ceiling reservation before the call, and a cost
// record after it.
type GuardedProvider struct {
	inner llm.Provider
	guard *Guard
}

// WithGuard wraps a billable Provider with budget enforcement.
// Non-billable providers are returned unchanged: fabricator and mock
// calls never touch the guard's bookkeeping.
func WithGuard(p llm.Provider, g *Guard) llm.Provider {
	if !p.Billable() {
		return p
	}
	return &GuardedProvider{inner: p, guard: g}
}

func (gp *GuardedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	estimated := estimateRequestCost(gp.inner.ModelID(), req)

	res, err := gp.guard.Reserve(gp.inner.ModelID(), estimated)
	if err != nil {
		return nil, err
	}

	if err := gp.guard.Wait(ctx); err != nil {
		res.Release()
		return nil, err
	}

	resp, err := gp.inner.Generate(ctx, req)
	if err != nil {
		res.Release()
		return nil, err
	}

	cost := llm.LookupCost(resp.Model)
	if cost == nil {
		c := llm.DefaultCost()
		cost = &c
	}

	rec := &store.CostRecord{
		Timestamp:    time.Now().UTC(),
		Provider:     gp.inner.ModelID(),
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      cost.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}
	if commitErr := res.Commit(ctx, rec); commitErr != nil {
		// The response is good; a ledger write failure must not lose it.
		fmt.Fprintf(os.Stderr, "warning: %v\n", commitErr)
	}

	return resp, nil
}

func (gp *GuardedProvider) ModelID() string {
	return gp.inner.ModelID()
}

func (gp *GuardedProvider) Billable() bool {
	return gp.inner.Billable()
}

// estimateRequestCost prices a request before sending it, using prompt
// length for input and the MaxTokens allowance for output.
func estimateRequestCost(model string, req llm.Request) float64 {
	cost := llm.LookupCost(model)
	if cost == nil {
		c := llm.DefaultCost()
		cost = &c
	}

	chars := len(req.System)
	for _, m := range req.Messages {
		chars += len(m.Content)
	}

	outputTokens := req.MaxTokens
	if outputTokens == 0 {
		outputTokens = 1024
	}
	return cost.Cost(chars/4, outputTokens)
}

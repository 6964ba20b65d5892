package budget

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"quizforge/internal/llm"
	"quizforge/internal/store"
)

// ErrBudgetExceeded indicates a session ceiling would be exceeded by the
// next billable call. Fatal to the current request; never downgraded to
// the fabricator silently.
type ErrBudgetExceeded struct {
	Ceiling  string // "calls" or "cost"
	Limit    float64
	Current  float64
	Provider string
}

func (e *ErrBudgetExceeded) Error() string {
	return fmt.Sprintf("session %s ceiling reached for provider %q (limit %g, current %g)",
		e.Ceiling, e.Provider, e.Limit, e.Current)
}

// Limits are the per-session ceilings. Zero values mean zero allowance:
// a ceiling of 0 calls refuses the first billable call.
type Limits struct {
	MaxCalls       int
	MaxCostUSD     float64
	CallsPerMinute int // pacing for billable calls; 0 disables pacing
}

// DefaultLimits returns conservative session ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxCalls:       25,
		MaxCostUSD:     1.00,
		CallsPerMinute: 20,
	}
}

// CostSink receives one record per billable call. store.CostRepo and
// FileLedger both satisfy it.
type CostSink interface {
	Append(ctx context.Context, rec *store.CostRecord) error
}

// Guard enforces session-level call and cost ceilings around billable
// provider calls and appends one cost record per completed call.
// The compare-against-ceiling-then-count step is a critical section so
// concurrent requests sharing one Guard cannot overspend.
type Guard struct {
	limits  Limits
	limiter *rate.Limiter
	sinks   []CostSink

	mu      sync.Mutex
	calls   int
	spent   float64
	pending float64
}

// NewGuard creates a Guard with the given ceilings and cost sinks.
func NewGuard(limits Limits, sinks ...CostSink) *Guard {
	var limiter *rate.Limiter
	if limits.CallsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(limits.CallsPerMinute)/60.0), 1)
	}
	return &Guard{limits: limits, limiter: limiter, sinks: sinks}
}

// Reservation is one admitted call slot. The estimated cost counts
// against the cost ceiling until the reservation settles through Commit
// or Release, so overlapping calls cannot jointly overspend.
type Reservation struct {
	g         *Guard
	estimated float64
	settled   bool
}

// Reserve checks the ceilings for one more call with the given estimated
// cost and, if both pass, counts the call and holds the estimate against
// the cost ceiling. Returns ErrBudgetExceeded naming the ceiling that
// would be breached; in that case no call slot is consumed and nothing
// is logged.
func (g *Guard) Reserve(provider string, estimatedUSD float64) (*Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls+1 > g.limits.MaxCalls {
		return nil, &ErrBudgetExceeded{
			Ceiling:  "calls",
			Limit:    float64(g.limits.MaxCalls),
			Current:  float64(g.calls),
			Provider: provider,
		}
	}
	if g.spent+g.pending+estimatedUSD > g.limits.MaxCostUSD {
		return nil, &ErrBudgetExceeded{
			Ceiling:  "cost",
			Limit:    g.limits.MaxCostUSD,
			Current:  g.spent + g.pending,
			Provider: provider,
		}
	}

	g.calls++
	g.pending += estimatedUSD
	return &Reservation{g: g, estimated: estimatedUSD}, nil
}

// Commit settles the reservation with the actual cost of the completed
// call and appends one record to every sink. Sink failures are returned
// but do not undo the accounting (the money is already spent).
func (r *Reservation) Commit(ctx context.Context, rec *store.CostRecord) error {
	g := r.g
	g.mu.Lock()
	if !r.settled {
		r.settled = true
		g.pending -= r.estimated
		g.spent += rec.CostUSD
	}
	g.mu.Unlock()

	var firstErr error
	for _, sink := range g.sinks {
		if err := sink.Append(ctx, rec); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("append cost record: %w", err)
		}
	}
	return firstErr
}

// Release settles the reservation without spend, for calls that fail
// before producing a billable response. The call slot stays consumed.
func (r *Reservation) Release() {
	g := r.g
	g.mu.Lock()
	if !r.settled {
		r.settled = true
		g.pending -= r.estimated
	}
	g.mu.Unlock()
}

// Wait blocks until the rate limiter admits one more billable call.
func (g *Guard) Wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}

// Calls reports the number of billable calls counted so far.
func (g *Guard) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Spent reports the running USD total of committed calls.
func (g *Guard) Spent() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spent
}

// EstimateCost predicts the USD cost of one call from the prompt size and
// the requested question count, using the static pricing table. Input
// tokens are approximated at four characters per token; the output
// allowance scales with the question count.
func EstimateCost(model string, promptChars, questionCount int) float64 {
	cost := llm.LookupCost(model)
	if cost == nil {
		c := llm.DefaultCost()
		cost = &c
	}

	inputTokens := promptChars / 4
	outputTokens := 200
	if questionCount > 0 {
		outputTokens = questionCount * 150
	}
	return cost.Cost(inputTokens, outputTokens)
}

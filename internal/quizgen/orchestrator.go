package quizgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quizforge/internal/classroom"
)

// State is a named orchestrator state. The retry loop is an explicit
// state machine rather than an ad hoc counter loop so each transition is
// testable and the exhausted terminal case is unmistakable.
type State string

const (
	StateStart      State = "START"
	StateAnalyzing  State = "ANALYZING"
	StateGenerating State = "GENERATING"
	StateCritiquing State = "CRITIQUING"
	StateDone       State = "DONE"
)

// RunInput is one generation request.
type RunInput struct {
	Context *classroom.GenerationContext

	// Reference is optional raw reference material (a prior assessment
	// to mimic). Empty means topic-only generation, a valid first-class
	// input, not an error.
	Reference string
}

// Orchestrator ties the steps together: Analyst once, then Generator and
// Critic in a bounded retry loop, strictly sequential because each retry
// prompt depends on the immediately preceding critique.
type Orchestrator struct {
	analyst   *Analyst
	generator *Generator
	critic    *Critic
	cfg       Config
}

// NewOrchestrator assembles the pipeline from its steps.
func NewOrchestrator(analyst *Analyst, generator *Generator, critic *Critic, cfg Config) *Orchestrator {
	return &Orchestrator{analyst: analyst, generator: generator, critic: critic, cfg: cfg}
}

// Run executes one generation request to a terminal state. It returns a
// Result for both terminal outcomes (approved, or retries exhausted with
// the last produced draft and Approved=false) and an error only for
// fatal conditions (budget, approval, unrecoverable provider failure).
//
// Invariants: at most cfg.MaxAttempts Generator invocations; at most one
// Critic invocation per Generator invocation; the full attempt history is
// retained on the Result.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*Result, error) {
	result := &Result{RequestID: uuid.NewString()}

	var (
		state    = StateStart
		draft    *QuizDraft
		critique *CritiqueResult
		feedback *CritiqueResult
		attempt  int
	)

	for state != StateDone {
		switch state {
		case StateStart:
			state = StateAnalyzing

		case StateAnalyzing:
			profile, err := o.analyst.Profile(ctx, in.Context, in.Reference)
			if err != nil {
				return nil, fmt.Errorf("analyst: %w", err)
			}
			result.Profile = profile
			state = StateGenerating

		case StateGenerating:
			attempt++
			var err error
			draft, critique, err = o.generator.Draft(ctx, in.Context, result.Profile, feedback)
			if err != nil {
				return nil, fmt.Errorf("attempt %d: %w", attempt, err)
			}
			if critique != nil {
				// Malformed output: the synthetic rejection stands in
				// for the critic and consumes this attempt.
				state = o.recordAttempt(result, attempt, draft, critique, &feedback)
				continue
			}
			state = StateCritiquing

		case StateCritiquing:
			var err error
			critique, err = o.critic.Review(ctx, in.Context, result.Profile, draft)
			if err != nil {
				return nil, fmt.Errorf("attempt %d: %w", attempt, err)
			}
			state = o.recordAttempt(result, attempt, draft, critique, &feedback)
		}
	}

	return result, nil
}

// recordAttempt appends one attempt and decides the next state: DONE on
// approval, DONE on exhaustion (surfacing the last produced draft,
// unapproved), GENERATING otherwise with this critique as feedback.
func (o *Orchestrator) recordAttempt(result *Result, attempt int, draft *QuizDraft, critique *CritiqueResult, feedback **CritiqueResult) State {
	result.Attempts = append(result.Attempts, Attempt{
		Index:    attempt,
		Draft:    draft,
		Critique: critique,
	})
	if draft != nil {
		result.Draft = draft // last produced draft wins on exhaustion
	}

	if critique.Status == StatusApproved {
		result.Approved = true
		return StateDone
	}

	if attempt >= o.cfg.MaxAttempts {
		return StateDone
	}

	*feedback = critique
	return StateGenerating
}

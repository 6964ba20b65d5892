package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"quizforge/internal/llm"
)

func approvedJSON() json.RawMessage {
	return json.RawMessage(`{"approved":true,"violations":[]}`)
}

func rejectedJSON(category, detail string) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"approved":   false,
		"violations": []map[string]string{{"category": category, "detail": detail}},
	})
	return raw
}

// pipeline wires an orchestrator over separate generator and critic
// mocks, with no reference material so the analyst stays offline.
func pipeline(t *testing.T, generator, critic *llm.MockProvider) *Orchestrator {
	t.Helper()
	templates := testTemplates(t)
	cfg := DefaultConfig()
	return NewOrchestrator(
		NewAnalyst(llm.NewMockProvider(), templates, cfg),
		NewGenerator(generator, templates, cfg),
		NewCritic(critic, templates, cfg),
		cfg,
	)
}

func TestOrchestrator_ApprovedFirstAttempt(t *testing.T) {
	gen := llm.NewMockProvider(llm.MockResponse{Content: draftJSON(t, validDraft(3))})
	critic := llm.NewMockProvider(llm.MockResponse{Content: approvedJSON()})
	o := pipeline(t, gen, critic)

	result, err := o.Run(context.Background(), RunInput{Context: testContext()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Approved {
		t.Fatal("expected an approved result")
	}
	if result.RequestID == "" {
		t.Fatal("expected a request ID")
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Index != 1 {
		t.Fatalf("expected attempt index 1, got %d", result.Attempts[0].Index)
	}
	if result.Draft == nil || len(result.Draft.Questions) != 3 {
		t.Fatal("expected the approved draft on the result")
	}
	if result.Profile == nil {
		t.Fatal("expected the style profile on the result")
	}
	if gen.CallCount() != 1 || critic.CallCount() != 1 {
		t.Fatalf("expected 1 generator and 1 critic call, got %d/%d", gen.CallCount(), critic.CallCount())
	}
}

func TestOrchestrator_RejectionFeedsNextAttempt(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Content: draftJSON(t, validDraft(3))},
		llm.MockResponse{Content: draftJSON(t, validDraft(3))},
	)
	critic := llm.NewMockProvider(
		llm.MockResponse{Content: rejectedJSON("2.3", "distractors not plausible")},
		llm.MockResponse{Content: approvedJSON()},
	)
	o := pipeline(t, gen, critic)

	result, err := o.Run(context.Background(), RunInput{Context: testContext()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Approved {
		t.Fatal("expected approval on the second attempt")
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Critique.Status != StatusRejected {
		t.Fatal("expected the first attempt recorded as rejected")
	}

	// The retry prompt carries the first critique verbatim.
	retryPrompt := gen.Calls[1].Messages[0].Content
	if !strings.Contains(retryPrompt, "[2.3] distractors not plausible") {
		t.Fatalf("expected the violation in the retry prompt, got:\n%s", retryPrompt)
	}
}

func TestOrchestrator_ExhaustionReturnsLastDraftUnapproved(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Content: draftJSON(t, validDraft(2))},
		llm.MockResponse{Content: draftJSON(t, validDraft(3))},
		llm.MockResponse{Content: draftJSON(t, validDraft(4))},
	)
	critic := llm.NewMockProvider(
		llm.MockResponse{Content: rejectedJSON("1.1", "off curriculum")},
		llm.MockResponse{Content: rejectedJSON("1.1", "still off curriculum")},
		llm.MockResponse{Content: rejectedJSON("1.1", "yet again off curriculum")},
	)
	o := pipeline(t, gen, critic)

	result, err := o.Run(context.Background(), RunInput{Context: testContext()})
	if err != nil {
		t.Fatalf("exhaustion is a terminal result, not an error: %v", err)
	}

	if result.Approved {
		t.Fatal("expected an unapproved result")
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected exactly MaxAttempts attempts, got %d", len(result.Attempts))
	}
	// The last produced draft is surfaced for manual review.
	if len(result.Draft.Questions) != 4 {
		t.Fatalf("expected the third draft (4 questions), got %d", len(result.Draft.Questions))
	}
	if gen.CallCount() != 3 || critic.CallCount() != 3 {
		t.Fatalf("expected 3 generator and 3 critic calls, got %d/%d", gen.CallCount(), critic.CallCount())
	}
}

func TestOrchestrator_MalformedGenerationSkipsCriticAndConsumesAttempt(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("schema")}},
		llm.MockResponse{Content: draftJSON(t, validDraft(3))},
	)
	critic := llm.NewMockProvider(llm.MockResponse{Content: approvedJSON()})
	o := pipeline(t, gen, critic)

	result, err := o.Run(context.Background(), RunInput{Context: testContext()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Approved {
		t.Fatal("expected approval on the second attempt")
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("expected the malformed attempt to be counted, got %d attempts", len(result.Attempts))
	}
	if result.Attempts[0].Draft != nil {
		t.Fatal("the malformed attempt carries no draft")
	}
	if critic.CallCount() != 1 {
		t.Fatalf("the critic must not see malformed output, got %d calls", critic.CallCount())
	}
}

func TestOrchestrator_AllAttemptsMalformed(t *testing.T) {
	bad := llm.MockResponse{Err: &llm.ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("schema")}}
	gen := llm.NewMockProvider(bad, bad, bad)
	critic := llm.NewMockProvider()
	o := pipeline(t, gen, critic)

	result, err := o.Run(context.Background(), RunInput{Context: testContext()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Approved {
		t.Fatal("expected an unapproved result")
	}
	if result.Draft != nil {
		t.Fatal("no draft was ever produced")
	}
	if critic.CallCount() != 0 {
		t.Fatalf("expected no critic calls, got %d", critic.CallCount())
	}
}

func TestOrchestrator_GeneratorProviderFailureIsFatal(t *testing.T) {
	gen := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	o := pipeline(t, gen, llm.NewMockProvider())

	_, err := o.Run(context.Background(), RunInput{Context: testContext()})
	if err == nil {
		t.Fatal("expected a fatal error")
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable in the chain, got: %v", err)
	}
}

func TestOrchestrator_AttemptHistoryOrdered(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Content: draftJSON(t, validDraft(3))},
		llm.MockResponse{Content: draftJSON(t, validDraft(3))},
	)
	critic := llm.NewMockProvider(
		llm.MockResponse{Content: rejectedJSON("2.1", "stem ambiguous")},
		llm.MockResponse{Content: approvedJSON()},
	)
	o := pipeline(t, gen, critic)

	result, err := o.Run(context.Background(), RunInput{Context: testContext()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, a := range result.Attempts {
		if a.Index != i+1 {
			t.Fatalf("expected attempt %d at position %d, got index %d", i+1, i, a.Index)
		}
	}
}

func TestOrchestrator_UniqueRequestIDs(t *testing.T) {
	run := func() string {
		gen := llm.NewMockProvider(llm.MockResponse{Content: draftJSON(t, validDraft(1))})
		critic := llm.NewMockProvider(llm.MockResponse{Content: approvedJSON()})
		result, err := pipeline(t, gen, critic).Run(context.Background(), RunInput{Context: testContext()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result.RequestID
	}
	if run() == run() {
		t.Fatal("request IDs must be unique per run")
	}
}

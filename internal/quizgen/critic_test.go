package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"quizforge/internal/llm"
)

func TestCritic_ApprovedVerdict(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"approved":true,"violations":[]}`),
	})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	result, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", result.Status)
	}
	if len(result.Violations) != 0 {
		t.Fatalf("approval carries no violations, got %d", len(result.Violations))
	}
}

func TestCritic_RejectedVerdictKeepsViolations(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"approved":false,"violations":[{"category":"2.3","detail":"distractors not plausible"},{"category":"1.1","detail":"question 3 not covered in class"}]}`),
	})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	result, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatalf("expected REJECTED, got %s", result.Status)
	}
	if len(result.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(result.Violations))
	}
	if result.Violations[0].Category != "2.3" {
		t.Fatalf("expected category '2.3', got %q", result.Violations[0].Category)
	}
}

func TestCritic_ProseVerdictRejectsAsUnparseable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`"This quiz looks good overall, nice work!"`),
	})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	result, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(3))
	if err != nil {
		t.Fatalf("ambiguous critic output must not be fatal: %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatalf("expected fail-closed rejection, got %s", result.Status)
	}
	if result.Violations[0].Detail != "unparseable critique" {
		t.Fatalf("expected 'unparseable critique', got %q", result.Violations[0].Detail)
	}
}

func TestCritic_ApprovalWithFindingsRejects(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"approved":true,"violations":[{"category":"2.1","detail":"stem ambiguous"}]}`),
	})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	result, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatal("an approval carrying findings is contradictory and must reject")
	}
}

func TestCritic_RejectionWithoutFindingsRejectsAsUnparseable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"approved":false,"violations":[]}`),
	})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	result, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Violations[0].Detail != "unparseable critique" {
		t.Fatalf("expected 'unparseable critique', got %q", result.Violations[0].Detail)
	}
}

func TestCritic_SchemaInvalidResponseRejects(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrInvalidResponse{Content: json.RawMessage(`nope`), Err: errors.New("schema")},
	})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	result, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(3))
	if err != nil {
		t.Fatalf("schema-invalid critic output must not be fatal: %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatalf("expected rejection, got %s", result.Status)
	}
}

func TestCritic_DraftMustRoundTripItsSchema(t *testing.T) {
	bad := validDraft(1)
	bad.Questions[0].CognitiveLevel = "guessing" // outside the schema enum
	mock := llm.NewMockProvider()
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	result, err := c.Review(context.Background(), testContext(), testProfile(), bad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatalf("expected rejection for a schema-breaking draft, got %s", result.Status)
	}
	if mock.CallCount() != 0 {
		t.Fatalf("expected no provider call for a schema-breaking draft, got %d", mock.CallCount())
	}
}

func TestCritic_PromptEmbedsDraftAndTargets(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"approved":true,"violations":[]}`),
	})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	if _, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, "Which organelle produces energy?") {
		t.Fatalf("expected the draft embedded in the critic prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Grade: 7") {
		t.Fatalf("expected class context in the critic prompt, got:\n%s", prompt)
	}
}

func TestCritic_ProviderFailureIsFatal(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	c := NewCritic(mock, testTemplates(t), DefaultConfig())

	_, err := c.Review(context.Background(), testContext(), testProfile(), validDraft(1))
	if err == nil {
		t.Fatal("expected a fatal error for a provider failure")
	}
}

package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quizforge/internal/classroom"
	"quizforge/internal/llm"
	"quizforge/internal/prompts"
)

const criticSystemPrompt = `You review draft quizzes against a fixed rubric.
Judge only against the class context and structural targets in the prompt;
never against outside knowledge. Be specific: every violation names its rubric
category and says exactly what is wrong. Approve only a draft with no findings.`

// unparseableViolation is the fail-closed verdict for critic output that
// is neither an approval nor a structured violation list. Approval must
// be explicit; ambiguity is rejection.
var unparseableViolation = Violation{Category: "critique", Detail: "unparseable critique"}

// Critic validates a draft against the rubric and returns an
// approve/reject verdict with itemized feedback.
type Critic struct {
	provider  llm.Provider
	templates *prompts.Set
	cfg       Config
}

// NewCritic creates the critic step.
func NewCritic(provider llm.Provider, templates *prompts.Set, cfg Config) *Critic {
	return &Critic{provider: provider, templates: templates, cfg: cfg}
}

// critiqueOutput is the raw model verdict before fail-closed normalization.
type critiqueOutput struct {
	Approved   bool        `json:"approved"`
	Violations []Violation `json:"violations"`
}

// Review critiques one draft. The returned error is reserved for provider
// failures; every parse or shape problem in the model's verdict becomes a
// REJECTED result instead.
func (c *Critic) Review(ctx context.Context, gc *classroom.GenerationContext, profile *StyleProfile, draft *QuizDraft) (*CritiqueResult, error) {
	ctx = llm.WithPurpose(ctx, "critic")

	draftJSON, err := draft.MarshalJSONDraft()
	if err != nil {
		return nil, err
	}

	// Schema stability: anything the generator produced must re-validate
	// against the same draft schema the providers enforce.
	if err := llm.ValidateAgainst(QuizDraftSchema, draftJSON); err != nil {
		return Rejected(Violation{
			Category: "generation",
			Detail:   fmt.Sprintf("%s: draft does not round-trip its schema", generationViolation),
		}), nil
	}

	userMsg, err := c.templates.Render("critic", buildCriticData(gc, profile, string(draftJSON)))
	if err != nil {
		return nil, fmt.Errorf("build critic prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      criticSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      CritiqueSchema,
		MaxTokens:   c.cfg.CriticMaxTokens,
		Temperature: c.cfg.CriticTemperature,
	})
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return Rejected(unparseableViolation), nil
		}
		return nil, fmt.Errorf("draft critique: %w", err)
	}

	return normalizeVerdict(resp.Content), nil
}

// normalizeVerdict turns raw critic output into a CritiqueResult,
// fail-closed: only an explicit approval with zero violations approves;
// an explicit rejection needs at least one violation; every other shape
// (prose, approval with findings, rejection without findings) rejects as
// unparseable.
func normalizeVerdict(raw json.RawMessage) *CritiqueResult {
	var out critiqueOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return Rejected(unparseableViolation)
	}

	switch {
	case out.Approved && len(out.Violations) == 0:
		return Approved()
	case !out.Approved && len(out.Violations) > 0:
		return Rejected(out.Violations...)
	default:
		return Rejected(unparseableViolation)
	}
}

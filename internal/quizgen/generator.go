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

const generatorSystemPrompt = `You write quiz questions for a teacher's class.
Work only from the class context in the prompt: the listed topics, lesson
summaries, and standards. Do not introduce facts from outside that context.
Every question must be self-contained, test a single idea, and use vocabulary
appropriate for the stated grade. Follow the structural targets exactly.`

// generationViolation is the violation text used when model output cannot
// be turned into a valid draft. Consumes a retry attempt instead of
// failing the request.
const generationViolation = "malformed generation output"

// Generator turns a context and style profile (plus prior critique
// feedback, when retrying) into a draft question set.
type Generator struct {
	provider  llm.Provider
	templates *prompts.Set
	cfg       Config
}

// NewGenerator creates the generator step.
func NewGenerator(provider llm.Provider, templates *prompts.Set, cfg Config) *Generator {
	return &Generator{provider: provider, templates: templates, cfg: cfg}
}

// Draft produces one candidate quiz. Returns exactly one of:
//   - (draft, nil, nil): a structurally valid draft
//   - (nil, rejection, nil): model output was malformed; the rejection is
//     a synthetic CritiqueResult that consumes one attempt
//   - (nil, nil, err): the provider itself failed (network/auth/budget)
func (g *Generator) Draft(ctx context.Context, gc *classroom.GenerationContext, profile *StyleProfile, feedback *CritiqueResult) (*QuizDraft, *CritiqueResult, error) {
	ctx = llm.WithPurpose(ctx, "generator")

	userMsg, err := g.templates.Render("generator", buildGeneratorData(gc, profile, feedback))
	if err != nil {
		return nil, nil, fmt.Errorf("build generator prompt: %w", err)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      generatorSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      QuizDraftSchema,
		MaxTokens:   g.cfg.GeneratorMaxTokens,
		Temperature: g.cfg.GeneratorTemperature,
	})
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return nil, malformed("response failed draft schema validation"), nil
		}
		return nil, nil, fmt.Errorf("draft generation: %w", err)
	}

	var draft QuizDraft
	if err := json.Unmarshal(resp.Content, &draft); err != nil {
		return nil, malformed("response is not a draft JSON object"), nil
	}

	if v := validateDraft(&draft); v != nil {
		return nil, v, nil
	}

	return &draft, nil, nil
}

func malformed(detail string) *CritiqueResult {
	return Rejected(Violation{
		Category: "generation",
		Detail:   fmt.Sprintf("%s: %s", generationViolation, detail),
	})
}

// validateDraft runs the structural checks the generator owns (the critic
// judges content, not well-formedness): recognized type tags, exactly one
// correct option on choice types, non-empty stems.
func validateDraft(draft *QuizDraft) *CritiqueResult {
	if len(draft.Questions) == 0 {
		return malformed("draft contains no questions")
	}

	for i, q := range draft.Questions {
		if !classroom.IsKnownType(q.Type) {
			return malformed(fmt.Sprintf("question %d has unknown type %q", i+1, q.Type))
		}
		if q.Stem == "" {
			return malformed(fmt.Sprintf("question %d has an empty stem", i+1))
		}
		if classroom.IsChoiceType(q.Type) {
			correct := 0
			for _, opt := range q.Options {
				if opt.Correct {
					correct++
				}
			}
			if correct != 1 {
				return malformed(fmt.Sprintf("question %d has %d correct options, want exactly 1", i+1, correct))
			}
			if len(q.Options) < 2 {
				return malformed(fmt.Sprintf("question %d has %d options, want at least 2", i+1, len(q.Options)))
			}
		}
	}
	return nil
}

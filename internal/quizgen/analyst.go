package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"quizforge/internal/classroom"
	"quizforge/internal/llm"
	"quizforge/internal/prompts"
)

const analystSystemPrompt = `You analyze existing assessments for their structure only.
Report exactly what the reference material shows: how many questions, what mix of
question types, how many reference images, and how demanding the questions read.
Do not judge content quality and do not invent structure that is not there.`

// Analyst derives the structural style profile that steers generation.
// With reference material it asks the model to extract the structure;
// without, the profile is computed from the request alone: no model
// call, no budget spent analyzing nothing.
type Analyst struct {
	provider  llm.Provider
	templates *prompts.Set
	cfg       Config
}

// NewAnalyst creates the analyst step.
func NewAnalyst(provider llm.Provider, templates *prompts.Set, cfg Config) *Analyst {
	return &Analyst{provider: provider, templates: templates, cfg: cfg}
}

// Profile produces the StyleProfile for one request. Analyst failures are
// never fatal: any provider, parse, or validation problem falls back to
// the deterministic profile.
func (a *Analyst) Profile(ctx context.Context, gc *classroom.GenerationContext, reference string) (*StyleProfile, error) {
	if reference == "" {
		return DeterministicProfile(gc), nil
	}

	profile, err := a.fromReference(ctx, gc, reference)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: style analysis failed, using deterministic profile: %v\n", err)
		return DeterministicProfile(gc), nil
	}
	return profile, nil
}

func (a *Analyst) fromReference(ctx context.Context, gc *classroom.GenerationContext, reference string) (*StyleProfile, error) {
	ctx = llm.WithPurpose(ctx, "analyst")

	userMsg, err := a.templates.Render("analyst", analystData{
		Types:     gc.AllowedTypes,
		Reference: reference,
	})
	if err != nil {
		return nil, err
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System:    analystSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:    StyleProfileSchema,
		MaxTokens: a.cfg.AnalystMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("style analysis: %w", err)
	}

	var profile StyleProfile
	if err := json.Unmarshal(resp.Content, &profile); err != nil {
		return nil, fmt.Errorf("parse style profile: %w", err)
	}
	if err := profile.Valid(); err != nil {
		return nil, fmt.Errorf("style profile invalid: %w", err)
	}
	return &profile, nil
}

// difficultyDescriptors maps the 1-5 difficulty scale to the descriptor
// used when no reference material informs one.
var difficultyDescriptors = map[int]string{
	1: "foundational recall",
	2: "guided practice",
	3: "grade-level application",
	4: "multi-step reasoning",
	5: "stretch analysis",
}

// DeterministicProfile computes a StyleProfile from the request context
// alone: the requested count, a uniform mix over the allowed types, and
// no images.
func DeterministicProfile(gc *classroom.GenerationContext) *StyleProfile {
	types := gc.AllowedTypes
	if len(types) == 0 {
		types = classroom.QuestionTypes
	}

	dist := make(map[string]float64, len(types))
	share := 1.0 / float64(len(types))
	total := 0.0
	for i, t := range types {
		p := share
		if i == len(types)-1 {
			p = 1.0 - total // absorb rounding so the sum is exact
		}
		dist[t] = p
		total += p
	}

	descriptor := difficultyDescriptors[gc.Difficulty]
	if descriptor == "" {
		descriptor = difficultyDescriptors[classroom.DefaultDifficulty]
	}

	return &StyleProfile{
		QuestionCount:        gc.QuestionCount,
		TypeDistribution:     dist,
		ImageRatio:           0.0,
		DifficultyDescriptor: descriptor,
	}
}

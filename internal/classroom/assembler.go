package classroom

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"quizforge/internal/knowledge"
	"quizforge/internal/store"
)

// ClassReader is the slice of the store the Assembler needs.
type ClassReader interface {
	Get(ctx context.Context, id string) (*store.Class, error)
}

// KnowledgeSource supplies lesson history and assumed-knowledge depths.
// *knowledge.Tracker is the production implementation.
type KnowledgeSource interface {
	RecentLessons(ctx context.Context, classID string, since time.Time) ([]knowledge.LessonSummary, error)
	AssumedKnowledge(ctx context.Context, classID string, since time.Time) (map[string]int, error)
}

// DefaultLookback is the lesson history window.
const DefaultLookback = 14 * 24 * time.Hour

// Assembler builds a GenerationContext from stored class state, lesson
// history, and request parameters. Assembly is deterministic: identical
// stored state and parameters produce identical contexts.
type Assembler struct {
	classes   ClassReader
	knowledge KnowledgeSource

	// Lookback bounds the lesson history window. Defaults to 14 days.
	Lookback time.Duration

	// Now is the clock the window is anchored to. Overridable in tests.
	Now func() time.Time
}

// NewAssembler creates an Assembler over the given collaborators.
func NewAssembler(classes ClassReader, ks KnowledgeSource) *Assembler {
	return &Assembler{
		classes:   classes,
		knowledge: ks,
		Lookback:  DefaultLookback,
		Now:       time.Now,
	}
}

// Assemble builds the GenerationContext for one request. A class with no
// logged lessons yields an empty topic/depth mapping and empty lesson
// list: never an error; the pipeline proceeds on class configuration
// alone.
func (a *Assembler) Assemble(ctx context.Context, classID string, params RequestParams) (*GenerationContext, error) {
	class, err := a.classes.Get(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("read class %q: %w", classID, err)
	}

	since := a.Now().Add(-a.Lookback)

	lessons, err := a.knowledge.RecentLessons(ctx, classID, since)
	if err != nil {
		return nil, fmt.Errorf("read lesson history: %w", err)
	}

	depths, err := a.knowledge.AssumedKnowledge(ctx, classID, since)
	if err != nil {
		return nil, fmt.Errorf("read assumed knowledge: %w", err)
	}
	if depths == nil {
		depths = map[string]int{}
	}

	gc := &GenerationContext{
		ClassID:       class.ID,
		Grade:         class.Grade,
		Subject:       class.Subject,
		Standards:     append([]string(nil), class.Standards...),
		RecentLessons: lessons,
		TopicDepths:   depths,
		QuestionCount: DefaultQuestionCount,
		Difficulty:    DefaultDifficulty,
		CognitiveMix:  maps.Clone(defaultCognitiveMix),
		AllowedTypes:  append([]string(nil), QuestionTypes...),
	}

	// Request overrides win over class defaults.
	if params.QuestionCount > 0 {
		gc.QuestionCount = params.QuestionCount
	}
	if params.Difficulty > 0 {
		gc.Difficulty = params.Difficulty
	}
	if params.GradeOverride > 0 {
		gc.Grade = params.GradeOverride
	}
	if len(params.StandardsOverride) > 0 {
		gc.Standards = append([]string(nil), params.StandardsOverride...)
	}
	if len(params.AllowedTypes) > 0 {
		gc.AllowedTypes = append([]string(nil), params.AllowedTypes...)
	}
	if len(params.CognitiveMix) > 0 {
		gc.CognitiveMix = maps.Clone(params.CognitiveMix)
	}

	return gc, nil
}

// Topics returns the context's topic names in deterministic (sorted)
// order, for prompt building.
func (gc *GenerationContext) Topics() []string {
	out := make([]string, 0, len(gc.TopicDepths))
	for t := range gc.TopicDepths {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

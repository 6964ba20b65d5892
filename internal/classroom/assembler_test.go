package classroom

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"quizforge/internal/knowledge"
	"quizforge/internal/store"
)

type fakeClasses struct {
	classes map[string]*store.Class
}

func (f *fakeClasses) Get(_ context.Context, id string) (*store.Class, error) {
	if c, ok := f.classes[id]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

type fakeKnowledge struct {
	lessons []knowledge.LessonSummary
	depths  map[string]int
	since   time.Time // records the window the assembler asked for
}

func (f *fakeKnowledge) RecentLessons(_ context.Context, classID string, since time.Time) ([]knowledge.LessonSummary, error) {
	f.since = since
	return f.lessons, nil
}

func (f *fakeKnowledge) AssumedKnowledge(_ context.Context, classID string, since time.Time) (map[string]int, error) {
	return f.depths, nil
}

func testAssembler(ks *fakeKnowledge) *Assembler {
	classes := &fakeClasses{classes: map[string]*store.Class{
		"class-1": {
			ID:        "class-1",
			Name:      "Period 3 Science",
			Grade:     7,
			Subject:   "science",
			Standards: []string{"MS-LS1-1", "MS-LS1-2"},
		},
	}}
	a := NewAssembler(classes, ks)
	a.Now = func() time.Time { return time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestAssemble_ClassDefaults(t *testing.T) {
	ks := &fakeKnowledge{
		lessons: []knowledge.LessonSummary{{Topic: "cells"}},
		depths:  map[string]int{"cells": 2},
	}
	a := testAssembler(ks)

	gc, err := a.Assemble(context.Background(), "class-1", RequestParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gc.Grade != 7 || gc.Subject != "science" {
		t.Fatalf("expected class config carried over, got grade %d subject %q", gc.Grade, gc.Subject)
	}
	if gc.QuestionCount != DefaultQuestionCount {
		t.Fatalf("expected default count %d, got %d", DefaultQuestionCount, gc.QuestionCount)
	}
	if gc.Difficulty != DefaultDifficulty {
		t.Fatalf("expected default difficulty %d, got %d", DefaultDifficulty, gc.Difficulty)
	}
	if !reflect.DeepEqual(gc.AllowedTypes, QuestionTypes) {
		t.Fatalf("expected the full type set by default, got %v", gc.AllowedTypes)
	}
	if gc.TopicDepths["cells"] != 2 {
		t.Fatalf("expected topic depths from the knowledge source, got %v", gc.TopicDepths)
	}
}

func TestAssemble_OverridesWin(t *testing.T) {
	ks := &fakeKnowledge{depths: map[string]int{}}
	a := testAssembler(ks)

	gc, err := a.Assemble(context.Background(), "class-1", RequestParams{
		QuestionCount:     15,
		Difficulty:        5,
		GradeOverride:     8,
		StandardsOverride: []string{"MS-LS2-1"},
		AllowedTypes:      []string{"short_answer"},
		CognitiveMix:      map[string]float64{"analyze": 1.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gc.QuestionCount != 15 {
		t.Fatalf("expected count 15, got %d", gc.QuestionCount)
	}
	if gc.Difficulty != 5 {
		t.Fatalf("expected difficulty 5, got %d", gc.Difficulty)
	}
	if gc.Grade != 8 {
		t.Fatalf("expected grade override 8, got %d", gc.Grade)
	}
	if !reflect.DeepEqual(gc.Standards, []string{"MS-LS2-1"}) {
		t.Fatalf("expected standards override, got %v", gc.Standards)
	}
	if !reflect.DeepEqual(gc.AllowedTypes, []string{"short_answer"}) {
		t.Fatalf("expected allowed types override, got %v", gc.AllowedTypes)
	}
	if gc.CognitiveMix["analyze"] != 1.0 {
		t.Fatalf("expected cognitive mix override, got %v", gc.CognitiveMix)
	}
}

func TestAssemble_ContextsDoNotShareMaps(t *testing.T) {
	ks := &fakeKnowledge{depths: map[string]int{}}
	a := testAssembler(ks)

	first, err := a.Assemble(context.Background(), "class-1", RequestParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Mutating one context must not leak into later assemblies.
	first.CognitiveMix["remember"] = 0.99

	second, err := a.Assemble(context.Background(), "class-1", RequestParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.CognitiveMix["remember"] == 0.99 {
		t.Fatal("expected a fresh cognitive mix per context")
	}
	if reflect.DeepEqual(first.CognitiveMix, second.CognitiveMix) {
		t.Fatal("expected the mutation to stay local to the first context")
	}
}

func TestAssemble_EmptyHistoryIsNotAnError(t *testing.T) {
	ks := &fakeKnowledge{lessons: nil, depths: nil}
	a := testAssembler(ks)

	gc, err := a.Assemble(context.Background(), "class-1", RequestParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gc.RecentLessons) != 0 {
		t.Fatalf("expected no lessons, got %d", len(gc.RecentLessons))
	}
	if gc.TopicDepths == nil {
		t.Fatal("expected an empty map, not nil")
	}
}

func TestAssemble_UnknownClass(t *testing.T) {
	a := testAssembler(&fakeKnowledge{})

	_, err := a.Assemble(context.Background(), "missing", RequestParams{})
	if err == nil {
		t.Fatal("expected error for unknown class")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound in the chain, got: %v", err)
	}
}

func TestAssemble_LookbackWindowAnchoredToNow(t *testing.T) {
	ks := &fakeKnowledge{depths: map[string]int{}}
	a := testAssembler(ks)
	a.Lookback = 7 * 24 * time.Hour

	if _, err := a.Assemble(context.Background(), "class-1", RequestParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := a.Now().Add(-7 * 24 * time.Hour)
	if !ks.since.Equal(want) {
		t.Fatalf("expected window since %v, got %v", want, ks.since)
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	ks := &fakeKnowledge{
		lessons: []knowledge.LessonSummary{{Topic: "cells"}, {Topic: "osmosis"}},
		depths:  map[string]int{"cells": 2, "osmosis": 1},
	}
	a := testAssembler(ks)

	first, err := a.Assemble(context.Background(), "class-1", RequestParams{QuestionCount: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Assemble(context.Background(), "class-1", RequestParams{QuestionCount: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must assemble identical contexts")
	}
}

func TestTopics_Sorted(t *testing.T) {
	gc := &GenerationContext{TopicDepths: map[string]int{"osmosis": 1, "cells": 3, "diffusion": 2}}
	got := gc.Topics()
	want := []string{"cells", "diffusion", "osmosis"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sorted topics %v, got %v", want, got)
	}
}

func TestIsChoiceType(t *testing.T) {
	if !IsChoiceType("multiple_choice") || !IsChoiceType("true_false") {
		t.Fatal("choice types must include multiple_choice and true_false")
	}
	if IsChoiceType("short_answer") {
		t.Fatal("short_answer is not a choice type")
	}
}

func TestIsKnownType(t *testing.T) {
	for _, typ := range QuestionTypes {
		if !IsKnownType(typ) {
			t.Fatalf("expected %q to be known", typ)
		}
	}
	if IsKnownType("essay") {
		t.Fatal("essay is outside the closed type set")
	}
}

package quizgen

import (
	"fmt"
	"sort"

	"quizforge/internal/classroom"
)

// Template data shapes for internal/prompts. Maps are flattened into
// sorted slices so rendered prompts are deterministic.

type typeTarget struct {
	Type    string
	Percent float64
}

type topicDepth struct {
	Topic string
	Depth int
}

type levelShare struct {
	Level   string
	Percent float64
}

type analystData struct {
	Types     []string
	Reference string
}

type generatorData struct {
	Subject              string
	Grade                int
	Difficulty           int
	DifficultyDescriptor string
	Standards            []string
	QuestionCount        int
	Topics               []string
	TopicDepths          []topicDepth
	Lessons              []string
	AllowedTypes         []string
	TypeTargets          []typeTarget
	ImageRatio           float64
	CognitiveMix         []levelShare
	Feedback             []string
}

type criticData struct {
	Subject       string
	Grade         int
	Standards     []string
	Topics        []string
	QuestionCount int
	ImageRatio    float64
	TypeTargets   []typeTarget
	DraftJSON     string
}

func buildGeneratorData(gc *classroom.GenerationContext, profile *StyleProfile, feedback *CritiqueResult) generatorData {
	d := generatorData{
		Subject:              gc.Subject,
		Grade:                gc.Grade,
		Difficulty:           gc.Difficulty,
		DifficultyDescriptor: profile.DifficultyDescriptor,
		Standards:            gc.Standards,
		QuestionCount:        profile.QuestionCount,
		Topics:               gc.Topics(),
		TopicDepths:          sortedDepths(gc.TopicDepths),
		Lessons:              lessonLines(gc),
		AllowedTypes:         gc.AllowedTypes,
		TypeTargets:          sortedTargets(profile.TypeDistribution),
		ImageRatio:           profile.ImageRatio,
		CognitiveMix:         sortedLevels(gc.CognitiveMix),
	}
	if feedback != nil {
		for _, v := range feedback.Violations {
			d.Feedback = append(d.Feedback, v.String())
		}
	}
	return d
}

func buildCriticData(gc *classroom.GenerationContext, profile *StyleProfile, draftJSON string) criticData {
	return criticData{
		Subject:       gc.Subject,
		Grade:         gc.Grade,
		Standards:     gc.Standards,
		Topics:        gc.Topics(),
		QuestionCount: profile.QuestionCount,
		ImageRatio:    profile.ImageRatio,
		TypeTargets:   sortedTargets(profile.TypeDistribution),
		DraftJSON:     draftJSON,
	}
}

func sortedTargets(dist map[string]float64) []typeTarget {
	out := make([]typeTarget, 0, len(dist))
	for t, p := range dist {
		out = append(out, typeTarget{Type: t, Percent: p * 100})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func sortedDepths(depths map[string]int) []topicDepth {
	out := make([]topicDepth, 0, len(depths))
	for t, d := range depths {
		out = append(out, topicDepth{Topic: t, Depth: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

func sortedLevels(mix map[string]float64) []levelShare {
	out := make([]levelShare, 0, len(mix))
	for l, p := range mix {
		out = append(out, levelShare{Level: l, Percent: p * 100})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

func lessonLines(gc *classroom.GenerationContext) []string {
	out := make([]string, 0, len(gc.RecentLessons))
	for _, l := range gc.RecentLessons {
		line := l.Topic
		if l.Summary != "" {
			line = fmt.Sprintf("%s: %s", l.Topic, l.Summary)
		}
		out = append(out, line)
	}
	return out
}

package knowledge

import (
	"context"
	"strings"
	"time"

	"quizforge/internal/store"
)

// LessonSummary is one taught lesson as seen by the pipeline.
type LessonSummary struct {
	Topic     string
	Summary   string
	TaughtAt  time.Time
	Standards []string
}

// Tracker derives assumed-knowledge depth per topic from lesson
// recurrence: a topic taught repeatedly and recently is assumed to be
// known more deeply than one mentioned once two weeks ago.
type Tracker struct {
	lessons store.LessonRepo

	// Now is the clock used for recency checks. Overridable in tests.
	Now func() time.Time
}

// NewTracker creates a Tracker over the given lesson history.
func NewTracker(lessons store.LessonRepo) *Tracker {
	return &Tracker{lessons: lessons, Now: time.Now}
}

// RecentLessons returns summaries of lessons taught at or after since,
// oldest first. A class with no logged lessons yields an empty slice,
// not an error.
func (t *Tracker) RecentLessons(ctx context.Context, classID string, since time.Time) ([]LessonSummary, error) {
	rows, err := t.lessons.ListSince(ctx, classID, since)
	if err != nil {
		return nil, err
	}

	out := make([]LessonSummary, 0, len(rows))
	for _, l := range rows {
		out = append(out, LessonSummary{
			Topic:     l.Topic,
			Summary:   l.Summary,
			TaughtAt:  l.TaughtAt,
			Standards: l.Standards,
		})
	}
	return out, nil
}

// recencyBoostWindow is how fresh a topic's latest lesson must be to earn
// an extra depth point.
const recencyBoostWindow = 3 * 24 * time.Hour

// AssumedKnowledge returns a depth estimate (1-5) per topic taught at or
// after since. Depth starts at the number of lessons covering the topic
// and gains one point when the topic was touched within the last three
// days, clamped to [1,5]. Topic names are matched case-insensitively but
// reported in their most recent spelling.
func (t *Tracker) AssumedKnowledge(ctx context.Context, classID string, since time.Time) (map[string]int, error) {
	rows, err := t.lessons.ListSince(ctx, classID, since)
	if err != nil {
		return nil, err
	}

	now := t.Now()
	counts := make(map[string]int)
	latest := make(map[string]time.Time)
	names := make(map[string]string) // lower-cased key → display name

	for _, l := range rows {
		key := strings.ToLower(strings.TrimSpace(l.Topic))
		if key == "" {
			continue
		}
		counts[key]++
		if l.TaughtAt.After(latest[key]) {
			latest[key] = l.TaughtAt
			names[key] = strings.TrimSpace(l.Topic)
		}
	}

	depths := make(map[string]int, len(counts))
	for key, n := range counts {
		depth := n
		if now.Sub(latest[key]) <= recencyBoostWindow {
			depth++
		}
		if depth < 1 {
			depth = 1
		}
		if depth > 5 {
			depth = 5
		}
		depths[names[key]] = depth
	}
	return depths, nil
}

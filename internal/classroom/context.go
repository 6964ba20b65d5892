package classroom

import (
	"quizforge/internal/knowledge"
)

// QuestionTypes is the closed set of question type tags the pipeline
// generates and validates.
var QuestionTypes = []string{
	"multiple_choice",
	"true_false",
	"matching",
	"ordering",
	"short_answer",
	"fill_in_blank",
}

// IsChoiceType reports whether a type tag carries an option list with
// exactly one correct marker.
func IsChoiceType(t string) bool {
	return t == "multiple_choice" || t == "true_false"
}

// IsKnownType reports whether t is in the closed type set.
func IsKnownType(t string) bool {
	for _, k := range QuestionTypes {
		if t == k {
			return true
		}
	}
	return false
}

// GenerationContext is the immutable per-request input to the pipeline.
// Built once by the Assembler, read-only afterward.
type GenerationContext struct {
	ClassID   string
	Grade     int
	Subject   string
	Standards []string // ordered standard codes

	// RecentLessons is the lesson history inside the lookback window,
	// oldest first. Empty when the class has no logged lessons.
	RecentLessons []knowledge.LessonSummary

	// TopicDepths maps topic name → assumed-knowledge depth (1-5).
	TopicDepths map[string]int

	QuestionCount int
	Difficulty    int // 1-5

	// CognitiveMix is the required distribution across taxonomy levels,
	// level → proportion.
	CognitiveMix map[string]float64

	// AllowedTypes restricts which question types may be generated.
	AllowedTypes []string
}

// RequestParams are the per-request overrides layered on top of class
// defaults. An override always wins over the stored configuration.
type RequestParams struct {
	QuestionCount     int
	Difficulty        int
	GradeOverride     int
	StandardsOverride []string
	AllowedTypes      []string
	CognitiveMix      map[string]float64
}

// DefaultQuestionCount is used when the request does not specify one.
const DefaultQuestionCount = 10

// DefaultDifficulty is used when the request does not specify one.
const DefaultDifficulty = 3

// defaultCognitiveMix is applied when neither class nor request supplies
// a taxonomy distribution.
var defaultCognitiveMix = map[string]float64{
	"remember":   0.3,
	"understand": 0.3,
	"apply":      0.2,
	"analyze":    0.2,
}

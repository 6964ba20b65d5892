package quizgen

import (
	"encoding/json"
	"fmt"
)

// StyleProfile is the structural target a draft must match: how many
// questions, which type mix, how image-heavy. Independent of content
// correctness. Never mutated after the Analyst produces it; persisted
// alongside the quiz for audit.
type StyleProfile struct {
	QuestionCount        int                `json:"question_count"`
	TypeDistribution     map[string]float64 `json:"type_distribution"`
	ImageRatio           float64            `json:"image_ratio"`
	DifficultyDescriptor string             `json:"difficulty_descriptor"`
}

// distributionTolerance is the allowed deviation of the type
// distribution's sum from 1.0.
const distributionTolerance = 0.05

// Valid checks the profile invariants: proportions sum to 1.0 within
// tolerance and the image ratio is within [0,1].
func (p *StyleProfile) Valid() error {
	if p.QuestionCount <= 0 {
		return fmt.Errorf("question_count must be positive, got %d", p.QuestionCount)
	}
	sum := 0.0
	for _, prop := range p.TypeDistribution {
		sum += prop
	}
	if sum < 1.0-distributionTolerance || sum > 1.0+distributionTolerance {
		return fmt.Errorf("type_distribution sums to %.3f, want 1.0", sum)
	}
	if p.ImageRatio < 0 || p.ImageRatio > 1 {
		return fmt.Errorf("image_ratio %.3f outside [0,1]", p.ImageRatio)
	}
	return nil
}

// Option is one answer option of a choice-type question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// QuestionDraft is one candidate question. For choice types the options
// carry exactly one correct marker; other types use the Answer field for
// their structured answer.
type QuestionDraft struct {
	Type             string   `json:"type"`
	Stem             string   `json:"stem"`
	Options          []Option `json:"options"`
	Answer           string   `json:"answer"`
	Explanation      string   `json:"explanation"`
	CognitiveLevel   string   `json:"cognitive_level"`
	ImageDescription string   `json:"image_description"`
}

// QuizDraft is an ordered question list; insertion order is display order.
type QuizDraft struct {
	Questions []QuestionDraft `json:"questions"`
}

// MarshalJSONDraft serializes a draft exactly as the wire format the
// providers emit, so it can be re-validated against the draft schema.
func (d *QuizDraft) MarshalJSONDraft() (json.RawMessage, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal quiz draft: %w", err)
	}
	return raw, nil
}

// CritiqueStatus is the critic's verdict.
type CritiqueStatus string

const (
	StatusApproved CritiqueStatus = "APPROVED"
	StatusRejected CritiqueStatus = "REJECTED"
)

// Violation is one itemized rubric failure.
type Violation struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
}

func (v Violation) String() string {
	if v.Category == "" {
		return v.Detail
	}
	return fmt.Sprintf("[%s] %s", v.Category, v.Detail)
}

// CritiqueResult is one attempt's verdict. REJECTED always carries at
// least one violation; APPROVED carries none. Immutable.
type CritiqueResult struct {
	Status     CritiqueStatus
	Violations []Violation
}

// Rejected builds a REJECTED result from violations.
func Rejected(violations ...Violation) *CritiqueResult {
	return &CritiqueResult{Status: StatusRejected, Violations: violations}
}

// Approved builds an APPROVED result.
func Approved() *CritiqueResult {
	return &CritiqueResult{Status: StatusApproved}
}

// Attempt pairs one draft with the critique it received. Index is 1-based.
type Attempt struct {
	Index    int
	Draft    *QuizDraft
	Critique *CritiqueResult
}

// Result is the Orchestrator's terminal output: the chosen draft (the
// approved one, or the last produced on exhaustion), the profile that
// steered it, whether any attempt was approved, and the full ordered
// attempt history for audit.
type Result struct {
	RequestID string
	Profile   *StyleProfile
	Draft     *QuizDraft
	Approved  bool
	Attempts  []Attempt
}

package quizgen

import "quizforge/internal/llm"

// StyleProfileSchema is the JSON schema for Analyst responses.
var StyleProfileSchema = &llm.Schema{
	Name:        "style-profile",
	Description: "Structural profile of an assessment: question count, type mix, image ratio",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_count": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Total number of questions in the assessment",
			},
			"type_distribution": map[string]any{
				"type":        "object",
				"description": "Question type tag to proportion of the quiz, summing to 1.0",
				"additionalProperties": map[string]any{
					"type": "number",
				},
			},
			"image_ratio": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "Fraction of questions that reference an image",
			},
			"difficulty_descriptor": map[string]any{
				"type":        "string",
				"description": "Short free-text description of the difficulty character",
			},
		},
		"required": []any{"question_count", "type_distribution", "image_ratio", "difficulty_descriptor"},
	},
}

// questionSchema is the schema for one question inside a draft.
var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type": "string",
			"enum": []any{"multiple_choice", "true_false", "matching", "ordering", "short_answer", "fill_in_blank"},
		},
		"stem": map[string]any{
			"type":        "string",
			"description": "The question text shown to the student",
		},
		"options": map[string]any{
			"type":        "array",
			"description": "Answer options for choice types; exactly one has correct=true. Empty for other types.",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text":    map[string]any{"type": "string"},
					"correct": map[string]any{"type": "boolean"},
				},
				"required":             []any{"text", "correct"},
				"additionalProperties": false,
			},
		},
		"answer": map[string]any{
			"type":        "string",
			"description": "Structured answer for non-choice types. Empty for choice types.",
		},
		"explanation": map[string]any{
			"type":        "string",
			"description": "Why the correct answer is correct",
		},
		"cognitive_level": map[string]any{
			"type": "string",
			"enum": []any{"remember", "understand", "apply", "analyze", "evaluate", "create"},
		},
		"image_description": map[string]any{
			"type":        "string",
			"description": "Description of an accompanying image, or empty when none",
		},
	},
	"required": []any{"type", "stem", "options", "answer", "explanation", "cognitive_level", "image_description"},
	"additionalProperties": false,
}

// QuizDraftSchema is the JSON schema for Generator responses. The Critic
// re-validates serialized drafts against this same schema.
var QuizDraftSchema = &llm.Schema{
	Name:        "quiz-draft",
	Description: "An ordered draft question set for a quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": questionSchema,
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// CritiqueSchema is the JSON schema for Critic responses. Exactly two
// acceptable shapes: approved with no violations, or not approved with a
// violation list. Anything else fails schema validation and is treated
// as a rejection by the caller.
var CritiqueSchema = &llm.Schema{
	Name:        "quiz-critique",
	Description: "Approve/reject verdict for a draft quiz with itemized rubric violations",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"approved": map[string]any{
				"type":        "boolean",
				"description": "True only when the draft passes every rubric category",
			},
			"violations": map[string]any{
				"type":        "array",
				"description": "Rubric failures; must be empty when approved",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"category": map[string]any{
							"type":        "string",
							"description": "Rubric category identifier, e.g. \"2.3 distractors\"",
						},
						"detail": map[string]any{
							"type":        "string",
							"description": "What is wrong and where",
						},
					},
					"required":             []any{"category", "detail"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"approved", "violations"},
		"additionalProperties": false,
	},
}

package parser

import (
	"strings"

	"github.com/spigell/ai-recruiter/internal/completion"
)

const (
	SchemaQuestion       = "question"
	SchemaAnswerScore    = "answer_score"
	SchemaInterviewScore = "interview_score"
	SchemaSkillRatings   = "skill_ratings"
	SchemaSummary        = "performance_summary"
)

// QuestionPayload is the model's next interview question. Terminate lets the
// model decline to ask another question when it considers coverage sufficient.
type QuestionPayload struct {
	Question  string `json:"question" mapstructure:"question"`
	Terminate bool   `json:"terminate" mapstructure:"terminate"`
}

func (QuestionPayload) Schema() completion.Schema {
	return completion.Schema{
		Name: SchemaQuestion,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question":  map[string]any{"type": "string"},
				"terminate": map[string]any{"type": "boolean"},
			},
			"required": []string{"question"},
		},
	}
}

func (p QuestionPayload) check() []FieldError {
	if !p.Terminate && strings.TrimSpace(p.Question) == "" {
		return []FieldError{{Field: "question", Message: "question must not be empty"}}
	}
	return nil
}

// AnswerScorePayload is the model's score for a single answer.
type AnswerScorePayload struct {
	Score     float64 `json:"score" mapstructure:"score"`
	Terminate bool    `json:"terminate" mapstructure:"terminate"`
}

func (AnswerScorePayload) Schema() completion.Schema {
	return completion.Schema{
		Name: SchemaAnswerScore,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":     map[string]any{"type": "number"},
				"terminate": map[string]any{"type": "boolean"},
			},
			"required": []string{"score", "terminate"},
		},
	}
}

func (AnswerScorePayload) check() []FieldError { return nil }

// InterviewScorePayload is the model's overall assessment of a session.
type InterviewScorePayload struct {
	Analysis string  `json:"analysis" mapstructure:"analysis"`
	Score    float64 `json:"score" mapstructure:"score"`
}

func (InterviewScorePayload) Schema() completion.Schema {
	return completion.Schema{
		Name: SchemaInterviewScore,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"analysis": map[string]any{"type": "string", "minLength": 1},
				"score":    map[string]any{"type": "number", "minimum": 0, "maximum": 10},
			},
			"required": []string{"analysis", "score"},
		},
	}
}

func (InterviewScorePayload) check() []FieldError { return nil }

type SkillRating struct {
	Skill  string  `json:"skill" mapstructure:"skill"`
	Rating float64 `json:"rating" mapstructure:"rating"`
}

// SkillRatingsPayload is the model's per-skill rating of a session.
type SkillRatingsPayload struct {
	Skills []SkillRating `json:"skills" mapstructure:"skills"`
}

func (SkillRatingsPayload) Schema() completion.Schema {
	return completion.Schema{
		Name: SchemaSkillRatings,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"skills": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"skill":  map[string]any{"type": "string", "minLength": 1},
							"rating": map[string]any{"type": "number", "minimum": 1, "maximum": 5},
						},
						"required": []string{"skill", "rating"},
					},
				},
			},
			"required": []string{"skills"},
		},
	}
}

func (SkillRatingsPayload) check() []FieldError { return nil }

// SummaryPayload is the model's narrative across several sessions.
type SummaryPayload struct {
	Summary string `json:"summary" mapstructure:"summary"`
}

func (SummaryPayload) Schema() completion.Schema {
	return completion.Schema{
		Name: SchemaSummary,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"summary"},
		},
	}
}

func (p SummaryPayload) check() []FieldError {
	if strings.TrimSpace(p.Summary) == "" {
		return []FieldError{{Field: "summary", Message: "summary must not be blank"}}
	}
	return nil
}

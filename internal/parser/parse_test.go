package parser

import (
	"errors"
	"testing"
)

func TestParseQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		question  string
		terminate bool
	}{
		{name: "plain", raw: `{"question":"What is a goroutine?"}`, question: "What is a goroutine?"},
		{name: "fenced", raw: "```json\n{\"question\":\"Explain channels\"}\n```", question: "Explain channels"},
		{name: "prose around", raw: "Sure! Here it is: {\"question\":\"Why {braces}?\"} hope it helps", question: "Why {braces}?"},
		{name: "terminate without question", raw: `{"question":"","terminate":true}`, terminate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse[QuestionPayload](tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Question != tt.question || got.Terminate != tt.terminate {
				t.Fatalf("unexpected payload: %+v", got)
			}
		})
	}
}

func TestParseRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		parse func() error
		field string
	}{
		{
			name:  "not json",
			parse: func() error { _, err := Parse[QuestionPayload]("I cannot answer that"); return err },
		},
		{
			name:  "malformed json",
			parse: func() error { _, err := Parse[QuestionPayload](`{"question": "x"`); return err },
		},
		{
			name:  "empty question",
			parse: func() error { _, err := Parse[QuestionPayload](`{"question":"  "}`); return err },
			field: "question",
		},
		{
			name:  "missing terminate",
			parse: func() error { _, err := Parse[AnswerScorePayload](`{"score":3}`); return err },
			field: "(root)",
		},
		{
			name:  "score as string",
			parse: func() error { _, err := Parse[AnswerScorePayload](`{"score":"3","terminate":false}`); return err },
			field: "score",
		},
		{
			name:  "interview score above bound",
			parse: func() error { _, err := Parse[InterviewScorePayload](`{"analysis":"ok","score":11}`); return err },
			field: "score",
		},
		{
			name: "skill rating above bound",
			parse: func() error {
				_, err := Parse[SkillRatingsPayload](`{"skills":[{"skill":"Go","rating":6}]}`)
				return err
			},
			field: "skills.0.rating",
		},
		{
			name:  "blank summary",
			parse: func() error { _, err := Parse[SummaryPayload](`{"summary":" "}`); return err },
			field: "summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.parse()
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Raw == "" {
				t.Fatalf("expected raw response to be kept")
			}
			if tt.field == "" {
				return
			}
			for _, field := range parseErr.Fields {
				if field.Field == tt.field {
					return
				}
			}
			t.Fatalf("expected field error for %q, got %+v", tt.field, parseErr.Fields)
		})
	}
}

func TestParseSkillRatings(t *testing.T) {
	t.Parallel()

	got, err := Parse[SkillRatingsPayload](`{"skills":[{"skill":"Go","rating":4},{"skill":"SQL","rating":2.5}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Skills) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(got.Skills))
	}
	if got.Skills[0].Skill != "Go" || got.Skills[0].Rating != 4 {
		t.Fatalf("unexpected first skill: %+v", got.Skills[0])
	}
	if got.Skills[1].Rating != 2.5 {
		t.Fatalf("unexpected second rating: %v", got.Skills[1].Rating)
	}
}

func TestParseInterviewScore(t *testing.T) {
	t.Parallel()

	got, err := Parse[InterviewScorePayload]("```\n{\"analysis\":\"Solid fundamentals\",\"score\":7.5}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Analysis != "Solid fundamentals" || got.Score != 7.5 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "no object", input: "nothing here", expect: ""},
		{name: "unterminated", input: `{"a":1`, expect: ""},
		{name: "escaped quote", input: `x {"a":"say \"}\""} y`, expect: `{"a":"say \"}\""}`},
		{name: "nested", input: `{"a":{"b":2}} trailing`, expect: `{"a":{"b":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractJSON(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

package prompts

import (
	"strings"
	"testing"
)

func TestNewManagerLoadsAllSteps(t *testing.T) {
	pm, err := NewManager()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job := Job{Title: "Backend Engineer", RequiredYears: 3, Skills: []string{"Go", "SQL"}}
	candidate := Candidate{Name: "Alex", Years: 1, SkillsJSON: `[{"skill":"Go","rating":4}]`}

	tests := []struct {
		step     string
		data     any
		contains []string
	}{
		{step: StepOpening, data: OpeningData{Job: job, Candidate: candidate}, contains: []string{"Backend Engineer", `"Alex"`}},
		{
			step: StepNextQuestion,
			data: NextQuestionData{
				Job:           job,
				Candidate:     candidate,
				AskedJSON:     `["What is Go?"]`,
				Asked:         1,
				Coverage:      []SkillCoverage{{Skill: "Go", Asked: 1, TargetMin: 5, TargetMax: 7}},
				ExperienceGap: 2,
				MinQuestions:  20,
				MaxQuestions:  25,
			},
			contains: []string{"Go, SQL", "- Go: 1 asked, aim for 5 to 7", "2 years short", "at most 25"},
		},
		{step: StepScoreAnswer, data: ScoreAnswerData{Job: job, Candidate: candidate, Question: "Q?", Answer: "A.", TotalScore: 5}, contains: []string{"from 0 to 5", `Answer: "A."`}},
		{step: StepScoreInterview, data: InterviewData{Job: job, Candidate: candidate, QuestionsJSON: "[]"}, contains: []string{"from 0 to 10"}},
		{step: StepScoreSkills, data: InterviewData{Job: job, Candidate: candidate, QuestionsJSON: "[]"}, contains: []string{"from 1 to 5"}},
		{step: StepSummary, data: SummaryData{Sessions: 2, RowsJSON: "[]"}, contains: []string{"2 most recent"}},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			rendered, err := pm.Render(tt.step, tt.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rendered.Context == "" {
				t.Fatalf("expected a system context")
			}
			for _, want := range tt.contains {
				if !strings.Contains(rendered.Prompt, want) {
					t.Fatalf("expected prompt to contain %q, got:\n%s", want, rendered.Prompt)
				}
			}
		})
	}
}

func TestRenderUnknownStep(t *testing.T) {
	pm, err := NewManager()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := pm.Render("missing", nil); err == nil {
		t.Fatalf("expected error for unknown step")
	}
}

func TestRenderWrongData(t *testing.T) {
	pm, err := NewManager()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := pm.Render(StepOpening, SummaryData{}); err == nil {
		t.Fatalf("expected error when data lacks template fields")
	}
}

package interview

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spigell/ai-recruiter/internal/scoring"
)

var validate = validator.New()

type Status string

const (
	StatusCreated    Status = "created"
	StatusOpen       Status = "open"
	StatusTerminated Status = "terminated"
)

// TerminationReason records why a session stopped asking questions.
type TerminationReason string

const (
	ReasonNone        TerminationReason = ""
	ReasonModelSignal TerminationReason = "model_signal"
	ReasonCoverageMet TerminationReason = "coverage_met"
	ReasonQuestionCap TerminationReason = "question_cap"
	ReasonCaller      TerminationReason = "caller"
)

// JobRequirements is the job a session interviews for.
type JobRequirements struct {
	ID            string   `json:"id,omitempty" yaml:"id"`
	Title         string   `json:"title" yaml:"title" validate:"required"`
	Description   string   `json:"description,omitempty" yaml:"description"`
	RequiredYears int      `json:"required_years" yaml:"required-years" validate:"gte=0"`
	Skills        []string `json:"skills" yaml:"skills" validate:"dive,required"`
}

// Validate checks the struct rules and that skill names are unique regardless of case.
func (j JobRequirements) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("invalid job requirements: %w", err)
	}
	seen := make(map[string]struct{}, len(j.Skills))
	for _, skill := range j.Skills {
		key := strings.ToLower(strings.TrimSpace(skill))
		if _, dup := seen[key]; dup {
			return fmt.Errorf("invalid job requirements: duplicate skill %q", skill)
		}
		seen[key] = struct{}{}
	}
	return nil
}

type DeclaredSkill struct {
	Skill  string `json:"skill" yaml:"skill" validate:"required"`
	Rating int    `json:"rating" yaml:"rating" validate:"gte=0,lte=5"`
}

type Experience struct {
	Title   string `json:"title" yaml:"title"`
	Company string `json:"company,omitempty" yaml:"company"`
	Years   int    `json:"years,omitempty" yaml:"years"`
	Details string `json:"details,omitempty" yaml:"details"`
}

// CandidateProfile is what the candidate declared about themselves.
type CandidateProfile struct {
	Name        string          `json:"name" yaml:"name" validate:"required"`
	Years       int             `json:"years" yaml:"years" validate:"gte=0"`
	Skills      []DeclaredSkill `json:"skills" yaml:"skills" validate:"dive"`
	Experiences []Experience    `json:"experiences,omitempty" yaml:"experiences"`
}

func (c CandidateProfile) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid candidate profile: %w", err)
	}
	return nil
}

// QuestionRecord is a question that was asked, answered and scored.
type QuestionRecord struct {
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Skills        []string  `json:"skills,omitempty"`
	ScoreObtained float64   `json:"score_obtained"`
	TotalScore    float64   `json:"total_score"`
	AIProbability float64   `json:"ai_probability"`
	AskedAt       time.Time `json:"asked_at"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// PendingQuestion is a question issued to the candidate and not yet scored.
type PendingQuestion struct {
	Text    string    `json:"text"`
	Skills  []string  `json:"skills,omitempty"`
	Intro   bool      `json:"intro,omitempty"`
	AskedAt time.Time `json:"asked_at"`
}

// Introduction is the unscored opening exchange.
type Introduction struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type SkillRating struct {
	Skill  string `json:"skill"`
	Rating int    `json:"rating"`
}

// Session is one candidate's interview for one job.
type Session struct {
	ID                string                 `json:"id"`
	CandidateID       string                 `json:"candidate_id"`
	Job               JobRequirements        `json:"job"`
	Candidate         CandidateProfile       `json:"candidate"`
	Status            Status                 `json:"status"`
	Introduction      *Introduction          `json:"introduction,omitempty"`
	Pending           *PendingQuestion       `json:"pending,omitempty"`
	Questions         []QuestionRecord       `json:"questions"`
	TerminateSignal   bool                   `json:"terminate_signal,omitempty"`
	TerminationReason TerminationReason      `json:"termination_reason,omitempty"`
	Violations        []string               `json:"violations,omitempty"`
	Skills            map[string]SkillRating `json:"skills,omitempty"`
	FinalScore        *float64               `json:"final_score,omitempty"`
	ModelScore        *float64               `json:"model_score,omitempty"`
	Feedback          *string                `json:"feedback,omitempty"`
	Created           time.Time              `json:"created"`
	StartTime         *time.Time             `json:"start_time,omitempty"`
	EndTime           *time.Time             `json:"end_time,omitempty"`
}

// NewSession validates the inputs and returns a session in the created state.
// The job and profile are copied so later edits by the caller do not leak in.
func NewSession(job JobRequirements, candidate CandidateProfile, candidateID string) (*Session, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		candidateID = uuid.NewString()
	}

	return &Session{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Job:         copyJob(job),
		Candidate:   copyCandidate(candidate),
		Status:      StatusCreated,
		Created:     time.Now().UTC(),
	}, nil
}

// Items returns the scored questions in the shape the scoring policy consumes.
func (s *Session) Items() []scoring.Item {
	items := make([]scoring.Item, 0, len(s.Questions))
	for _, q := range s.Questions {
		items = append(items, scoring.Item{Obtained: q.ScoreObtained, Total: q.TotalScore})
	}
	return items
}

// Duration is the time between start and end, or until now while the session is running.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.StartTime == nil {
		return 0
	}
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(*s.StartTime) {
		return 0
	}
	return end.Sub(*s.StartTime)
}

// ScorePercentage is the final score as a percentage, zero before finalization.
func (s *Session) ScorePercentage() float64 {
	if s.FinalScore == nil {
		return 0
	}
	return scoring.Percentage(*s.FinalScore)
}

// Passed reports whether the final score meets the threshold. Unfinalized sessions never pass.
func (s *Session) Passed(threshold float64) bool {
	if s.FinalScore == nil {
		return false
	}
	return scoring.IsPassed(*s.FinalScore, threshold)
}

func (s *Session) Finalized() bool {
	return s.Status == StatusTerminated
}

func copyJob(job JobRequirements) JobRequirements {
	job.Skills = trimAll(job.Skills)
	return job
}

func copyCandidate(c CandidateProfile) CandidateProfile {
	c.Skills = append([]DeclaredSkill(nil), c.Skills...)
	c.Experiences = append([]Experience(nil), c.Experiences...)
	return c
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

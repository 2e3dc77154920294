package store

import (
	"time"

	"github.com/spigell/ai-recruiter/internal/interview"
)

// SessionRecord is a persisted interview session. The full session lives in
// Document; the other columns exist for lookups.
type SessionRecord struct {
	ID          string            `gorm:"primaryKey;size:64"`
	CandidateID string            `gorm:"index;size:64;not null"`
	Status      string            `gorm:"index;size:16;not null"`
	JobTitle    string            `gorm:"size:255"`
	FinalScore  *float64
	EndTime     *time.Time        `gorm:"index"`
	Document    interview.Session `gorm:"type:text;serializer:json;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SessionRecord) TableName() string {
	return "interview_sessions"
}

// SummaryRecord holds one performance summary per candidate.
type SummaryRecord struct {
	CandidateID string    `gorm:"primaryKey;size:64"`
	Summary     string    `gorm:"type:text;not null"`
	GeneratedOn time.Time `gorm:"not null"`
	UpdatedAt   time.Time
}

func (SummaryRecord) TableName() string {
	return "performance_summaries"
}

func newSessionRecord(s *interview.Session) SessionRecord {
	return SessionRecord{
		ID:          s.ID,
		CandidateID: s.CandidateID,
		Status:      string(s.Status),
		JobTitle:    s.Job.Title,
		FinalScore:  s.FinalScore,
		EndTime:     s.EndTime,
		Document:    *s,
		CreatedAt:   s.Created,
	}
}

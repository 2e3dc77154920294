// Package store persists interview sessions and performance summaries with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/ai-recruiter/internal/interview"
	"github.com/spigell/ai-recruiter/internal/performance"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a session or summary does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		if dsn == "" {
			dsn = "ai-recruiter.db"
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("postgres dsn is required")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(db, logger)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&SessionRecord{}, &SummaryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSession inserts or replaces the session.
func (s *Store) SaveSession(ctx context.Context, session *interview.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session id is required")
	}

	record := newSessionRecord(session)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "job_title", "final_score", "end_time", "document", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}

	s.logger.Debug("session saved", zap.String("session_id", session.ID), zap.String("status", record.Status))
	return nil
}

func (s *Store) LoadSession(ctx context.Context, id string) (*interview.Session, error) {
	var record SessionRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	session := record.Document
	return &session, nil
}

// LoadCandidateSessions returns every session of a candidate, newest first.
func (s *Store) LoadCandidateSessions(ctx context.Context, candidateID string) ([]interview.Session, error) {
	var records []SessionRecord
	err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load sessions for %s: %w", candidateID, err)
	}

	sessions := make([]interview.Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, record.Document)
	}
	return sessions, nil
}

// CandidateIDs lists candidates with at least one finished session.
func (s *Store) CandidateIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&SessionRecord{}).
		Where("status = ?", string(interview.StatusTerminated)).
		Distinct().
		Order("candidate_id").
		Pluck("candidate_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return ids, nil
}

// SaveSummary upserts the summary of a candidate.
func (s *Store) SaveSummary(ctx context.Context, summary performance.Summary) error {
	if summary.CandidateID == "" {
		return errors.New("candidate id is required")
	}

	record := SummaryRecord{
		CandidateID: summary.CandidateID,
		Summary:     summary.Summary,
		GeneratedOn: summary.GeneratedOn,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"summary", "generated_on", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("save summary for %s: %w", summary.CandidateID, err)
	}
	return nil
}

func (s *Store) LoadSummary(ctx context.Context, candidateID string) (performance.Summary, error) {
	var record SummaryRecord
	err := s.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return performance.Summary{}, fmt.Errorf("summary for %s: %w", candidateID, ErrNotFound)
	}
	if err != nil {
		return performance.Summary{}, fmt.Errorf("load summary for %s: %w", candidateID, err)
	}

	return performance.Summary{
		CandidateID: record.CandidateID,
		Summary:     record.Summary,
		GeneratedOn: record.GeneratedOn,
	}, nil
}

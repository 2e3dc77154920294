package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spigell/ai-recruiter/internal/interview"
	"github.com/spigell/ai-recruiter/internal/performance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	s, err := New(db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSession(t *testing.T, candidateID string) *interview.Session {
	t.Helper()
	s, err := interview.NewSession(
		interview.JobRequirements{Title: "Backend Engineer", Skills: []string{"Go"}},
		interview.CandidateProfile{Name: "Alex", Years: 3},
		candidateID,
	)
	require.NoError(t, err)
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	session := newSession(t, "candidate-1")
	require.NoError(t, st.SaveSession(ctx, session))

	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	score := 7.5
	session.Status = interview.StatusTerminated
	session.StartTime = &start
	session.EndTime = &end
	session.FinalScore = &score
	session.Questions = append(session.Questions, interview.QuestionRecord{
		Question:      "What is a goroutine?",
		Answer:        "A lightweight thread",
		Skills:        []string{"Go"},
		ScoreObtained: 4,
		TotalScore:    5,
	})
	session.Skills = map[string]interview.SkillRating{"Go": {Skill: "Go", Rating: 4}}
	require.NoError(t, st.SaveSession(ctx, session))

	loaded, err := st.LoadSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, interview.StatusTerminated, loaded.Status)
	require.Len(t, loaded.Questions, 1)
	assert.Equal(t, "A lightweight thread", loaded.Questions[0].Answer)
	assert.Equal(t, 4, loaded.Skills["Go"].Rating)
	require.NotNil(t, loaded.FinalScore)
	assert.Equal(t, 7.5, *loaded.FinalScore)
	assert.True(t, loaded.EndTime.Equal(end))
}

func TestLoadSessionNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.LoadSession(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCandidateQueries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	finished := newSession(t, "candidate-1")
	finished.Status = interview.StatusTerminated
	require.NoError(t, st.SaveSession(ctx, finished))

	open := newSession(t, "candidate-1")
	open.Status = interview.StatusOpen
	require.NoError(t, st.SaveSession(ctx, open))

	other := newSession(t, "candidate-2")
	require.NoError(t, st.SaveSession(ctx, other))

	sessions, err := st.LoadCandidateSessions(ctx, "candidate-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	ids, err := st.CandidateIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"candidate-1"}, ids)
}

func TestSaveSummaryUpserts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.LoadSummary(ctx, "candidate-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	first := time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveSummary(ctx, performance.Summary{CandidateID: "candidate-1", Summary: "first", GeneratedOn: first}))
	require.NoError(t, st.SaveSummary(ctx, performance.Summary{CandidateID: "candidate-1", Summary: "second", GeneratedOn: first.Add(24 * time.Hour)}))

	summary, err := st.LoadSummary(ctx, "candidate-1")
	require.NoError(t, err)
	assert.Equal(t, "second", summary.Summary)
	assert.True(t, summary.GeneratedOn.Equal(first.Add(24*time.Hour)))

	var count int64
	require.NoError(t, st.db.Model(&SummaryRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", nil)
	assert.Error(t, err)

	_, err = Open(DriverPostgres, "", nil)
	assert.Error(t, err)
}

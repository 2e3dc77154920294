// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spigell/ai-recruiter/internal/interview"
	"github.com/spigell/ai-recruiter/internal/logger"
	"github.com/spigell/ai-recruiter/internal/performance"
	"go.uber.org/zap"
)

const (
	DefaultSchedule = "0 2 * * *"

	defaultRunTimeout = 30 * time.Minute
)

type SummaryStore interface {
	CandidateIDs(ctx context.Context) ([]string, error)
	LoadCandidateSessions(ctx context.Context, candidateID string) ([]interview.Session, error)
	SaveSummary(ctx context.Context, summary performance.Summary) error
}

type Summarizer interface {
	Summarize(ctx context.Context, candidateID string, sessions []interview.Session) (performance.Summary, error)
}

// SummaryRefresher regenerates the performance summary of every candidate on a cron schedule.
type SummaryRefresher struct {
	store      SummaryStore
	summarizer Summarizer
	schedule   string
	cron       *cron.Cron
	logger     *zap.Logger
}

func NewSummaryRefresher(store SummaryStore, summarizer Summarizer, schedule string, logger *zap.Logger) *SummaryRefresher {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryRefresher{
		store:      store,
		summarizer: summarizer,
		schedule:   schedule,
		cron:       cron.New(),
		logger:     logger,
	}
}

// Start schedules RunOnce and returns immediately.
func (r *SummaryRefresher) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("summary refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule summary refresh: %w", err)
	}

	r.cron.Start()
	r.logger.Info("summary refresher started", zap.String("schedule", r.schedule))
	return nil
}

// Stop waits for a running refresh to finish.
func (r *SummaryRefresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info("summary refresher stopped")
}

// RunOnce refreshes every candidate and returns how many summaries were
// saved. One candidate failing does not stop the others; the failures are
// joined into the returned error.
func (r *SummaryRefresher) RunOnce(ctx context.Context) (int, error) {
	ids, err := r.store.CandidateIDs(ctx)
	if err != nil {
		return 0, err
	}

	r.logger.Info("refreshing performance summaries", zap.Int("candidates", len(ids)))

	var errs []error
	refreshed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		log := logger.WithSessionFields(r.logger, "", id)
		if err := r.refresh(ctx, id); err != nil {
			log.Warn("summary refresh failed for candidate", zap.Error(err))
			errs = append(errs, fmt.Errorf("candidate %s: %w", id, err))
			continue
		}
		refreshed++
	}

	r.logger.Info("performance summaries refreshed", zap.Int("refreshed", refreshed), zap.Int("failed", len(ids)-refreshed))
	return refreshed, errors.Join(errs...)
}

func (r *SummaryRefresher) refresh(ctx context.Context, candidateID string) error {
	sessions, err := r.store.LoadCandidateSessions(ctx, candidateID)
	if err != nil {
		return err
	}
	summary, err := r.summarizer.Summarize(ctx, candidateID, sessions)
	if err != nil {
		return err
	}
	return r.store.SaveSummary(ctx, summary)
}

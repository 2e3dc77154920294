// Package performance summarises a candidate's recent interviews.
package performance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spigell/ai-recruiter/internal/completion"
	"github.com/spigell/ai-recruiter/internal/interview"
	"github.com/spigell/ai-recruiter/internal/logger"
	"github.com/spigell/ai-recruiter/internal/parser"
	"github.com/spigell/ai-recruiter/internal/prompts"
	"go.uber.org/zap"
)

const (
	// FallbackSummary is returned when a candidate has no finished interviews.
	FallbackSummary = "No interview data available to generate a performance summary."

	DefaultRecentSessions = 5

	dateLayout = "2006-01-02"
)

// Summary is the stored performance narrative of one candidate.
type Summary struct {
	CandidateID string    `json:"candidate_id"`
	Summary     string    `json:"summary"`
	GeneratedOn time.Time `json:"generated_on"`
}

// Row is the per-session digest the summary prompt sees.
type Row struct {
	Job    string         `json:"job"`
	Date   string         `json:"date"`
	Score  float64        `json:"score"`
	Skills map[string]int `json:"skills,omitempty"`
}

type Config struct {
	Provider       string
	Model          string
	RecentSessions int
}

type Aggregator struct {
	gateway interview.Completer
	prompts *prompts.Manager
	config  Config
	logger  *zap.Logger
	now     func() time.Time
}

func NewAggregator(gateway interview.Completer, pm *prompts.Manager, cfg Config, log *zap.Logger) (*Aggregator, error) {
	if gateway == nil {
		return nil, fmt.Errorf("completion gateway is required")
	}
	if pm == nil {
		var err error
		if pm, err = prompts.NewManager(); err != nil {
			return nil, err
		}
	}
	if cfg.RecentSessions <= 0 {
		cfg.RecentSessions = DefaultRecentSessions
	}

	return &Aggregator{
		gateway: gateway,
		prompts: pm,
		config:  cfg,
		logger:  logger.WithCommonFields(log, cfg.Provider, cfg.Model),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Summarize builds a narrative over the most recent finished sessions of a
// candidate. Without finished sessions it returns FallbackSummary and does
// not call the model.
func (a *Aggregator) Summarize(ctx context.Context, candidateID string, sessions []interview.Session) (Summary, error) {
	log := logger.WithSessionFields(a.logger, "", candidateID)
	summary := Summary{CandidateID: candidateID, GeneratedOn: a.now()}

	rows := Rows(sessions, a.config.RecentSessions)
	if len(rows) == 0 {
		log.Debug("no finished interviews, using fallback summary")
		summary.Summary = FallbackSummary
		return summary, nil
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return Summary{}, fmt.Errorf("marshal summary rows: %w", err)
	}

	rendered, err := a.prompts.Render(prompts.StepSummary, prompts.SummaryData{Sessions: len(rows), RowsJSON: string(payload)})
	if err != nil {
		return Summary{}, err
	}

	schema := parser.SummaryPayload{}.Schema()
	raw, err := a.gateway.Complete(ctx, a.config.Provider, completion.Request{
		Model:         a.config.Model,
		SystemContext: rendered.Context,
		Prompt:        rendered.Prompt,
		Schema:        &schema,
	})
	if err != nil {
		log.Warn("performance summary failed", zap.Error(err))
		return Summary{}, err
	}

	parsed, err := parser.Parse[parser.SummaryPayload](raw)
	if err != nil {
		log.Warn("performance summary unparseable", zap.Error(err))
		return Summary{}, err
	}

	summary.Summary = strings.TrimSpace(parsed.Summary)
	log.Info("performance summary generated", zap.Int("sessions", len(rows)))
	return summary, nil
}

// Rows keeps finalized sessions only, newest first by end time, and at most limit of them.
func Rows(sessions []interview.Session, limit int) []Row {
	finished := make([]interview.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == interview.StatusTerminated && s.EndTime != nil {
			finished = append(finished, s)
		}
	}

	sort.SliceStable(finished, func(i, j int) bool {
		return finished[i].EndTime.After(*finished[j].EndTime)
	})

	if limit > 0 && len(finished) > limit {
		finished = finished[:limit]
	}

	rows := make([]Row, 0, len(finished))
	for _, s := range finished {
		row := Row{Job: s.Job.Title, Date: s.EndTime.Format(dateLayout)}
		if s.FinalScore != nil {
			row.Score = *s.FinalScore
		}
		if len(s.Skills) > 0 {
			row.Skills = make(map[string]int, len(s.Skills))
			for name, rating := range s.Skills {
				row.Skills[name] = rating.Rating
			}
		}
		rows = append(rows, row)
	}
	return rows
}

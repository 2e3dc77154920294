// Package interview drives an AI-led screening interview: it asks questions,
// scores answers, tracks skill coverage and finalizes the session.
package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/ai-recruiter/internal/completion"
	"github.com/spigell/ai-recruiter/internal/coverage"
	"github.com/spigell/ai-recruiter/internal/logger"
	"github.com/spigell/ai-recruiter/internal/parser"
	"github.com/spigell/ai-recruiter/internal/prompts"
	"github.com/spigell/ai-recruiter/internal/scoring"
	"go.uber.org/zap"
)

// ViolationProbability is the detector probability above which an answer is
// flagged as likely machine-written (2 on the classifier's 0..5 scale).
const ViolationProbability = 0.4

const (
	StepStart       = "start"
	StepAskNext     = "ask_next"
	StepScoreAnswer = "score_answer"
	StepFinalize    = "finalize"
)

// Completer is the part of the completion gateway the interview flow needs.
type Completer interface {
	Complete(ctx context.Context, providerName string, req completion.Request) (string, error)
}

// Detector estimates how likely an answer was machine-written, in [0, 1].
type Detector interface {
	Probability(ctx context.Context, text string) float64
}

type Config struct {
	Provider             string
	Model                string
	MaxQuestions         int
	CoverageMinQuestions int
	SkillTarget          coverage.Range
	QuestionTotalScore   float64
	PassThreshold        float64
}

func DefaultConfig() Config {
	return Config{
		MaxQuestions:         25,
		CoverageMinQuestions: 20,
		SkillTarget:          coverage.DefaultRange(),
		QuestionTotalScore:   scoring.DefaultQuestionTotal,
		PassThreshold:        scoring.DefaultPassThreshold,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = def.MaxQuestions
	}
	if c.CoverageMinQuestions <= 0 {
		c.CoverageMinQuestions = def.CoverageMinQuestions
	}
	if c.CoverageMinQuestions > c.MaxQuestions {
		c.CoverageMinQuestions = c.MaxQuestions
	}
	if c.SkillTarget.Min <= 0 {
		c.SkillTarget = def.SkillTarget
	}
	if c.SkillTarget.Max < c.SkillTarget.Min {
		c.SkillTarget.Max = c.SkillTarget.Min
	}
	if c.QuestionTotalScore <= 0 {
		c.QuestionTotalScore = def.QuestionTotalScore
	}
	if c.PassThreshold <= 0 {
		c.PassThreshold = def.PassThreshold
	}
	return c
}

// Orchestrator owns the state transitions of interview sessions. It holds no
// per-session state, so one instance serves any number of sessions as long as
// each session is driven by a single goroutine.
type Orchestrator struct {
	gateway  Completer
	prompts  *prompts.Manager
	detector Detector
	config   Config
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Orchestrator)

func WithDetector(d Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(gateway Completer, pm *prompts.Manager, cfg Config, log *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if gateway == nil {
		return nil, fmt.Errorf("completion gateway is required")
	}
	if pm == nil {
		var err error
		if pm, err = prompts.NewManager(); err != nil {
			return nil, err
		}
	}

	o := &Orchestrator{
		gateway: gateway,
		prompts: pm,
		config:  cfg.withDefaults(),
		logger:  logger.WithCommonFields(log, cfg.Provider, cfg.Model),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Orchestrator) Config() Config {
	return o.config
}

// Next is the outcome of AskNext.
type Next struct {
	Question  string
	Skills    []string
	Terminate bool
	Reason    TerminationReason
}

// Scored is the outcome of ScoreAnswer.
type Scored struct {
	Intro     bool
	Record    QuestionRecord
	Terminate bool
	Reason    TerminationReason
}

// Turn is the outcome of Advance.
type Turn struct {
	Question  string
	Skills    []string
	Finalized bool
	Reason    TerminationReason
}

// Start opens a created session and returns the introductory question.
func (o *Orchestrator) Start(ctx context.Context, s *Session) (string, error) {
	if s == nil {
		return "", &InvariantViolation{Op: StepStart, Reason: "session is nil"}
	}
	if s.Status != StatusCreated {
		return "", &InvariantViolation{Op: StepStart, Reason: fmt.Sprintf("session is %s", s.Status)}
	}

	log := o.sessionLogger(s)

	payload, err := complete[parser.QuestionPayload](ctx, o, prompts.StepOpening, prompts.OpeningData{
		Job:       jobView(s.Job),
		Candidate: candidateView(s.Candidate),
	})
	if err != nil {
		log.Warn("opening question failed", zap.Error(err))
		return "", &StepError{Step: StepStart, Err: err}
	}
	if strings.TrimSpace(payload.Question) == "" {
		return "", &StepError{Step: StepStart, Err: &parser.ParseError{Payload: parser.SchemaQuestion, Fields: []parser.FieldError{{Field: "question", Message: "question must not be empty"}}}}
	}

	now := o.now()
	s.Status = StatusOpen
	s.StartTime = &now
	s.Pending = &PendingQuestion{Text: payload.Question, Intro: true, AskedAt: now}

	log.Info("interview started")
	return payload.Question, nil
}

// AskNext issues the next question. When the session should stop, no model
// call is made and the result carries Terminate. skillHints attribute the
// question to skills; without hints the question text is matched against the
// required skills.
func (o *Orchestrator) AskNext(ctx context.Context, s *Session, skillHints ...string) (Next, error) {
	if err := requireOpen(StepAskNext, s); err != nil {
		return Next{}, err
	}
	if s.Pending != nil {
		return Next{}, &InvariantViolation{Op: StepAskNext, Reason: "the previous question has not been answered"}
	}

	if done, reason := o.EvaluateTermination(s); done {
		return Next{Terminate: true, Reason: reason}, nil
	}

	log := o.sessionLogger(s)
	tracker := o.tracker(s)

	payload, err := complete[parser.QuestionPayload](ctx, o, prompts.StepNextQuestion, prompts.NextQuestionData{
		Job:           jobView(s.Job),
		Candidate:     candidateView(s.Candidate),
		Introduction:  introductionText(s),
		AskedJSON:     mustJSON(askedQuestions(s)),
		Asked:         tracker.TotalAsked(),
		Coverage:      coverageView(tracker),
		ExperienceGap: scoring.DifficultyInputs(s.Candidate.Years, s.Job.RequiredYears).Gap(),
		MinQuestions:  o.config.CoverageMinQuestions,
		MaxQuestions:  o.config.MaxQuestions,
	})
	if err != nil {
		log.Warn("next question failed", zap.Error(err))
		return Next{}, &StepError{Step: StepAskNext, Err: err}
	}

	if payload.Terminate {
		s.TerminateSignal = true
		log.Info("model ended the interview at question generation", zap.Int("questions", len(s.Questions)))
		return Next{Terminate: true, Reason: ReasonModelSignal}, nil
	}

	skills := coverage.Canonical(skillHints, s.Job.Skills)
	if len(skillHints) == 0 {
		skills = coverage.Attribute(payload.Question, s.Job.Skills)
	}

	s.Pending = &PendingQuestion{Text: payload.Question, Skills: skills, AskedAt: o.now()}

	log.Debug("question issued", zap.Int("number", len(s.Questions)+1), zap.Strings("skills", skills))
	return Next{Question: payload.Question, Skills: skills}, nil
}

// ScoreAnswer records the candidate's answer to the pending question. The
// introduction is stored without scoring. Any failure leaves the session as
// it was, so the same answer can be submitted again.
func (o *Orchestrator) ScoreAnswer(ctx context.Context, s *Session, answer string) (Scored, error) {
	if err := requireOpen(StepScoreAnswer, s); err != nil {
		return Scored{}, err
	}
	if s.Pending == nil {
		return Scored{}, &InvariantViolation{Op: StepScoreAnswer, Reason: "no question is awaiting an answer"}
	}

	log := o.sessionLogger(s)
	pending := s.Pending

	if pending.Intro {
		s.Introduction = &Introduction{Question: pending.Text, Answer: answer}
		s.Pending = nil
		log.Debug("introduction recorded")
		return Scored{Intro: true}, nil
	}

	if len(s.Questions) >= o.config.MaxQuestions {
		return Scored{}, &InvariantViolation{Op: StepScoreAnswer, Reason: fmt.Sprintf("question cap of %d reached", o.config.MaxQuestions)}
	}

	total := o.config.QuestionTotalScore
	payload, err := complete[parser.AnswerScorePayload](ctx, o, prompts.StepScoreAnswer, prompts.ScoreAnswerData{
		Job:          jobView(s.Job),
		Candidate:    candidateView(s.Candidate),
		Question:     pending.Text,
		Answer:       answer,
		TotalScore:   total,
		Asked:        len(s.Questions),
		MinQuestions: o.config.CoverageMinQuestions,
		MaxQuestions: o.config.MaxQuestions,
	})
	if err != nil {
		log.Warn("answer scoring failed", zap.Error(err))
		return Scored{}, &StepError{Step: StepScoreAnswer, Err: err}
	}

	obtained := scoring.BoundQuestionScore(payload.Score, total)
	if obtained != payload.Score {
		log.Debug("question score clamped", zap.Float64("raw", payload.Score), zap.Float64("bounded", obtained))
	}

	var probability float64
	if o.detector != nil {
		probability = o.detector.Probability(ctx, answer)
	}

	record := QuestionRecord{
		Question:      pending.Text,
		Answer:        answer,
		Skills:        append([]string(nil), pending.Skills...),
		ScoreObtained: obtained,
		TotalScore:    total,
		AIProbability: probability,
		AskedAt:       pending.AskedAt,
		AnsweredAt:    o.now(),
	}

	s.Questions = append(s.Questions, record)
	s.Pending = nil
	if probability > ViolationProbability {
		s.Violations = append(s.Violations, fmt.Sprintf("question %d %q has an AI probability of %.2f, above the %.2f threshold",
			len(s.Questions), record.Question, probability, ViolationProbability))
		log.Info("answer flagged as likely machine-written", zap.Int("number", len(s.Questions)), zap.Float64("ai_probability", probability))
	}
	if payload.Terminate {
		s.TerminateSignal = true
	}

	done, reason := o.EvaluateTermination(s)
	log.Debug("answer scored",
		zap.Int("number", len(s.Questions)),
		zap.Float64("score", obtained),
		zap.Float64("ai_probability", probability),
		zap.Bool("terminate", done),
	)

	return Scored{Record: record, Terminate: done, Reason: reason}, nil
}

// EvaluateTermination reports whether the session should stop asking
// questions and why. It does not modify the session.
func (o *Orchestrator) EvaluateTermination(s *Session) (bool, TerminationReason) {
	if s == nil {
		return false, ReasonNone
	}
	if s.TerminateSignal {
		return true, ReasonModelSignal
	}

	tracker := o.tracker(s)
	if tracker.TotalAsked() >= o.config.MaxQuestions {
		return true, ReasonQuestionCap
	}
	if tracker.IsCovered() && tracker.TotalAsked() >= o.config.CoverageMinQuestions {
		return true, ReasonCoverageMet
	}
	return false, ReasonNone
}

// Finalize computes the final score, the feedback and the skill ratings and
// terminates the session. A failure of the overall scoring step leaves the
// session untouched. A failure of the skill rating step only yields an empty
// skill map.
func (o *Orchestrator) Finalize(ctx context.Context, s *Session) error {
	if s == nil {
		return &InvariantViolation{Op: StepFinalize, Reason: "session is nil"}
	}
	switch s.Status {
	case StatusTerminated:
		return &InvariantViolation{Op: StepFinalize, Reason: "session is already finalized"}
	case StatusCreated:
		return &InvariantViolation{Op: StepFinalize, Reason: "session has not started"}
	}

	log := o.sessionLogger(s)

	reason := ReasonCaller
	if done, r := o.EvaluateTermination(s); done {
		reason = r
	}

	data := prompts.InterviewData{
		Job:           jobView(s.Job),
		Candidate:     candidateView(s.Candidate),
		QuestionsJSON: mustJSON(scoredQuestions(s)),
	}

	overall, err := complete[parser.InterviewScorePayload](ctx, o, prompts.StepScoreInterview, data)
	if err != nil {
		log.Warn("interview scoring failed", zap.Error(err))
		return &StepError{Step: StepFinalize, Err: err}
	}

	skills := make(map[string]SkillRating)
	ratings, err := complete[parser.SkillRatingsPayload](ctx, o, prompts.StepScoreSkills, data)
	if err != nil {
		log.Warn("skill rating failed, continuing without skill ratings", zap.Error(err))
	} else {
		skills = o.skillRatings(s, ratings, log)
	}

	final := scoring.AggregateInterviewScore(s.Items())
	model := scoring.BoundModelScore(overall.Score)
	feedback := strings.TrimSpace(overall.Analysis)
	now := o.now()

	s.FinalScore = &final
	s.ModelScore = &model
	s.Feedback = &feedback
	s.Skills = skills
	s.Pending = nil
	s.TerminationReason = reason
	s.Status = StatusTerminated
	if s.EndTime == nil {
		s.EndTime = &now
	}

	log.Info("interview finalized",
		zap.String("reason", string(reason)),
		zap.Int("questions", len(s.Questions)),
		zap.Float64("final_score", final),
		zap.Float64("model_score", model),
		zap.Bool("passed", s.Passed(o.config.PassThreshold)),
	)
	return nil
}

// Advance finalizes the session when it should stop and otherwise asks the
// next question. Calling it again after a failed step is safe.
func (o *Orchestrator) Advance(ctx context.Context, s *Session, skillHints ...string) (Turn, error) {
	if err := requireOpen(StepAskNext, s); err != nil {
		return Turn{}, err
	}

	if done, _ := o.EvaluateTermination(s); !done {
		next, err := o.AskNext(ctx, s, skillHints...)
		if err != nil {
			return Turn{}, err
		}
		if !next.Terminate {
			return Turn{Question: next.Question, Skills: next.Skills}, nil
		}
	}

	if err := o.Finalize(ctx, s); err != nil {
		return Turn{}, err
	}
	return Turn{Finalized: true, Reason: s.TerminationReason}, nil
}

func (o *Orchestrator) skillRatings(s *Session, payload parser.SkillRatingsPayload, log *zap.Logger) map[string]SkillRating {
	out := make(map[string]SkillRating, len(s.Job.Skills))
	for _, item := range payload.Skills {
		names := coverage.Canonical([]string{item.Skill}, s.Job.Skills)
		if len(names) == 0 {
			log.Debug("ignoring rating for unknown skill", zap.String("skill", item.Skill))
			continue
		}
		rating, err := scoring.AggregateSkillRating(names[0], item.Rating)
		if err != nil {
			log.Warn("ignoring invalid skill rating", zap.Error(err))
			continue
		}
		out[names[0]] = SkillRating{Skill: names[0], Rating: rating}
	}
	return out
}

func (o *Orchestrator) tracker(s *Session) *coverage.Tracker {
	tracker := coverage.NewTracker()
	for _, skill := range s.Job.Skills {
		tracker.RecordSkillTarget(skill, o.config.SkillTarget)
	}
	for _, q := range s.Questions {
		tracker.RecordAsked(q.Skills...)
	}
	return tracker
}

func (o *Orchestrator) sessionLogger(s *Session) *zap.Logger {
	return logger.WithSessionFields(o.logger, s.ID, s.CandidateID)
}

// complete renders the prompt of a step, calls the gateway with the schema of
// T and parses the response.
func complete[T parser.Payload](ctx context.Context, o *Orchestrator, step string, data any) (T, error) {
	var zero T
	rendered, err := o.prompts.Render(step, data)
	if err != nil {
		return zero, err
	}

	schema := zero.Schema()
	raw, err := o.gateway.Complete(ctx, o.config.Provider, completion.Request{
		Model:         o.config.Model,
		SystemContext: rendered.Context,
		Prompt:        rendered.Prompt,
		Schema:        &schema,
	})
	if err != nil {
		return zero, err
	}

	return parser.Parse[T](raw)
}

func requireOpen(op string, s *Session) error {
	if s == nil {
		return &InvariantViolation{Op: op, Reason: "session is nil"}
	}
	if s.Status != StatusOpen {
		return &InvariantViolation{Op: op, Reason: fmt.Sprintf("session is %s", s.Status)}
	}
	return nil
}

func jobView(job JobRequirements) prompts.Job {
	return prompts.Job{
		Title:         job.Title,
		Description:   job.Description,
		RequiredYears: job.RequiredYears,
		Skills:        job.Skills,
	}
}

func candidateView(c CandidateProfile) prompts.Candidate {
	view := prompts.Candidate{Name: c.Name, Years: c.Years, SkillsJSON: mustJSON(c.Skills)}
	if len(c.Experiences) > 0 {
		view.Experiences = mustJSON(c.Experiences)
	}
	return view
}

func coverageView(tracker *coverage.Tracker) []prompts.SkillCoverage {
	snapshot := tracker.Snapshot()
	out := make([]prompts.SkillCoverage, 0, len(snapshot))
	for _, c := range snapshot {
		out = append(out, prompts.SkillCoverage{Skill: c.Skill, Asked: c.Asked, TargetMin: c.Target.Min, TargetMax: c.Target.Max})
	}
	return out
}

func introductionText(s *Session) string {
	if s.Introduction == nil {
		return ""
	}
	return s.Introduction.Answer
}

func askedQuestions(s *Session) []string {
	out := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		out = append(out, q.Question)
	}
	return out
}

type scoredQuestion struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Skills   []string `json:"skills,omitempty"`
	Score    float64  `json:"score"`
	Total    float64  `json:"total"`
}

func scoredQuestions(s *Session) []scoredQuestion {
	out := make([]scoredQuestion, 0, len(s.Questions))
	for _, q := range s.Questions {
		out = append(out, scoredQuestion{Question: q.Question, Answer: q.Answer, Skills: q.Skills, Score: q.ScoreObtained, Total: q.TotalScore})
	}
	return out
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

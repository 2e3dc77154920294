package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/ai-recruiter/internal/completion"
	"github.com/spigell/ai-recruiter/internal/completion/gemini"
	"github.com/spigell/ai-recruiter/internal/completion/openai"
	"github.com/spigell/ai-recruiter/internal/coverage"
	"github.com/spigell/ai-recruiter/internal/detector"
	"github.com/spigell/ai-recruiter/internal/interview"
	"github.com/spigell/ai-recruiter/internal/logger"
	"github.com/spigell/ai-recruiter/internal/performance"
	"github.com/spigell/ai-recruiter/internal/prompts"
	"github.com/spigell/ai-recruiter/internal/secrets"
	"github.com/spigell/ai-recruiter/internal/store"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// application bundles everything a command needs.
type application struct {
	config       *Config
	logger       *zap.Logger
	gateway      *completion.Gateway
	orchestrator *interview.Orchestrator
	aggregator   *performance.Aggregator
	store        *store.Store
}

var newLogger = logger.New

func newApplication(ctx context.Context) (*application, error) {
	logger, err := newLogger(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}
	if config == nil || config.AI == nil {
		return nil, errors.New("ai configuration is required")
	}

	logger.Info("starting the ai-recruiter", zap.String("version", version))

	gateway, err := newGateway(config.AI, logger)
	if err != nil {
		return nil, err
	}

	pm, err := prompts.NewManager()
	if err != nil {
		return nil, err
	}

	var opts []interview.Option
	if config.Detector != nil && config.Detector.Enabled {
		opts = append(opts, interview.WithDetector(detector.New(config.Detector.URL, config.Detector.Timeout, logger.Named("detector"))))
	}

	orchestrator, err := interview.NewOrchestrator(gateway, pm, interviewConfig(config), logger, opts...)
	if err != nil {
		return nil, err
	}

	summaryModel := config.AI.SummaryModel
	if summaryModel == "" {
		summaryModel = config.AI.Model
	}
	recent := 0
	if config.Summary != nil {
		recent = config.Summary.RecentSessions
	}
	aggregator, err := performance.NewAggregator(gateway, pm, performance.Config{
		Provider:       config.AI.Provider,
		Model:          summaryModel,
		RecentSessions: recent,
	}, logger)
	if err != nil {
		return nil, err
	}

	storage := &StorageConfig{}
	if config.Storage != nil {
		storage = config.Storage
	}
	st, err := store.Open(storage.Driver, storage.DSN, logger.Named("store"))
	if err != nil {
		return nil, err
	}

	return &application{
		config:       config,
		logger:       logger,
		gateway:      gateway,
		orchestrator: orchestrator,
		aggregator:   aggregator,
		store:        st,
	}, nil
}

func (a *application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing the store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// Well-known API key variables, usually kept in .env.
var providerKeyEnv = map[string]string{
	"gemini":   "GEMINI_API_KEY",
	"openai":   "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
}

// newGateway registers a factory for every configured provider. Gemini has
// its own client; every other name is treated as OpenAI-compatible.
func newGateway(cfg *AIConfig, logger *zap.Logger) (*completion.Gateway, error) {
	providers := make(map[string]*ProviderConfig, len(cfg.Providers)+1)
	for name, p := range cfg.Providers {
		if p != nil {
			providers[strings.ToLower(name)] = p
		}
	}
	// The selected provider works with nothing but its key in the environment.
	if selected := strings.ToLower(strings.TrimSpace(cfg.Provider)); selected != "" {
		if _, ok := providers[selected]; !ok {
			providers[selected] = &ProviderConfig{}
		}
	}

	configs := make(map[string]completion.ProviderConfig, len(providers))
	for name, p := range providers {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  name + " api key",
			Value: p.APIKey,
			File:  p.APIKeyFile,
			Env:   providerKeyEnv[name],
		})
		if err != nil && !errors.Is(err, secrets.ErrNotConfigured) {
			return nil, err
		}

		timeout := p.Timeout
		if timeout <= 0 {
			timeout = cfg.Timeout
		}

		configs[name] = completion.ProviderConfig{
			Name:         name,
			APIKey:       apiKey,
			BaseURL:      p.BaseURL,
			DefaultModel: p.Model,
			Timeout:      timeout,
		}
	}

	gateway := completion.NewGateway(configs, logger.Named("completion"), cfg.MaxLogLength)
	for name := range configs {
		if name == gemini.ProviderName {
			gateway.Register(name, gemini.Factory)
			continue
		}
		gateway.Register(name, openai.Factory)
	}

	return gateway, nil
}

func interviewConfig(config *Config) interview.Config {
	cfg := interview.Config{
		Provider: config.AI.Provider,
		Model:    config.AI.Model,
	}
	if ic := config.Interview; ic != nil {
		cfg.MaxQuestions = ic.MaxQuestions
		cfg.CoverageMinQuestions = ic.CoverageMinQuestions
		cfg.SkillTarget = coverage.Range{Min: ic.SkillTargetMin, Max: ic.SkillTargetMax}
		cfg.QuestionTotalScore = ic.QuestionTotalScore
		cfg.PassThreshold = ic.PassThreshold
	}
	return cfg
}

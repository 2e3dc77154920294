package completion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/spigell/ai-recruiter/internal/logger"
	"github.com/spigell/ai-recruiter/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultMaxLogLength = 200

// Gateway routes completion requests to named providers. Providers are built
// lazily on first use and cached for the lifetime of the gateway.
type Gateway struct {
	configs   map[string]ProviderConfig
	factories map[string]Factory
	logger    *zap.Logger
	maxLogLen int

	mu        sync.RWMutex
	providers map[string]Provider
	group     singleflight.Group
}

func NewGateway(configs map[string]ProviderConfig, log *zap.Logger, maxLogLength int) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	normalized := make(map[string]ProviderConfig, len(configs))
	for name, cfg := range configs {
		key := normalizeName(name)
		cfg.Name = key
		if cfg.MaxLogLength <= 0 {
			cfg.MaxLogLength = maxLogLength
		}
		normalized[key] = cfg
	}

	return &Gateway{
		configs:   normalized,
		factories: make(map[string]Factory),
		logger:    log,
		maxLogLen: maxLogLength,
		providers: make(map[string]Provider),
	}
}

// Register binds a factory to a provider name. Registration is expected to
// happen before the first Complete call.
func (g *Gateway) Register(name string, factory Factory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.factories[normalizeName(name)] = factory
}

// Names returns the providers that are both registered and configured.
func (g *Gateway) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.factories))
	for name := range g.factories {
		if _, ok := g.configs[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Complete sends the request to the named provider and returns the raw text.
func (g *Gateway) Complete(ctx context.Context, providerName string, req Request) (string, error) {
	name := normalizeName(providerName)

	provider, err := g.provider(ctx, name)
	if err != nil {
		return "", err
	}

	cfg := g.configs[name]
	if cfg.Timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
	}

	if strings.TrimSpace(req.Model) == "" {
		req.Model = cfg.DefaultModel
	}

	log := logger.WithCommonFields(g.logger, name, req.Model)
	schemaName := ""
	if req.Schema.Usable() {
		schemaName = req.Schema.Name
	}

	log.Debug("completion request",
		zap.String("schema", schemaName),
		zap.Int("history_length", len(req.History)),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Prompt, g.maxLogLen)),
	)

	started := time.Now()
	raw, err := provider.Complete(ctx, req)
	if err != nil {
		err = wrapProviderError(name, err)
		log.Warn("completion failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return "", err
	}

	if strings.TrimSpace(raw) == "" {
		return "", &GatewayError{Provider: name, Code: ErrCodeEmptyResponse, Message: "provider returned empty response"}
	}

	log.Debug("completion response",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	return raw, nil
}

func (g *Gateway) provider(ctx context.Context, name string) (Provider, error) {
	g.mu.RLock()
	if p, ok := g.providers[name]; ok {
		g.mu.RUnlock()
		return p, nil
	}
	factory, registered := g.factories[name]
	g.mu.RUnlock()

	cfg, configured := g.configs[name]
	if !registered || !configured {
		return nil, &ProviderNotFoundError{Name: name}
	}

	v, err, _ := g.group.Do(name, func() (any, error) {
		g.mu.RLock()
		if p, ok := g.providers[name]; ok {
			g.mu.RUnlock()
			return p, nil
		}
		g.mu.RUnlock()

		// The build is shared by every waiter, so one caller's cancellation must not fail it.
		p, err := factory(context.WithoutCancel(ctx), cfg, logger.WithCommonFields(g.logger, name, cfg.DefaultModel))
		if err != nil {
			return nil, &GatewayError{
				Provider: name,
				Code:     ErrCodeConfiguration,
				Message:  "failed to initialize provider",
				Err:      err,
			}
		}

		g.mu.Lock()
		g.providers[name] = p
		g.mu.Unlock()

		g.logger.Info("completion provider initialized", zap.String(logger.FieldProvider, name))
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(Provider), nil
}

func wrapProviderError(name string, err error) error {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.Provider == "" {
			gwErr.Provider = name
		}
		return gwErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Provider: name, Code: ErrCodeTimeout, Message: "request timed out", Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return &GatewayError{Provider: name, Code: ErrCodeServiceUnavailable, Message: "request failed", Err: err}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package completion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubProvider struct {
	name     string
	complete func(ctx context.Context, req Request) (string, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, req Request) (string, error) {
	return s.complete(ctx, req)
}

func stubFactory(builds *int32, complete func(ctx context.Context, req Request) (string, error)) Factory {
	return func(_ context.Context, cfg ProviderConfig, _ *zap.Logger) (Provider, error) {
		atomic.AddInt32(builds, 1)
		return &stubProvider{name: cfg.Name, complete: complete}, nil
	}
}

func TestGatewayUnknownProvider(t *testing.T) {
	t.Parallel()

	gw := NewGateway(map[string]ProviderConfig{"configured": {}}, nil, 0)
	var builds int32
	gw.Register("registered", stubFactory(&builds, nil))

	for _, name := range []string{"missing", "registered", "configured"} {
		_, err := gw.Complete(context.Background(), name, Request{Prompt: "hi"})
		var notFound *ProviderNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("%s: expected ProviderNotFoundError, got %v", name, err)
		}
		if notFound.Name != name {
			t.Fatalf("expected name %q, got %q", name, notFound.Name)
		}
	}

	if builds != 0 {
		t.Fatalf("expected no provider builds, got %d", builds)
	}
}

func TestGatewayBuildsProviderOnce(t *testing.T) {
	t.Parallel()

	gw := NewGateway(map[string]ProviderConfig{"Gemini": {DefaultModel: "model-a"}}, nil, 0)
	var builds int32
	var mu sync.Mutex
	var models []string
	gw.Register("gemini", stubFactory(&builds, func(_ context.Context, req Request) (string, error) {
		mu.Lock()
		models = append(models, req.Model)
		mu.Unlock()
		return `{"ok":true}`, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := gw.Complete(context.Background(), " GEMINI ", Request{Prompt: "hi"}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&builds); got != 1 {
		t.Fatalf("expected a single build, got %d", got)
	}
	for _, model := range models {
		if model != "model-a" {
			t.Fatalf("expected default model to be applied, got %q", model)
		}
	}
}

func TestGatewayAppliesTimeout(t *testing.T) {
	t.Parallel()

	gw := NewGateway(map[string]ProviderConfig{"slow": {Timeout: 10 * time.Millisecond}}, nil, 0)
	var builds int32
	gw.Register("slow", stubFactory(&builds, func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	_, err := gw.Complete(context.Background(), "slow", Request{Prompt: "hi"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Code != ErrCodeTimeout {
		t.Fatalf("expected timeout code, got %q", gwErr.Code)
	}
	if !IsTransient(err) {
		t.Fatalf("expected timeout to be transient")
	}
}

func TestGatewayEmptyResponse(t *testing.T) {
	t.Parallel()

	gw := NewGateway(map[string]ProviderConfig{"quiet": {}}, nil, 0)
	var builds int32
	gw.Register("quiet", stubFactory(&builds, func(context.Context, Request) (string, error) {
		return "   ", nil
	}))

	_, err := gw.Complete(context.Background(), "quiet", Request{Prompt: "hi"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) || gwErr.Code != ErrCodeEmptyResponse {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestGatewayFactoryFailure(t *testing.T) {
	t.Parallel()

	gw := NewGateway(map[string]ProviderConfig{"broken": {}}, nil, 0)
	gw.Register("broken", func(context.Context, ProviderConfig, *zap.Logger) (Provider, error) {
		return nil, errors.New("api key is required")
	})

	_, err := gw.Complete(context.Background(), "broken", Request{Prompt: "hi"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) || gwErr.Code != ErrCodeConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if IsTransient(err) {
		t.Fatalf("configuration errors must not be transient")
	}
}

func TestGatewayBuildSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	gw := NewGateway(map[string]ProviderConfig{"gemini": {}}, nil, 0)
	var builds int32
	var buildErr error
	gw.Register("gemini", func(ctx context.Context, cfg ProviderConfig, _ *zap.Logger) (Provider, error) {
		atomic.AddInt32(&builds, 1)
		buildErr = ctx.Err()
		if buildErr != nil {
			return nil, buildErr
		}
		return &stubProvider{name: cfg.Name, complete: func(ctx context.Context, _ Request) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "ok", nil
		}}, nil
	})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gw.Complete(cancelled, "gemini", Request{Prompt: "hi"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the call itself to be cancelled, got %v", err)
	}
	if buildErr != nil {
		t.Fatalf("expected factory context to ignore cancellation, got %v", buildErr)
	}

	out, err := gw.Complete(context.Background(), "gemini", Request{Prompt: "hi"})
	if err != nil || out != "ok" {
		t.Fatalf("expected cached provider to answer, got %q, %v", out, err)
	}
	if builds != 1 {
		t.Fatalf("expected one build, got %d", builds)
	}
}

func TestGatewayWrapsPlainErrors(t *testing.T) {
	t.Parallel()

	gw := NewGateway(map[string]ProviderConfig{"flaky": {}}, nil, 0)
	var builds int32
	gw.Register("flaky", stubFactory(&builds, func(context.Context, Request) (string, error) {
		return "", errors.New("connection reset")
	}))

	_, err := gw.Complete(context.Background(), "flaky", Request{Prompt: "hi"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Provider != "flaky" || gwErr.Code != ErrCodeServiceUnavailable {
		t.Fatalf("unexpected error: %+v", gwErr)
	}
}

func TestConversationHistoryDropsSystemMessages(t *testing.T) {
	t.Parallel()

	req := Request{History: []Message{
		{Role: RoleSystem, Content: "ignored"},
		{Role: RoleAssistant, Content: "question"},
		{Role: RoleUser, Content: "answer"},
	}}

	history := req.ConversationHistory()
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != RoleAssistant || history[1].Role != RoleUser {
		t.Fatalf("unexpected history order: %+v", history)
	}
}

func TestSchemaUsable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		schema *Schema
		expect bool
	}{
		{name: "nil", schema: nil, expect: false},
		{name: "missing name", schema: &Schema{Definition: map[string]any{"type": "object"}}, expect: false},
		{name: "missing definition", schema: &Schema{Name: "question"}, expect: false},
		{name: "complete", schema: &Schema{Name: "question", Definition: map[string]any{"type": "object"}}, expect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.schema.Usable(); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestCodeForStatus(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		401: ErrCodeInvalidAPIKey,
		403: ErrCodeInvalidAPIKey,
		429: ErrCodeRateLimit,
		504: ErrCodeTimeout,
		503: ErrCodeServiceUnavailable,
		400: ErrCodeInvalidInput,
	}

	for status, expect := range tests {
		if got := CodeForStatus(status); got != expect {
			t.Fatalf("status %d: expected %q, got %q", status, expect, got)
		}
	}
}

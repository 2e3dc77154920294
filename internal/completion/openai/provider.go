package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spigell/ai-recruiter/internal/completion"
	"go.uber.org/zap"
)

const defaultTimeout = 120 * time.Second

type preset struct {
	baseURL string
	model   string
}

// Known OpenAI-compatible services. Any other name needs an explicit base URL.
var presets = map[string]preset{
	"openai":   {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	"deepseek": {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"},
}

// chatClient is the part of the go-openai client the provider calls.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Provider calls an OpenAI-compatible chat completions endpoint.
type Provider struct {
	name   string
	model  string
	client chatClient
	logger *zap.Logger
}

// Compile-time check: *Provider satisfies the completion.Provider interface.
var _ completion.Provider = (*Provider)(nil)

// Factory builds an OpenAI-compatible provider for the completion gateway.
func Factory(_ context.Context, cfg completion.ProviderConfig, logger *zap.Logger) (completion.Provider, error) {
	name := strings.TrimSpace(cfg.Name)
	known := presets[name]

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = known.baseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required for provider %q", name)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && known.baseURL != "" {
		return nil, fmt.Errorf("%s api key is required", name)
	}

	model := strings.TrimSpace(cfg.DefaultModel)
	if model == "" {
		model = known.model
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Provider{
		name:   name,
		model:  model,
		client: goopenai.NewClientWithConfig(clientCfg),
		logger: logger,
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// Complete sends the system context, the history and the prompt as one chat completion call.
func (p *Provider) Complete(ctx context.Context, req completion.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", p.gatewayError(completion.ErrCodeInvalidInput, "prompt must not be empty", nil)
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: buildMessages(req, prompt),
	}
	if req.Schema.Usable() {
		definition, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return "", p.gatewayError(completion.ErrCodeInvalidInput, "schema is not valid JSON", err)
		}
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(definition),
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		classified := p.classifyError(err)
		p.logger.Warn("chat completion failed", zap.String("model", model), zap.Error(classified))
		return "", classified
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		p.logger.Warn("chat completion returned no content", zap.String("model", model), zap.Int("choices", len(resp.Choices)))
		return "", p.gatewayError(completion.ErrCodeEmptyResponse, "provider returned no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildMessages(req completion.Request, prompt string) []goopenai.ChatCompletionMessage {
	history := req.ConversationHistory()
	messages := make([]goopenai.ChatCompletionMessage, 0, len(history)+2)
	if system := strings.TrimSpace(req.SystemContext); system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	for _, msg := range history {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	return append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt})
}

// classifyError maps go-openai errors onto gateway codes.
func (p *Provider) classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = fmt.Sprintf("provider returned status %d", apiErr.HTTPStatusCode)
		}
		return p.gatewayError(completion.CodeForStatus(apiErr.HTTPStatusCode), message, err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return p.gatewayError(completion.CodeForStatus(reqErr.HTTPStatusCode), fmt.Sprintf("provider returned status %d", reqErr.HTTPStatusCode), err)
	}

	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return p.gatewayError(completion.ErrCodeTimeout, "request timed out", err)
	}
	return p.gatewayError(completion.ErrCodeServiceUnavailable, "request failed", err)
}

func (p *Provider) gatewayError(code, message string, err error) error {
	return &completion.GatewayError{Provider: p.name, Code: code, Message: message, Err: err}
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/spigell/ai-recruiter/internal/completion"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Provider talks to the Gemini API through the genai chat interface.
type Provider struct {
	chats  chatCreator
	model  string
	logger *zap.Logger
}

// Factory builds a Gemini provider for the completion gateway.
func Factory(ctx context.Context, cfg completion.ProviderConfig, logger *zap.Logger) (completion.Provider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, err
	}

	return newProvider(genaiChats{chats: client.Chats}, cfg.DefaultModel, logger), nil
}

func newProvider(chats chatCreator, model string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Provider{chats: chats, model: model, logger: logger}
}

func (p *Provider) Name() string {
	return ProviderName
}

// Complete replays the history into a fresh chat and sends the prompt as the next user turn.
func (p *Provider) Complete(ctx context.Context, req completion.Request) (string, error) {
	if p == nil || p.chats == nil {
		return "", errors.New("gemini provider is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", &completion.GatewayError{Provider: ProviderName, Code: completion.ErrCodeInvalidInput, Message: "prompt must not be empty"}
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}

	chat, err := p.chats.Create(ctx, model, buildConfig(req), buildHistory(req.ConversationHistory()))
	if err != nil {
		return "", classifyError(err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", classifyError(err)
	}

	output := responseText(resp)
	if output == "" {
		return "", &completion.GatewayError{Provider: ProviderName, Code: completion.ErrCodeEmptyResponse, Message: "gemini api returned empty response"}
	}

	return output, nil
}

func buildConfig(req completion.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if system := strings.TrimSpace(req.SystemContext); system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Schema.Usable() {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.Schema.Definition
	}
	return cfg
}

func buildHistory(messages []completion.Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if msg.Role == completion.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(text, role))
	}
	return history
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &completion.GatewayError{Provider: ProviderName, Code: completion.ErrCodeTimeout, Message: "request timed out", Err: err}
	}

	if apiErr, ok := asAPIError(err); ok {
		return &completion.GatewayError{
			Provider: ProviderName,
			Code:     completion.CodeForStatus(apiErr.Code),
			Message:  apiErr.Message,
			Err:      err,
		}
	}

	return err
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

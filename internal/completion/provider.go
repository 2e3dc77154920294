package completion

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single prior turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema constrains the structured output of a completion.
// Definition is a JSON Schema document.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Usable reports whether the schema carries both a name and a definition.
// Providers only request structured output for usable schemas.
func (s *Schema) Usable() bool {
	return s != nil && s.Name != "" && len(s.Definition) > 0
}

type Request struct {
	Model         string
	SystemContext string
	Prompt        string
	Schema        *Schema
	History       []Message
}

// ConversationHistory returns the history without system-role entries.
// System context travels separately in SystemContext.
func (r Request) ConversationHistory() []Message {
	history := make([]Message, 0, len(r.History))
	for _, msg := range r.History {
		if msg.Role == RoleSystem {
			continue
		}
		history = append(history, msg)
	}
	return history
}

// Provider is a single LLM backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// ProviderConfig is everything a factory needs to build a provider.
type ProviderConfig struct {
	Name         string
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxLogLength int
}

// Factory builds a provider from its configuration.
type Factory func(ctx context.Context, cfg ProviderConfig, logger *zap.Logger) (Provider, error)

package ai

import (
	"context"
)

// Provider is the interface for chat-completion backends
type Provider interface {
	// Chat sends an ordered message list and returns the assistant reply text
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// Model returns the model identifier used for completions
	Model() string
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ProviderFactory creates a completion provider from configuration values
type ProviderFactory func(config map[string]string) (Provider, error)

// ProviderRegistry stores available completion providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "completion provider not found: " + e.Name
}

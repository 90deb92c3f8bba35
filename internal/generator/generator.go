// Package generator streams answer tokens from a chat completion provider.
package generator

import (
	"context"
	"fmt"
)

// Message roles understood by chat completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat completion message.
type Message struct {
	Role    string
	Content string
}

// TokenGenerator streams an answer for a prepared message list. emit is called
// once per token in arrival order; when emit returns an error the generator
// stops and returns it.
type TokenGenerator interface {
	Stream(ctx context.Context, messages []Message, emit func(token string) error) error
}

// Options configures generator construction.
type Options struct {
	Provider    string
	Model       string
	Temperature float64
	APIKey      string
}

// New creates a token generator for the configured provider.
func New(opts Options) (TokenGenerator, error) {
	switch opts.Provider {
	case "openai", "":
		return NewOpenAIGenerator(opts.APIKey, opts.Model, opts.Temperature)
	default:
		return nil, fmt.Errorf("unknown AI provider: %s (supported: openai)", opts.Provider)
	}
}

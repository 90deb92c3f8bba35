package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// ErrAPIKeyNotSet is returned when constructing an OpenAI generator without a key.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set: please set OPENAI_API_KEY")

// OpenAIGenerator streams chat completions from the OpenAI API.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIGenerator creates a generator for the given model.
func NewOpenAIGenerator(apiKey, model string, temperature float64) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	return &OpenAIGenerator{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: temperature,
	}, nil
}

// Stream runs a streaming chat completion and emits each content delta.
func (g *OpenAIGenerator) Stream(ctx context.Context, messages []Message, emit func(token string) error) error {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(g.temperature),
	}

	stream := g.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		if err := emit(token); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("chat completion stream: %w", err)
	}
	return nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

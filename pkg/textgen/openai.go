package textgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

var _ Completer = (*OpenAICompleter)(nil)

// OpenAICompleter implements Completer using the OpenAI chat completions API.
type OpenAICompleter struct {
	Client *openai.Client

	// Model is the model used when the request does not name one.
	Model string
}

// NewOpenAICompleter creates a completer with a client built from the given
// API key. baseURL is optional and supports OpenAI-compatible endpoints.
func NewOpenAICompleter(apiKey, baseURL, model string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("textgen: openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAICompleter{Client: &client, Model: model}, nil
}

// Complete submits the turns as one chat completion and returns the first
// choice's message content.
func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.Model
	}
	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convTurns(req.Turns),
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}

	resp, err := c.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("textgen: openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("textgen: openai chat: no choices")
	}
	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", errors.New("textgen: openai chat: empty completion")
	}
	return text, nil
}

func convTurns(turns []Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(t.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(t.Content))
		default:
			out = append(out, openai.UserMessage(t.Content))
		}
	}
	return out
}

package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

var _ Completer = (*GeminiCompleter)(nil)

// GeminiCompleter implements Completer using the Google Gemini API.
type GeminiCompleter struct {
	Client *genai.Client

	// Model should not start with "models/".
	Model string
}

// NewGeminiCompleter creates a completer with a client built from the given
// API key.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("textgen: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("textgen: gemini client: %w", err)
	}
	return &GeminiCompleter{Client: client, Model: model}, nil
}

// Complete submits the turns as one generation request. System turns are
// folded into the system instruction; user and assistant turns map to
// user/model contents.
func (c *GeminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.Model
	}
	cfg, contents := c.convTurns(req)
	if len(contents) == 0 {
		return "", errors.New("textgen: gemini: no contents")
	}

	resp, err := c.Client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return "", fmt.Errorf("textgen: gemini: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("textgen: gemini: no candidates")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != genai.FinishReasonStop {
		return "", fmt.Errorf("textgen: gemini: unexpected finish reason: %s", cand.FinishReason)
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("textgen: gemini: empty completion")
	}
	return sb.String(), nil
}

func (c *GeminiCompleter) convTurns(req Request) (*genai.GenerateContentConfig, []*genai.Content) {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, t := range req.Turns {
		switch t.Role {
		case RoleSystem:
			system = append(system, t.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: t.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: t.Content}},
			})
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n")}},
		}
	}
	return cfg, contents
}

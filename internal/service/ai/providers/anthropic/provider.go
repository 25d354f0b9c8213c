package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"elenchus/internal/service/ai"
)

const defaultMaxTokens = 2048

// Provider implements the ai.Provider interface for Anthropic (Claude)
// models. It is stateless: the API key arrives per call so one instance
// serves the entire credential pool.
type Provider struct {
	model string
}

// NewProvider creates a new Anthropic provider for the given model.
func NewProvider(model string) (*Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}
	return &Provider{model: model}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// Generate sends one messages request to the Anthropic API.
func (p *Provider) Generate(ctx context.Context, apiKey string, req *ai.Request) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))

	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", &ai.TransientError{Err: fmt.Errorf("empty response from anthropic")}
}

// classifyError separates retryable API failures (rate limits, overload,
// server errors, network trouble) from rejections.
func classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429, apiErr.StatusCode >= 500, apiErr.StatusCode == 408:
			return &ai.TransientError{Err: fmt.Errorf("anthropic API error (%d): %w", apiErr.StatusCode, err)}
		default:
			return fmt.Errorf("anthropic API error (%d): %w", apiErr.StatusCode, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ai.TransientError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ai.TransientError{Err: fmt.Errorf("anthropic request failed: %w", err)}
	}

	return fmt.Errorf("anthropic request failed: %w", err)
}

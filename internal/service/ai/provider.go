package ai

import (
	"context"
	"errors"
)

// Message is one prior exchange element passed as generation context.
type Message struct {
	// Role is either "user" or "assistant"
	Role    string
	Content string
}

// Request contains the parameters for one generation call.
type Request struct {
	// System is an optional system prompt.
	System string

	// Prompt is the text the provider should respond to.
	Prompt string

	// History contains the prior conversation, oldest first.
	History []Message

	// MaxTokens bounds the response length; 0 means the provider default.
	MaxTokens int

	// Temperature overrides the sampling temperature when non-nil.
	Temperature *float64
}

// Provider is a stateless text-generation capability. The credential is
// passed per call so a single provider instance serves the whole key pool.
//
// Providers wrap retryable failures (timeouts, rate limits, 5xx) in
// *TransientError; anything else is treated as a rejection and not retried.
type Provider interface {
	Generate(ctx context.Context, apiKey string, req *Request) (string, error)
	Name() string
}

// TransientError marks a provider failure as retryable with another
// credential.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

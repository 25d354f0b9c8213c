package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"elenchus/internal/domain"
)

// Gateway wraps a provider with the credential pool, a per-attempt timeout
// and a bounded retry policy. It is stateless beyond the keyring it owns a
// reference to, so it can be tested against a fake provider.
type Gateway struct {
	provider Provider
	keys     *Keyring
	timeout  time.Duration
	attempts int
	logger   *slog.Logger
}

// NewGateway creates a gateway over the given provider and key pool.
func NewGateway(provider Provider, keys *Keyring, timeout time.Duration, attempts int, logger *slog.Logger) *Gateway {
	if attempts <= 0 {
		attempts = 3
	}
	return &Gateway{
		provider: provider,
		keys:     keys,
		timeout:  timeout,
		attempts: attempts,
		logger:   logger,
	}
}

// Generate performs one generation call. Transient provider failures report
// the credential to the keyring and retry with the next one, up to the
// attempt cap; exhaustion yields domain.ErrGenerationUnavailable.
// Non-transient failures yield domain.ErrGenerationRejected immediately.
func (g *Gateway) Generate(ctx context.Context, req *Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt < g.attempts; attempt++ {
		cred, err := g.keys.Acquire()
		if err != nil {
			// Every credential is cooling down; propagate as-is.
			return "", err
		}

		if err := cred.Limiter().Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		text, err := g.provider.Generate(callCtx, cred.Key, req)
		cancel()

		if err == nil {
			return text, nil
		}

		if IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			g.keys.ReportFailure(cred)
			g.logger.Warn("generation attempt failed, rotating credential",
				"provider", g.provider.Name(),
				"attempt", attempt+1,
				"error", err,
			)
			lastErr = err
			continue
		}

		// The parent context is gone; retrying cannot help.
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, ctx.Err())
		}

		return "", fmt.Errorf("%w: %v", domain.ErrGenerationRejected, err)
	}

	return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, lastErr)
}

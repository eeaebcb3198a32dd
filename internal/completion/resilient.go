package completion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bendanzhentan/eliza/internal/capture"
	"github.com/bendanzhentan/eliza/internal/retry"
)

// Resilient wraps a Provider with retry logic, a per-request timeout and
// best-effort prompt/response transcripts.
type Resilient struct {
	provider    Provider
	retryConfig retry.Config
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewResilient creates a resilient completion wrapper.
func NewResilient(provider Provider, config retry.Config, timeout time.Duration, logger zerolog.Logger) *Resilient {
	return &Resilient{
		provider:    provider,
		retryConfig: config,
		timeout:     timeout,
		logger:      logger.With().Str("component", "completion").Logger(),
	}
}

// NewResilientWithDefaults uses the completion-tuned retry configuration
// and a two minute request timeout.
func NewResilientWithDefaults(provider Provider, logger zerolog.Logger) *Resilient {
	return NewResilient(provider, retry.CompletionConfig(), 2*time.Minute, logger)
}

// Complete implements Provider. Transient backend failures are retried with
// backoff; the last error is returned once attempts are exhausted.
func (r *Resilient) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	capture.WriteText("prompt", prompt)

	var response string
	result := retry.Do(ctx, r.retryConfig, r.logger, func() error {
		var err error
		response, err = r.provider.Complete(ctx, prompt, stop)
		return err
	})

	if !result.Success {
		r.logger.Warn().
			Err(result.LastError).
			Int("attempts", result.Attempts).
			Dur("total_duration", result.TotalDuration).
			Msg("completion failed after retries")
		return "", result.LastError
	}

	capture.WriteText("response", response)

	r.logger.Debug().
		Int("attempts", result.Attempts).
		Dur("total_duration", result.TotalDuration).
		Int("response_chars", len(response)).
		Msg("completion succeeded")
	return response, nil
}

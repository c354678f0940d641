// Package retry executes stage invocations with bounded exponential backoff,
// consulting the failure classifier to decide whether and how long to wait.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
)

// Config holds retry configuration for one invocation.
type Config struct {
	MaxRetries   int // retries after the initial attempt
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConfig returns sensible retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
	}
}

// Result is the outcome of a retried invocation: either the raw output of a
// successful call, or the envelope describing the final failure.
type Result struct {
	Success  bool
	Data     string
	Envelope *perrors.Envelope
}

// Do invokes fn, retrying recoverable failures with exponential backoff.
// A rate-limit classification that carries a wait hint overrides the backoff
// delay for that attempt. Non-recoverable failures return immediately.
// Errors never escape the coordinator; the caller always gets a Result.
//
// The backoff sleep is context-aware so a cancelled caller is released
// without waiting out the delay.
func Do(ctx context.Context, cfg Config, logger zerolog.Logger, fn func(ctx context.Context) (string, error)) Result {
	delay := cfg.InitialDelay
	var last perrors.Classification

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return Result{Success: true, Data: out}
		}

		last = perrors.Classify(err)
		if !last.Recoverable {
			logger.Error().
				Str("error_type", last.Type).
				Err(err).
				Msg("stage invocation failed (not recoverable)")
			return Result{Envelope: last.Envelope()}
		}

		if last.RetryAfter > 0 {
			delay = time.Duration(last.RetryAfter) * time.Second
		}
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		if attempt == cfg.MaxRetries {
			break
		}

		logger.Warn().
			Int("attempt", attempt+1).
			Int("max_retries", cfg.MaxRetries).
			Dur("delay", delay).
			Str("error_type", last.Type).
			Msg("stage invocation failed, retrying")

		select {
		case <-ctx.Done():
			return Result{Envelope: perrors.Classify(ctx.Err()).Envelope()}
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	logger.Error().
		Str("error_type", last.Type).
		Int("attempts", cfg.MaxRetries+1).
		Msg("stage invocation failed, retries exhausted")
	return Result{Envelope: last.Envelope()}
}

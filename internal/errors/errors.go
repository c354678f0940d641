// Package errors provides the failure taxonomy for stage invocations and the
// error envelope returned to callers in place of a parsed artifact.
package errors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Error types attached to envelopes and classifications.
const (
	TypeEmptyResponse  = "empty_response"
	TypeParseFailure   = "parse_failure"
	TypeTokenExhausted = "token_exhausted"
	TypeRateLimit      = "rate_limit"
	TypeTimeout        = "timeout"
	TypeNotFound       = "not_found"
	TypeUnknown        = "unknown"
)

// defaultRetryAfter is used when a rate-limit error carries no delay hint.
const defaultRetryAfter = 60

// ErrNotFound marks user-correctable lookup failures (session, handler, step).
var ErrNotFound = errors.New("not found")

// NotFound wraps ErrNotFound with a description of what was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// ProviderError represents a failed call to the model provider.
// Message keeps the provider's original text so classification can
// pattern-match on it.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// Envelope is the structured value returned instead of a parsed result when
// extraction or invocation fails. It is a normal return value, not an error.
type Envelope struct {
	Error       string `json:"error"`
	RawOutput   string `json:"raw_output,omitempty"`
	ErrorType   string `json:"error_type,omitempty"`
	RetryAfter  int    `json:"retry_after,omitempty"`
	Recoverable bool   `json:"recoverable"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Classification is the result of inspecting a raised error.
type Classification struct {
	Type        string
	Message     string
	Recoverable bool
	RetryAfter  int // seconds; 0 means no hint
	Suggestion  string
}

// Envelope converts a classification into the caller-facing envelope.
func (c Classification) Envelope() *Envelope {
	return &Envelope{
		Error:       c.Message,
		ErrorType:   c.Type,
		RetryAfter:  c.RetryAfter,
		Recoverable: c.Recoverable,
		Suggestion:  c.Suggestion,
	}
}

// retryHintRe matches provider messages like "Please retry in 19.384878961s".
var retryHintRe = regexp.MustCompile(`retry in ([\d.]+)s`)

// Classify inspects a raised error and maps it onto the taxonomy.
//
// Token/context-limit errors cannot be fixed by retrying unchanged input, so
// they are terminal. Rate limits are transient and carry a concrete wait hint
// when the provider supplies one. Unknown errors default to non-recoverable so
// real bugs are not masked by silent retries.
func Classify(err error) Classification {
	msg := err.Error()
	lower := strings.ToLower(msg)

	var provErr *ProviderError
	isProvider := errors.As(err, &provErr)

	switch {
	case strings.Contains(msg, "400 INVALID_ARGUMENT"),
		strings.Contains(lower, "token count exceeds"),
		isProvider && provErr.StatusCode == 400 && strings.Contains(lower, "token"):
		return Classification{
			Type:        TypeTokenExhausted,
			Message:     "Input token limit exceeded. Please reduce context size or use a model with a larger context window.",
			Recoverable: false,
			Suggestion:  "Try reducing the amount of context being sent, or split the task into smaller chunks.",
		}

	case strings.Contains(msg, "429 RESOURCE_EXHAUSTED"),
		strings.Contains(lower, "quota exceeded"),
		isProvider && provErr.StatusCode == 429:
		retryAfter := parseRetryHint(msg)
		return Classification{
			Type:        TypeRateLimit,
			Message:     fmt.Sprintf("API rate limit exceeded. Please wait %d seconds before retrying.", retryAfter),
			Recoverable: true,
			RetryAfter:  retryAfter,
			Suggestion:  fmt.Sprintf("The system will automatically retry in %d seconds. You can also manually retry later.", retryAfter),
		}

	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(lower, "deadline exceeded"),
		strings.Contains(lower, "timed out"):
		return Classification{
			Type:        TypeTimeout,
			Message:     "Request timed out. The operation took too long to complete.",
			Recoverable: true,
			Suggestion:  "Try again or break down the task into smaller pieces.",
		}

	default:
		return Classification{
			Type:        TypeUnknown,
			Message:     "An unexpected error occurred: " + truncate(msg, 200),
			Recoverable: false,
			Suggestion:  "Check the logs for more details.",
		}
	}
}

// parseRetryHint extracts the wait hint from a provider message, rounding the
// fractional delay up to whole seconds via a one-second buffer, or falls back
// to the default delay. "retry in 19.38s" yields 20.
func parseRetryHint(msg string) int {
	if m := retryHintRe.FindStringSubmatch(msg); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			return int(math.Floor(secs)) + 1
		}
	}
	return defaultRetryAfter
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

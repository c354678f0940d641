package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_TokenExhausted(t *testing.T) {
	c := Classify(stderrors.New("400 INVALID_ARGUMENT: token count exceeds the maximum"))
	assert.Equal(t, TypeTokenExhausted, c.Type)
	assert.False(t, c.Recoverable)
	assert.NotEmpty(t, c.Suggestion)
}

func TestClassify_TokenExhaustedIsTerminal(t *testing.T) {
	// The "token count exceeds" signal alone must classify as terminal.
	c := Classify(stderrors.New("generation failed: Token Count Exceeds limit"))
	assert.Equal(t, TypeTokenExhausted, c.Type)
	assert.False(t, c.Recoverable)
}

func TestClassify_RateLimitWithHint(t *testing.T) {
	c := Classify(stderrors.New("429 RESOURCE_EXHAUSTED: quota exceeded. Please retry in 19.38s"))
	assert.Equal(t, TypeRateLimit, c.Type)
	assert.True(t, c.Recoverable)
	assert.Equal(t, 20, c.RetryAfter)
}

func TestClassify_RateLimitDefaultHint(t *testing.T) {
	c := Classify(stderrors.New("quota exceeded for metric generate_requests"))
	assert.Equal(t, TypeRateLimit, c.Type)
	assert.Equal(t, 60, c.RetryAfter)
}

func TestClassify_ProviderStatus429(t *testing.T) {
	err := fmt.Errorf("calling model: %w", &ProviderError{StatusCode: 429, Message: "slow down. Please retry in 5s"})
	c := Classify(err)
	assert.Equal(t, TypeRateLimit, c.Type)
	assert.Equal(t, 6, c.RetryAfter)
}

func TestClassify_Timeout(t *testing.T) {
	c := Classify(context.DeadlineExceeded)
	assert.Equal(t, TypeTimeout, c.Type)
	assert.True(t, c.Recoverable)
	assert.Zero(t, c.RetryAfter)
}

func TestClassify_Unknown(t *testing.T) {
	c := Classify(stderrors.New("something odd happened"))
	assert.Equal(t, TypeUnknown, c.Type)
	assert.False(t, c.Recoverable)
}

func TestClassificationEnvelope(t *testing.T) {
	env := Classify(stderrors.New("quota exceeded. Please retry in 2.5s")).Envelope()
	assert.Equal(t, TypeRateLimit, env.ErrorType)
	assert.Equal(t, 3, env.RetryAfter)
	assert.True(t, env.Recoverable)
	assert.NotEmpty(t, env.Error)
}

func TestNotFound(t *testing.T) {
	err := NotFound("session abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "session abc")
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
)

func fastConfig() Config {
	return Config{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(), zerolog.Nop(), func(ctx context.Context) (string, error) {
		calls++
		return "output", nil
	})
	assert.True(t, res.Success)
	assert.Equal(t, "output", res.Data)
	assert.Nil(t, res.Envelope)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRecoverableNoRetry(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(), zerolog.Nop(), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("400 INVALID_ARGUMENT: token count exceeds limit")
	})
	require.NotNil(t, res.Envelope)
	assert.False(t, res.Success)
	assert.Equal(t, perrors.TypeTokenExhausted, res.Envelope.ErrorType)
	assert.False(t, res.Envelope.Recoverable)
	assert.Equal(t, 1, calls)
}

func TestDo_BoundedRetries(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(), zerolog.Nop(), func(ctx context.Context) (string, error) {
		calls++
		return "", context.DeadlineExceeded
	})
	require.NotNil(t, res.Envelope)
	// Initial attempt plus MaxRetries retries, never more.
	assert.Equal(t, 4, calls)
	assert.Equal(t, perrors.TypeTimeout, res.Envelope.ErrorType)
	assert.True(t, res.Envelope.Recoverable)
}

func TestDo_EventualSuccess(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(), zerolog.Nop(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("operation timed out")
		}
		return "late output", nil
	})
	assert.True(t, res.Success)
	assert.Equal(t, "late output", res.Data)
	assert.Equal(t, 3, calls)
}

func TestDo_RateLimitHintCapped(t *testing.T) {
	// A rate-limit hint would ask for seconds of sleep; MaxDelay caps it so
	// the test (and a misbehaving provider) cannot stall the coordinator.
	calls := 0
	start := time.Now()
	cfg := Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	res := Do(context.Background(), cfg, zerolog.Nop(), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("429 RESOURCE_EXHAUSTED: quota exceeded. Please retry in 30s")
	})
	require.NotNil(t, res.Envelope)
	assert.Equal(t, 2, calls)
	assert.Equal(t, perrors.TypeRateLimit, res.Envelope.ErrorType)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := Config{MaxRetries: 3, InitialDelay: time.Minute, MaxDelay: time.Minute}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	res := Do(ctx, cfg, zerolog.Nop(), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("operation timed out")
	})
	require.NotNil(t, res.Envelope)
	assert.Equal(t, 1, calls)
}

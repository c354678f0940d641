package health

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("storage", func(ctx context.Context) Status { return StatusOK })
	c.Register("provider", func(ctx context.Context) Status { return StatusOK })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_OneDown(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("storage", func(ctx context.Context) Status { return StatusOK })
	c.Register("provider", func(ctx context.Context) Status { return StatusDown })

	assert.False(t, c.IsReady(context.Background()))
}

func TestChecker_DegradedStillReady(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("provider", func(ctx context.Context) Status { return StatusDegraded })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_NoChecks(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	assert.True(t, c.IsReady(context.Background()))
}

func TestStorageCheck(t *testing.T) {
	ok := StorageCheck(t.TempDir())
	assert.Equal(t, StatusOK, ok(context.Background()))

	bad := StorageCheck("/proc/definitely-not-writable")
	assert.Equal(t, StatusDown, bad(context.Background()))
}

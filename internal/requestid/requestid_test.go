package requestid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAndFrom(t *testing.T) {
	ctx := With(context.Background(), "req-123")
	assert.Equal(t, "req-123", From(ctx))
	assert.Empty(t, From(context.Background()))
}

func TestEnsure_AdoptsInboundUUID(t *testing.T) {
	inbound := uuid.New().String()
	ctx, id := Ensure(context.Background(), inbound)
	assert.Equal(t, inbound, id)
	assert.Equal(t, inbound, From(ctx))
}

func TestEnsure_ReplacesUnusableInbound(t *testing.T) {
	for _, bad := range []string{"", "not-a-uuid", "123"} {
		ctx, id := Ensure(context.Background(), bad)
		require.NotEqual(t, bad, id)
		_, err := uuid.Parse(id)
		assert.NoError(t, err, "minted id should be a uuid")
		assert.Equal(t, id, From(ctx))
	}
}

package llm

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ model string }

func (s *stubProvider) Generate(ctx context.Context, req Request) (string, error) { return "", nil }
func (s *stubProvider) ModelID() string                                           { return s.model }

func TestFactoryReusesProvider(t *testing.T) {
	f := NewFactory(zerolog.Nop())
	builds := 0
	f.build = func(apiKey, model string) Provider {
		builds++
		return &stubProvider{model: model}
	}

	p1, err := f.Provider("AIza-test-key-1234", "gemini-2.5-flash-lite")
	require.NoError(t, err)
	p2, err := f.Provider("AIza-test-key-1234", "gemini-2.5-flash-lite")
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, builds)
}

func TestFactoryRebuildsOnKeyChange(t *testing.T) {
	f := NewFactory(zerolog.Nop())
	builds := 0
	f.build = func(apiKey, model string) Provider {
		builds++
		return &stubProvider{model: model}
	}

	p1, err := f.Provider("AIza-test-key-1234", "gemini-2.5-flash-lite")
	require.NoError(t, err)
	p2, err := f.Provider("AIza-other-key-5678", "gemini-2.5-flash-lite")
	require.NoError(t, err)

	assert.NotSame(t, p1, p2)
	assert.Equal(t, 2, builds)
}

func TestFactoryRebuildsOnModelChange(t *testing.T) {
	f := NewFactory(zerolog.Nop())
	f.build = func(apiKey, model string) Provider { return &stubProvider{model: model} }

	p1, err := f.Provider("AIza-test-key-1234", "gemini-2.5-flash-lite")
	require.NoError(t, err)
	p2, err := f.Provider("AIza-test-key-1234", "gemini-2.5-pro")
	require.NoError(t, err)

	assert.NotSame(t, p1, p2)
	assert.Equal(t, "gemini-2.5-pro", p2.ModelID())
}

func TestFactoryRejectsBadInput(t *testing.T) {
	f := NewFactory(zerolog.Nop())

	_, err := f.Provider("", "gemini-2.5-pro")
	assert.Error(t, err)

	_, err = f.Provider("short", "gemini-2.5-pro")
	assert.Error(t, err)

	_, err = f.Provider("AIza-test-key-1234", "")
	assert.Error(t, err)
}

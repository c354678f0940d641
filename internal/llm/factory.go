package llm

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Factory hands out providers, reusing an instance while the API key and
// model stay the same and rebuilding when either changes.
type Factory struct {
	mu       sync.Mutex
	provider Provider
	key      string
	model    string
	logger   zerolog.Logger
	build    func(apiKey, model string) Provider
}

// NewFactory builds a factory producing Gemini providers.
func NewFactory(logger zerolog.Logger) *Factory {
	f := &Factory{logger: logger}
	f.build = func(apiKey, model string) Provider {
		return NewGeminiProvider(apiKey, WithModel(model), WithLogger(logger))
	}
	return f
}

// Provider returns a provider for the given key and model.
func (f *Factory) Provider(apiKey, model string) (Provider, error) {
	if err := ValidateAPIKey(apiKey); err != nil {
		return nil, fmt.Errorf("invalid api key: %w", err)
	}
	if model == "" {
		return nil, fmt.Errorf("model name is empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.provider != nil && f.key == apiKey && f.model == model {
		return f.provider, nil
	}
	if f.provider != nil {
		f.logger.Info().
			Str("api_key", MaskAPIKey(apiKey)).
			Str("model", model).
			Msg("model configuration changed, rebuilding provider")
	}
	f.provider = f.build(apiKey, model)
	f.key = apiKey
	f.model = model
	return f.provider, nil
}

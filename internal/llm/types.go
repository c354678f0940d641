// Package llm wraps the generative-model provider behind a small interface.
package llm

import (
	"context"
	"strings"
)

// Request is the input to a provider's Generate call.
type Request struct {
	Prompt      string
	Instruction string // system instruction, optional
	Temperature float64
	MaxTokens   int
}

// Fragment is one piece of a streamed response.
type Fragment struct {
	Text string
	Done bool
	Err  error
}

// Provider is the abstraction over language-model backends. Generate returns
// the full concatenated text of the response; implementations surface
// provider failures as *errors.ProviderError so the classifier can
// pattern-match on status and message.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	ModelID() string
}

// Collect drains a fragment stream and returns the concatenated text. The
// pipeline depends only on this concatenated result, never on the shape of
// the provider's event objects.
func Collect(ctx context.Context, fragments <-chan Fragment) (string, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return b.String(), ctx.Err()
		case f, ok := <-fragments:
			if !ok {
				return b.String(), nil
			}
			if f.Err != nil {
				return b.String(), f.Err
			}
			b.WriteString(f.Text)
			if f.Done {
				return b.String(), nil
			}
		}
	}
}

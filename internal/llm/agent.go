package llm

import (
	"context"
)

// Agent binds a named role and its system instruction to a provider.
type Agent struct {
	Name        string
	Description string
	Instruction string
	Temperature float64

	provider Provider
}

// NewAgent constructs an agent backed by the given provider.
func NewAgent(name, description, instruction string, provider Provider) *Agent {
	return &Agent{
		Name:        name,
		Description: description,
		Instruction: instruction,
		provider:    provider,
	}
}

// Run produces a completion for the prompt under this agent's instruction.
// It satisfies the orchestrator's stage handler contract.
func (a *Agent) Run(ctx context.Context, sessionID, prompt string) (string, error) {
	return a.provider.Generate(ctx, Request{
		Prompt:      prompt,
		Instruction: a.Instruction,
		Temperature: a.Temperature,
	})
}

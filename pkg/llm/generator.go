package llm

import (
	"context"
	"errors"
)

// Persona carries the generation settings of whoever is speaking.
type Persona struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Request is a single generation call.
type Request struct {
	Persona Persona
	Prompt  string
}

// Generator produces text for a persona and prompt. Implementations make a
// single attempt; callers decide how to degrade on failure.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("provider returned no text")

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

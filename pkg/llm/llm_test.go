package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-gallery/pkg/exec"
)

func testRequest() Request {
	return Request{
		Persona: Persona{SystemPrompt: "You are Waldorf.", Temperature: 0.9, MaxTokens: 50},
		Prompt:  "Give your commentary on this conversation.",
	}
}

func TestCommandGeneratorPipesPrompt(t *testing.T) {
	mock := &exec.MockCommandExecutor{
		RunFunc: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			return []byte("  What a dreadful show.\n"), nil
		},
	}
	gen := NewCommandGenerator(mock, "", "haiku")

	text, err := gen.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "What a dreadful show.", text)

	require.Len(t, mock.Commands, 1)
	assert.Equal(t, "llm -m haiku -s You are Waldorf. -o temperature 0.9 -o max_tokens 50", mock.Commands[0])
	assert.Equal(t, "Give your commentary on this conversation.", mock.Stdin[0])
}

func TestCommandGeneratorErrors(t *testing.T) {
	failing := &exec.MockCommandExecutor{
		RunFunc: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			return nil, &exec.ExecError{Err: errors.New("exit status 1"), Output: "rate limited"}
		},
	}
	_, err := NewCommandGenerator(failing, "llm", "").Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	empty := &exec.MockCommandExecutor{
		RunFunc: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			return []byte("\n"), nil
		},
	}
	_, err = NewCommandGenerator(empty, "llm", "").Generate(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCommandGeneratorCheck(t *testing.T) {
	mock := &exec.MockCommandExecutor{
		LookPathFunc: func(file string) (string, error) { return "", errors.New("not found") },
	}
	assert.Error(t, NewCommandGenerator(mock, "llm", "").Check())
}

func TestAnthropicParams(t *testing.T) {
	params := anthropicParams(DefaultAnthropicModel, testRequest())

	assert.Equal(t, DefaultAnthropicModel, string(params.Model))
	assert.Equal(t, int64(50), params.MaxTokens)
	assert.Equal(t, 0.9, params.Temperature.Value)
	require.Len(t, params.System, 1)
	assert.Equal(t, "You are Waldorf.", params.System[0].Text)
	require.Len(t, params.Messages, 1)
}

func TestGeminiConfig(t *testing.T) {
	cfg := geminiConfig(testRequest())

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.9, *cfg.Temperature, 1e-6)
	assert.Equal(t, int32(50), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "You are Waldorf.", cfg.SystemInstruction.Parts[0].Text)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("GALLERY_TEST_KEY", "")
	_, err := New(context.Background(), Options{Provider: ProviderAnthropic, APIKeyEnv: "GALLERY_TEST_KEY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GALLERY_TEST_KEY")
}

func TestGeneratorFunc(t *testing.T) {
	var gen Generator = GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		return req.Prompt, nil
	})
	text, err := gen.Generate(context.Background(), Request{Prompt: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "echo", text)
}

package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/mattsolo1/grove-gallery/pkg/exec"
)

// Provider names accepted in configuration.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCommand   = "command"
)

// Options selects and configures a generation backend.
type Options struct {
	Provider  string
	Model     string
	APIKeyEnv string // environment variable holding the API key
	Command   string // binary for the command provider
}

// New builds the Generator described by opts.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch opts.Provider {
	case "", ProviderAnthropic:
		key, err := resolveAPIKey(opts.APIKeyEnv, "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewAnthropicGenerator(key, opts.Model), nil
	case ProviderGemini:
		key, err := resolveAPIKey(opts.APIKeyEnv, "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewGeminiGenerator(ctx, key, opts.Model)
	case ProviderCommand:
		gen := NewCommandGenerator(&exec.RealCommandExecutor{}, opts.Command, opts.Model)
		if err := gen.Check(); err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected %s, %s or %s)",
			opts.Provider, ProviderAnthropic, ProviderGemini, ProviderCommand)
	}
}

func resolveAPIKey(envVar, fallback string) (string, error) {
	if envVar == "" {
		envVar = fallback
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s is not set; commentary needs an API key", envVar)
	}
	return key, nil
}

package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattsolo1/grove-gallery/pkg/exec"
)

// CommandGenerator implements Generator using the llm command-line tool. The
// prompt is piped on stdin; the persona's system prompt and sampling options
// are passed as flags.
type CommandGenerator struct {
	executor exec.CommandExecutor
	binary   string
	model    string
}

// NewCommandGenerator creates a generator that shells out to binary
// (defaults to "llm").
func NewCommandGenerator(executor exec.CommandExecutor, binary, model string) *CommandGenerator {
	if executor == nil {
		executor = &exec.RealCommandExecutor{}
	}
	if binary == "" {
		binary = "llm"
	}
	return &CommandGenerator{executor: executor, binary: binary, model: model}
}

// Check reports whether the configured binary can be found.
func (g *CommandGenerator) Check() error {
	if _, err := g.executor.LookPath(g.binary); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", g.binary, err)
	}
	return nil
}

// Generate runs the command once and returns its trimmed stdout.
func (g *CommandGenerator) Generate(ctx context.Context, req Request) (string, error) {
	out, err := g.executor.Run(ctx, strings.NewReader(req.Prompt), g.binary, g.args(req)...)
	if err != nil {
		return "", fmt.Errorf("%s command failed: %w", g.binary, err)
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *CommandGenerator) args(req Request) []string {
	args := []string{}
	if g.model != "" {
		args = append(args, "-m", g.model)
	}
	if req.Persona.SystemPrompt != "" {
		args = append(args, "-s", req.Persona.SystemPrompt)
	}
	args = append(args, "-o", "temperature", strconv.FormatFloat(req.Persona.Temperature, 'f', -1, 64))
	if req.Persona.MaxTokens > 0 {
		args = append(args, "-o", "max_tokens", strconv.Itoa(req.Persona.MaxTokens))
	}
	return args
}

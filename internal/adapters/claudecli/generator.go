package claudecli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"archivist/internal/ports"
)

// DefaultModel is used when no model is configured
const DefaultModel = "sonnet"

// Generator implements ports.TextGenerator using the Claude Code CLI
type Generator struct {
	model  string
	binary string
	run    runner
}

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

var _ ports.TextGenerator = (*Generator)(nil)

// Option configures the Generator
type Option func(*Generator)

// WithModel sets the Claude model to use
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBinary overrides the claude executable
func WithBinary(path string) Option {
	return func(g *Generator) { g.binary = path }
}

func withRunner(r runner) Option {
	return func(g *Generator) { g.run = r }
}

// NewGenerator creates a new Claude CLI generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		model:  DefaultModel,
		binary: "claude",
		run:    execOutput,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// claudeResponse represents the JSON output from claude CLI
type claudeResponse struct {
	Type         string  `json:"type"`
	Subtype      string  `json:"subtype"`
	DurationMS   int     `json:"duration_ms"`
	IsError      bool    `json:"is_error"`
	NumTurns     int     `json:"num_turns"`
	Result       string  `json:"result"`
	SessionID    string  `json:"session_id"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// Generate runs a single non-interactive prompt and returns the reply text
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	args := []string{
		"-p", prompt,
		"--output-format", "json",
		"--model", g.model,
	}

	output, err := g.run(ctx, g.binary, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("claude CLI error: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("claude CLI error: %w", err)
	}
	return parseResponse(output)
}

// IsAvailable checks if the claude CLI is installed and accessible
func (g *Generator) IsAvailable() bool {
	_, err := exec.LookPath(g.binary)
	return err == nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// parseResponse extracts the reply text from the CLI's JSON envelope
func parseResponse(output []byte) (string, error) {
	var response claudeResponse
	if err := json.Unmarshal(output, &response); err != nil {
		return "", fmt.Errorf("failed to parse claude response: %w", err)
	}
	if response.IsError {
		return "", fmt.Errorf("claude returned an error: %s", response.Result)
	}

	result := strings.TrimSpace(response.Result)
	// a reply wrapped whole in a code fence is unwrapped
	if m := codeBlockRe.FindStringSubmatch(result); len(m) > 1 {
		result = strings.TrimSpace(m[1])
	}
	if result == "" {
		return "", fmt.Errorf("claude returned an empty reply")
	}
	return result, nil
}

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Package engine turns prompts into model calls. It wraps the Anthropic
// and OpenAI SDKs behind one interface and falls back across providers
// when one fails.
package engine

import (
	"context"
	"encoding/json"

	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
)

type (
	// ToolDefinition describes a callable tool in JSON-schema form.
	ToolDefinition struct {
		Name        string
		Description string
		Parameters  map[string]any
	}

	// Tool binds a definition to its handler.
	Tool struct {
		ToolDefinition
		Call func(ctx context.Context, args json.RawMessage) (string, error)
	}

	// Step records one tool invocation during a run. Output is truncated
	// so a large file read does not bloat the stored log.
	Step struct {
		Tool   string `json:"tool"`
		Input  string `json:"input"`
		Output string `json:"output"`
	}

	// Message is one prior turn of conversation carried into a run.
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	// RunRequest drives an agent loop: the model calls tools until it
	// produces a final text answer or MaxIterations is reached.
	RunRequest struct {
		System        string
		Prompt        string
		History       []Message
		Tools         []Tool
		MaxIterations int
	}

	RunResponse struct {
		Text  string
		Steps []Step
	}

	// provider is one model backend. Providers are tried in order until
	// one succeeds.
	provider interface {
		Name() string
		Generate(ctx context.Context, system, prompt string) (string, error)
		Run(ctx context.Context, req *RunRequest) (*RunResponse, error)
	}

	Engine struct {
		logger    *mylog.Logger
		providers []provider
	}
)

const (
	defaultMaxIterations = 10
	maxStepOutputLen     = 500
)

func NewEngine(conf *config.ModelConfig, logger *mylog.Logger) (*Engine, error) {
	var providers []provider
	if conf.AnthropicAPIKey != "" {
		providers = append(providers, newAnthropicProvider(conf))
	}
	if conf.OpenAIAPIKey != "" {
		providers = append(providers, newOpenAIProvider(conf))
	}
	if len(providers) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "no model API key configured")
	}

	return &Engine{
		logger:    logger,
		providers: providers,
	}, nil
}

func (e *Engine) generate(ctx context.Context, system, prompt string) (string, error) {
	var lastErr error
	for _, p := range e.providers {
		text, err := p.Generate(ctx, system, prompt)
		if err == nil {
			return text, nil
		}
		e.logger.Warn("model provider failed, trying next", "provider", p.Name(), "err", err)
		lastErr = err
	}

	return "", errors.Wrapf(lastErr, "all model providers failed")
}

// Run executes the agent loop against the first healthy provider.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	if req.MaxIterations <= 0 {
		req.MaxIterations = defaultMaxIterations
	}

	var lastErr error
	for _, p := range e.providers {
		resp, err := p.Run(ctx, req)
		if err == nil {
			return resp, nil
		}
		e.logger.Warn("model provider failed, trying next", "provider", p.Name(), "err", err)
		lastErr = err
	}

	return nil, errors.Wrapf(lastErr, "all model providers failed")
}

// newStep builds a run step with the tool output truncated.
func newStep(tool string, input json.RawMessage, output string) Step {
	if runes := []rune(output); len(runes) > maxStepOutputLen {
		output = string(runes[:maxStepOutputLen])
	}
	return Step{
		Tool:   tool,
		Input:  string(input),
		Output: output,
	}
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// callTool invokes the named tool, turning errors into a payload the
// model can read and react to.
func callTool(ctx context.Context, tools []Tool, name string, args json.RawMessage) (string, bool) {
	t, ok := findTool(tools, name)
	if !ok {
		return `{"success": false, "error": "unknown tool: ` + name + `"}`, true
	}
	out, err := t.Call(ctx, args)
	if err != nil {
		data, _ := json.Marshal(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return string(data), true
	}
	return out, false
}

package engine

import (
	"context"
	"encoding/json"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/errors"
)

type anthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

var _ provider = (*anthropicProvider)(nil)

func newAnthropicProvider(conf *config.ModelConfig) *anthropicProvider {
	return &anthropicProvider{
		client:    anthropic.NewClient(option.WithAPIKey(conf.AnthropicAPIKey)),
		model:     conf.AnthropicModel,
		maxTokens: int64(conf.MaxTokens),
	}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "anthropic generate failed")
	}

	return messageText(msg), nil
}

func (p *anthropicProvider) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  messages,
		Tools:     convertTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp := &RunResponse{}
	for i := 0; i < req.MaxIterations; i++ {
		msg, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return nil, errors.Wrapf(err, "anthropic run failed")
		}

		if msg.StopReason != anthropic.StopReasonToolUse {
			resp.Text = messageText(msg)
			return resp, nil
		}

		params.Messages = append(params.Messages, msg.ToParam())

		var results []anthropic.ContentBlockParamUnion
		for _, block := range msg.Content {
			if block.Type != "tool_use" {
				continue
			}
			output, isErr := callTool(ctx, req.Tools, block.Name, json.RawMessage(block.Input))
			resp.Steps = append(resp.Steps, newStep(block.Name, json.RawMessage(block.Input), output))
			results = append(results, anthropic.NewToolResultBlock(block.ID, output, isErr))
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(results...))
	}

	resp.Text = "I could not complete the task within the allowed number of steps."
	return resp, nil
}

func messageText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func convertTools(tools []Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		tool := anthropic.ToolParam{
			Name:        t.Name,
			InputSchema: encodeInputSchema(t.Parameters),
		}
		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return out
}

func encodeInputSchema(raw map[string]any) anthropic.ToolInputSchemaParam {
	if len(raw) == 0 {
		return anthropic.ToolInputSchemaParam{Type: "object"}
	}
	var schema anthropic.ToolInputSchemaParam
	if data, err := json.Marshal(raw); err == nil {
		_ = json.Unmarshal(data, &schema)
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema
}

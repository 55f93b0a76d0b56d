package engine

import (
	"context"
	"encoding/json"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/errors"
)

type openaiProvider struct {
	client    openai.Client
	model     string
	maxTokens int64
}

var _ provider = (*openaiProvider)(nil)

func newOpenAIProvider(conf *config.ModelConfig) *openaiProvider {
	return &openaiProvider{
		client:    openai.NewClient(option.WithAPIKey(conf.OpenAIAPIKey)),
		model:     conf.OpenAIModel,
		maxTokens: int64(conf.MaxTokens),
	}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(p.model),
		MaxCompletionTokens: openai.Int(p.maxTokens),
		Messages:            messages,
	})
	if err != nil {
		return "", errors.Wrapf(err, "openai generate failed")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

func (p *openaiProvider) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		if m.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(p.model),
		MaxCompletionTokens: openai.Int(p.maxTokens),
		Messages:            messages,
		Tools:               convertToolsToOpenAI(req.Tools),
	}

	resp := &RunResponse{}
	for i := 0; i < req.MaxIterations; i++ {
		completion, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, errors.Wrapf(err, "openai run failed")
		}
		if len(completion.Choices) == 0 {
			return nil, errors.New("openai returned no choices")
		}

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			resp.Text = msg.Content
			return resp, nil
		}

		params.Messages = append(params.Messages, msg.ToParam())
		for _, tc := range msg.ToolCalls {
			args := json.RawMessage(tc.Function.Arguments)
			output, _ := callTool(ctx, req.Tools, tc.Function.Name, args)
			resp.Steps = append(resp.Steps, newStep(tc.Function.Name, args, output))
			params.Messages = append(params.Messages, openai.ToolMessage(output, tc.ID))
		}
	}

	resp.Text = "I could not complete the task within the allowed number of steps."
	return resp, nil
}

func convertToolsToOpenAI(tools []Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		fn := shared.FunctionDefinitionParam{
			Name:       t.Name,
			Parameters: toFunctionParameters(t.Parameters),
		}
		if t.Description != "" {
			fn.Description = openai.String(t.Description)
		}
		out = append(out, openai.ChatCompletionToolParam{Function: fn})
	}
	return out
}

func toFunctionParameters(params map[string]any) shared.FunctionParameters {
	if len(params) == 0 {
		return shared.FunctionParameters{"type": "object"}
	}
	result := make(shared.FunctionParameters, len(params)+1)
	for k, v := range params {
		result[k] = v
	}
	if _, ok := result["type"]; !ok {
		result["type"] = "object"
	}
	return result
}

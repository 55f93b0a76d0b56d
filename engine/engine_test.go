package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name     string
	generate func(ctx context.Context, system, prompt string) (string, error)
	run      func(ctx context.Context, req *RunRequest) (*RunResponse, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f.generate(ctx, system, prompt)
}

func (f *fakeProvider) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	return f.run(ctx, req)
}

func newTestEngine(providers ...provider) *Engine {
	return &Engine{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		providers: providers,
	}
}

func TestSummarize(t *testing.T) {
	var gotPrompt string
	e := newTestEngine(&fakeProvider{
		name: "fake",
		generate: func(_ context.Context, system, prompt string) (string, error) {
			gotPrompt = prompt
			return "  a short summary  ", nil
		},
	})

	summary, err := e.Summarize(t.Context(), "long text here", 0)
	require.NoError(t, err)
	assert.Equal(t, "a short summary", summary)
	assert.Contains(t, gotPrompt, "at most 150 words")
	assert.Contains(t, gotPrompt, "long text here")

	_, err = e.Summarize(t.Context(), "text", 40)
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "at most 40 words")
}

func TestResearchPrompt(t *testing.T) {
	var gotPrompt string
	e := newTestEngine(&fakeProvider{
		name: "fake",
		generate: func(_ context.Context, _, prompt string) (string, error) {
			gotPrompt = prompt
			return "# Article", nil
		},
	})

	article, err := e.Research(t.Context(), "quantum computing")
	require.NoError(t, err)
	assert.Equal(t, "# Article", article)
	assert.Contains(t, gotPrompt, "**quantum computing**")
	assert.Contains(t, gotPrompt, "Markdown headings")
}

func TestPlanActionsPrompt(t *testing.T) {
	var gotPrompt string
	e := newTestEngine(&fakeProvider{
		name: "fake",
		generate: func(_ context.Context, _, prompt string) (string, error) {
			gotPrompt = prompt
			return `[{"step": 1}]`, nil
		},
	})

	tools := []ToolDefinition{{Name: "list_files"}, {Name: "create_folder"}}
	plan, err := e.PlanActions(t.Context(), "tidy my drive", "", tools)
	require.NoError(t, err)
	assert.Equal(t, `[{"step": 1}]`, plan)
	assert.Contains(t, gotPrompt, "list_files, create_folder")
	assert.Contains(t, gotPrompt, "Context: None")

	_, err = e.PlanActions(t.Context(), "tidy my drive", "user likes folders", tools)
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "Context: user likes folders")
}

func TestProviderFallback(t *testing.T) {
	broken := &fakeProvider{
		name: "broken",
		generate: func(context.Context, string, string) (string, error) {
			return "", assert.AnError
		},
	}
	healthy := &fakeProvider{
		name: "healthy",
		generate: func(context.Context, string, string) (string, error) {
			return "ok", nil
		},
	}

	e := newTestEngine(broken, healthy)
	out, err := e.Summarize(t.Context(), "text", 10)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	e = newTestEngine(broken)
	_, err = e.Summarize(t.Context(), "text", 10)
	require.Error(t, err)
}

func TestRunRecordsSteps(t *testing.T) {
	e := newTestEngine(&fakeProvider{
		name: "fake",
		run: func(ctx context.Context, req *RunRequest) (*RunResponse, error) {
			resp := &RunResponse{}
			args := json.RawMessage(`{"folder_id": "abc"}`)
			out, _ := callTool(ctx, req.Tools, "list_files", args)
			resp.Steps = append(resp.Steps, newStep("list_files", args, out))
			resp.Text = "done"
			return resp, nil
		},
	})

	called := false
	resp, err := e.Run(t.Context(), &RunRequest{
		Prompt: "list my files",
		Tools: []Tool{
			{
				ToolDefinition: ToolDefinition{Name: "list_files"},
				Call: func(_ context.Context, args json.RawMessage) (string, error) {
					called = true
					return `{"success": true, "count": 0}`, nil
				},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "done", resp.Text)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, "list_files", resp.Steps[0].Tool)
	assert.Equal(t, `{"success": true, "count": 0}`, resp.Steps[0].Output)
}

func TestCallToolErrors(t *testing.T) {
	tools := []Tool{
		{
			ToolDefinition: ToolDefinition{Name: "boom"},
			Call: func(context.Context, json.RawMessage) (string, error) {
				return "", assert.AnError
			},
		},
	}

	out, isErr := callTool(t.Context(), tools, "boom", nil)
	assert.True(t, isErr)
	assert.Contains(t, out, `"success":false`)
	assert.Contains(t, out, assert.AnError.Error())

	out, isErr = callTool(t.Context(), tools, "missing", nil)
	assert.True(t, isErr)
	assert.Contains(t, out, "unknown tool")
}

func TestNewStepTruncatesOutput(t *testing.T) {
	long := strings.Repeat("x", 1000)
	step := newStep("read_file", nil, long)
	assert.Len(t, step.Output, 500)
}

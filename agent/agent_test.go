package agent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/drive"
	"github.com/corelabsai/driveagent/engine"
	"github.com/corelabsai/driveagent/memory"
	"github.com/corelabsai/driveagent/tool"
)

type fakeRunner struct {
	run       func(ctx context.Context, req *engine.RunRequest) (*engine.RunResponse, error)
	summarize func(ctx context.Context, text string, maxWords int) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, req *engine.RunRequest) (*engine.RunResponse, error) {
	return f.run(ctx, req)
}

func (f *fakeRunner) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if f.summarize != nil {
		return f.summarize(ctx, text, maxWords)
	}
	return "summarized", nil
}

func (f *fakeRunner) Research(_ context.Context, topic string) (string, error) {
	return "# " + topic, nil
}

func newTestAgent(t *testing.T, runner *fakeRunner) (*Agent, memory.Service) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := drive.NewInMemoryService()
	memorySvc := memory.NewService(store, config.NewMemoryConfig(), logger)
	tools := tool.NewManager(logger, store, memorySvc, runner)
	pending := NewPendingStore(0)

	return New(logger, memorySvc, runner, tools, pending, "alice@example.com"), memorySvc
}

// invokeTool simulates the model calling one of the agent's tools.
func invokeTool(t *testing.T, req *engine.RunRequest, name, args string) string {
	t.Helper()
	for _, tl := range req.Tools {
		if tl.Name == name {
			out, err := tl.Call(t.Context(), json.RawMessage(args))
			require.NoError(t, err)
			return out
		}
	}
	t.Fatalf("tool %q not available to the run", name)
	return ""
}

func TestExecuteLifecycle(t *testing.T) {
	runner := &fakeRunner{}
	runner.run = func(ctx context.Context, req *engine.RunRequest) (*engine.RunResponse, error) {
		// First request carries the memory context marker.
		assert.Contains(t, req.Prompt, "MEMORY CONTEXT")
		assert.Contains(t, req.System, "Drive Agent")

		out := invokeTool(t, req, "create_folder", `{"name": "Projects"}`)
		return &engine.RunResponse{
			Text: "Created the Projects folder for you.",
			Steps: []engine.Step{
				{Tool: "create_folder", Input: `{"name": "Projects"}`, Output: out},
			},
		}, nil
	}

	a, memorySvc := newTestAgent(t, runner)
	result := a.Execute(t.Context(), "create folder Projects", nil)

	require.Equal(t, "completed", result.Status)
	assert.Equal(t, "Created the Projects folder for you.", result.Result)
	require.Len(t, result.Steps, 1)

	// The interaction landed in the conversation log.
	log, err := memorySvc.LoadConversationLog(t.Context())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "create folder Projects", log[0].Command)
	assert.Equal(t, "summarized", log[0].Summary)
	assert.Equal(t, []string{"create_folder"}, log[0].ToolsUsed)
	assert.Equal(t, []string{"Projects"}, log[0].Folders)

	// Pattern learning ran too.
	profile, err := memorySvc.LoadProfile(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, profile.InteractionCount)
	assert.Equal(t, 1, profile.FrequentlyUsedFolders["Projects"])
	require.Len(t, profile.LearnedPatterns, 1)
	assert.Equal(t, "folder_management", profile.LearnedPatterns[0].CommandType)
}

func TestExecuteSavesResearchSummaries(t *testing.T) {
	runner := &fakeRunner{}
	runner.run = func(ctx context.Context, req *engine.RunRequest) (*engine.RunResponse, error) {
		return &engine.RunResponse{
			Text: "Research done.",
			Steps: []engine.Step{
				{
					Tool:   "research_topic",
					Input:  `{"topic": "quantum computing"}`,
					Output: "# Quantum Computing\n\nLots of content.",
				},
			},
		}, nil
	}

	a, memorySvc := newTestAgent(t, runner)
	result := a.Execute(t.Context(), "research quantum computing", nil)
	require.Equal(t, "completed", result.Status)

	summaries, err := memorySvc.SearchSummaries(t.Context(), "quantum")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "quantum computing", summaries[0].Topic)
	assert.Equal(t, "summarized", summaries[0].Summary)

	// The topic is also learned on the profile.
	profile, err := memorySvc.LoadProfile(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"quantum computing"}, profile.TopicsOfInterest)
}

func TestExecuteEngineFailure(t *testing.T) {
	runner := &fakeRunner{}
	runner.run = func(context.Context, *engine.RunRequest) (*engine.RunResponse, error) {
		return nil, assert.AnError
	}

	a, memorySvc := newTestAgent(t, runner)
	result := a.Execute(t.Context(), "do something", nil)

	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Result, "Agent encountered an error")
	assert.Empty(t, result.Steps)

	// Nothing was recorded for the failed run.
	log, err := memorySvc.LoadConversationLog(t.Context())
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestExecuteSummaryFallback(t *testing.T) {
	runner := &fakeRunner{}
	runner.run = func(context.Context, *engine.RunRequest) (*engine.RunResponse, error) {
		return &engine.RunResponse{Text: "All done."}, nil
	}
	runner.summarize = func(context.Context, string, int) (string, error) {
		return "", assert.AnError
	}

	a, memorySvc := newTestAgent(t, runner)
	result := a.Execute(t.Context(), "say hi", nil)
	require.Equal(t, "completed", result.Status)

	log, err := memorySvc.LoadConversationLog(t.Context())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "All done.", log[0].Summary)
}

// Package agent combines the model engine, tools, and persistent memory
// into an autonomous executor for natural-language Drive commands.
package agent

import (
	"context"
	"fmt"

	"github.com/mokiat/gog"

	"github.com/corelabsai/driveagent/engine"
	"github.com/corelabsai/driveagent/internal/mylog"
	"github.com/corelabsai/driveagent/memory"
	"github.com/corelabsai/driveagent/tool"
)

type (
	// Result is the outcome of one executed command.
	Result struct {
		Status string        `json:"status"`
		Result string        `json:"result"`
		Steps  []engine.Step `json:"steps"`
	}

	// Runner is the slice of the engine the agent needs. Satisfied by
	// *engine.Engine.
	Runner interface {
		Run(ctx context.Context, req *engine.RunRequest) (*engine.RunResponse, error)
		Summarize(ctx context.Context, text string, maxWords int) (string, error)
	}

	// Agent executes commands for a single user. Build one per request
	// so the right user's drive and memory are always in scope.
	Agent struct {
		logger  *mylog.Logger
		memory  memory.Service
		engine  Runner
		tools   *tool.Manager
		pending *PendingStore
		userID  string
		system  string
	}
)

const (
	maxAgentIterations = 15
	maxRecentContext   = 10
)

func New(
	logger *mylog.Logger,
	memorySvc memory.Service,
	eng Runner,
	tools *tool.Manager,
	pending *PendingStore,
	userID string,
) *Agent {
	return &Agent{
		logger:  logger,
		memory:  memorySvc,
		engine:  eng,
		tools:   tools,
		pending: pending,
		userID:  userID,
		system:  SystemPrompt,
	}
}

// SetSystemPrompt replaces the default system prompt, e.g. with one
// composed from a persona file.
func (a *Agent) SetSystemPrompt(system string) {
	a.system = system
}

// Execute runs a natural-language command through the full lifecycle:
// load memory context, run the tool loop, summarise the interaction,
// then persist the log entry, research summaries, and learned patterns.
//
// Failures surface as a Result with status "error" rather than a Go
// error, so callers always get something to show the user.
func (a *Agent) Execute(ctx context.Context, command string, history []engine.Message) *Result {
	a.logger.Info("executing command", "user", a.userID, "command", command)

	memoryContext, err := a.memory.ContextForAgent(ctx, maxRecentContext)
	if err != nil {
		return errorResult(err)
	}

	enriched := fmt.Sprintf(
		"%s\n\n═══ MEMORY CONTEXT (use to inform your actions) ═══\n%s",
		command, memoryContext,
	)

	resp, err := a.engine.Run(ctx, &engine.RunRequest{
		System:        a.system,
		Prompt:        enriched,
		History:       history,
		Tools:         a.tools.Tools(),
		MaxIterations: maxAgentIterations,
	})
	if err != nil {
		return errorResult(err)
	}

	toolsUsed := gog.Map(resp.Steps, func(s engine.Step) string {
		return s.Tool
	})

	summary := a.summarizeInteraction(ctx, command, toolsUsed, resp.Text)
	topics := ExtractTopics(command, resp.Steps)
	folders := ExtractFolders(resp.Steps)

	a.saveResearchSummaries(ctx, resp.Steps)

	if err := a.memory.AppendConversation(ctx, memory.LogEntry{
		Command:   command,
		Summary:   summary,
		ToolsUsed: toolsUsed,
		Topics:    topics,
		Folders:   folders,
	}); err != nil {
		return errorResult(err)
	}

	if err := a.memory.UpdateLearnedPatterns(ctx, command, toolsUsed, folders, topics); err != nil {
		// Pattern learning is best-effort.
		a.logger.Debug("pattern learning failed", "err", err)
	}

	return &Result{
		Status: "completed",
		Result: resp.Text,
		Steps:  resp.Steps,
	}
}

// summarizeInteraction asks the model for a short summary of what
// happened, falling back to a truncated response on failure.
func (a *Agent) summarizeInteraction(ctx context.Context, command string, toolsUsed []string, output string) string {
	interaction := fmt.Sprintf(
		"User command: %s\nTools used: %v\nAgent response: %s",
		command, toolsUsed, truncate(output, 600),
	)

	summary, err := a.engine.Summarize(ctx, interaction, 80)
	if err != nil {
		a.logger.Debug("interaction summary failed, using truncated output", "err", err)
		return truncate(output, 300)
	}

	return summary
}

// saveResearchSummaries condenses each research_topic output and stores
// it under the topic's summary file. Failures are non-fatal.
func (a *Agent) saveResearchSummaries(ctx context.Context, steps []engine.Step) {
	for _, step := range steps {
		if step.Tool != "research_topic" {
			continue
		}
		topic := topicFromInput(step.Input)
		if topic == "" {
			topic = "unknown"
		}

		summary, err := a.engine.Summarize(ctx, step.Output, 150)
		if err != nil {
			a.logger.Debug("could not summarize research output", "topic", topic, "err", err)
			continue
		}
		if _, err := a.memory.SaveSummary(ctx, topic, summary); err != nil {
			a.logger.Debug("could not save research summary", "topic", topic, "err", err)
		}
	}
}

func errorResult(err error) *Result {
	return &Result{
		Status: "error",
		Result: fmt.Sprintf("Agent encountered an error: %v", err),
		Steps:  []engine.Step{},
	}
}

func truncate(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}

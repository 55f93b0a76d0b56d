package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corelabsai/driveagent/config"
)

func TestRecallAcrossLayers(t *testing.T) {
	conf := config.NewMemoryConfig()
	conf.MaxLogEntries = 3
	conf.ConsolidationBatch = 2
	svc, _ := newTestService(t, conf)
	ctx := t.Context()

	// Two entries about kubernetes get consolidated away, two stay live.
	entries := []LogEntry{
		{Command: "research kubernetes networking", Topics: []string{"kubernetes"}},
		{Command: "research kubernetes storage", Topics: []string{"kubernetes"}},
		{Command: "list my files"},
		{Command: "read kubernetes notes"},
	}
	for _, e := range entries {
		require.NoError(t, svc.AppendConversation(ctx, e))
	}

	_, err := svc.SaveSummary(ctx, "Kubernetes Networking", "pods talk over a flat network")
	require.NoError(t, err)
	require.NoError(t, svc.UpdateLearnedPatterns(ctx, "research kubernetes",
		[]string{"research_topic"}, nil, []string{"kubernetes"}))

	result, err := svc.Recall(ctx, "Kubernetes")
	require.NoError(t, err)

	require.Len(t, result.Conversations, 1)
	require.Equal(t, "read kubernetes notes", result.Conversations[0].Command)

	require.Len(t, result.Summaries, 1)
	require.Equal(t, "Kubernetes Networking", result.Summaries[0].Topic)

	require.Len(t, result.Consolidated, 1)
	require.Contains(t, result.Consolidated[0].TopicsMentioned, "kubernetes")

	require.Contains(t, result.ProfileContext, "kubernetes")
	require.Contains(t, result.ProfileContext, "Total interactions: 1")
}

func TestRecallNoMatches(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := t.Context()

	require.NoError(t, svc.AppendConversation(ctx, LogEntry{Command: "list my files"}))

	result, err := svc.Recall(ctx, "blockchain")
	require.NoError(t, err)
	require.Empty(t, result.Conversations)
	require.Empty(t, result.Summaries)
	require.Empty(t, result.Consolidated)
	require.Empty(t, result.ProfileContext)
}

func TestContextForAgentNewUser(t *testing.T) {
	svc, _ := newTestService(t, nil)

	context, err := svc.ContextForAgent(t.Context(), 10)
	require.NoError(t, err)
	require.Equal(t, "[No prior memory — this is a new user.]", context)
}

func TestContextForAgentFormat(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := t.Context()

	require.NoError(t, svc.AppendConversation(ctx, LogEntry{
		Command: "research rust async",
		Summary: "Saved a summary to Research",
	}))
	require.NoError(t, svc.UpdateLearnedPatterns(ctx, "research rust async",
		[]string{"research_topic"}, []string{"Research"}, []string{"rust"}))

	got, err := svc.ContextForAgent(ctx, 10)
	require.NoError(t, err)

	require.Contains(t, got, "[RECENT INTERACTIONS]")
	require.Contains(t, got, "[2025-06-01] research rust async → Saved a summary to Research")
	require.Contains(t, got, "[USER PROFILE]")
	require.Contains(t, got, "Total interactions: 1")
	require.Contains(t, got, "Topics of interest: rust")
	require.Contains(t, got, "Preferred folders: Research (1x)")
}

func TestContextForAgentLimitsRecent(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := t.Context()

	for i := 0; i < 15; i++ {
		require.NoError(t, svc.AppendConversation(ctx, LogEntry{
			Command: fmt.Sprintf("command %02d", i),
			Summary: "ok",
		}))
	}

	got, err := svc.ContextForAgent(ctx, 10)
	require.NoError(t, err)
	require.NotContains(t, got, "command 04")
	require.Contains(t, got, "command 05")
	require.Contains(t, got, "command 14")
}

func TestFormatFolders(t *testing.T) {
	require.Equal(t, "", formatFolders(nil))
	require.Equal(t, "Research (3x), Notes (1x)", formatFolders(map[string]int{
		"Notes":    1,
		"Research": 3,
	}))

	// Only the top five make the cut.
	many := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}
	require.Equal(t, "f (6x), e (5x), d (4x), c (3x), b (2x)", formatFolders(many))
}

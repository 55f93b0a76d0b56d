// Package memory persists the agent's state inside the user's Drive
// under a dedicated folder so context survives across sessions and
// devices.
//
// Folder layout:
//
//	/AI_AGENT_MEMORY/
//	├── profile.json              - user preferences and learned patterns
//	├── conversation_log.json     - rolling log of summarised interactions
//	├── consolidated_memory.json  - condensed archive of old conversations
//	├── deep_summary.json         - LLM-generated long-term memory summary
//	└── summaries/                - per-topic research summaries
//
// When the conversation log exceeds its cap the oldest batch is condensed
// into the archive instead of being dropped, so context is never truly
// lost.
package memory

import (
	"context"
)

type (
	// Pattern is one classified interaction recorded on the profile.
	Pattern struct {
		CommandType string   `json:"command_type"`
		Tools       []string `json:"tools"`
		Timestamp   string   `json:"timestamp"`
	}

	// Profile holds user preferences and behaviour learned over time.
	Profile struct {
		CreatedAt             string         `json:"created_at"`
		UpdatedAt             string         `json:"updated_at,omitempty"`
		Preferences           map[string]any `json:"preferences"`
		LearnedPatterns       []Pattern      `json:"learned_patterns"`
		FrequentlyUsedFolders map[string]int `json:"frequently_used_folders"`
		TopicsOfInterest      []string       `json:"topics_of_interest"`
		InteractionCount      int            `json:"interaction_count"`
	}

	// LogEntry is one summarised interaction in the rolling log.
	LogEntry struct {
		Command   string   `json:"command"`
		Summary   string   `json:"summary"`
		ToolsUsed []string `json:"tools_used"`
		Topics    []string `json:"topics"`
		Folders   []string `json:"folders"`
		Timestamp string   `json:"timestamp"`
	}

	// Block is a condensed batch of old log entries. Full text is gone
	// but the structured statistics remain searchable.
	Block struct {
		PeriodStart     string   `json:"period_start"`
		PeriodEnd       string   `json:"period_end"`
		EntryCount      int      `json:"entry_count"`
		CommandSamples  []string `json:"command_samples"`
		AllToolsUsed    []string `json:"all_tools_used"`
		TopicsMentioned []string `json:"topics_mentioned"`
		CondensedAt     string   `json:"condensed_at"`
	}

	// DeepSummary is the LLM-written digest of the consolidated archive.
	DeepSummary struct {
		Summary      string `json:"summary"`
		SourceBlocks int    `json:"source_blocks"`
		GeneratedAt  string `json:"generated_at"`
	}

	// TopicSummary is one saved research summary.
	TopicSummary struct {
		Topic     string `json:"topic"`
		Summary   string `json:"summary"`
		CreatedAt string `json:"created_at"`
	}

	// RecallResult aggregates matches across every memory layer.
	RecallResult struct {
		Conversations  []LogEntry     `json:"conversations"`
		Summaries      []TopicSummary `json:"summaries"`
		Consolidated   []Block        `json:"consolidated"`
		ProfileContext string         `json:"profile_context"`
	}

	// SummarizeFunc produces a natural-language summary of text. The
	// engine package supplies one backed by an LLM.
	SummarizeFunc func(ctx context.Context, text string) (string, error)

	// Service reads and writes the agent's persistent memory. Every
	// method is safe to call repeatedly; folder creation and file
	// lookups are idempotent.
	Service interface {
		LoadProfile(ctx context.Context) (*Profile, error)
		SaveProfile(ctx context.Context, profile *Profile) error

		// UpdateLearnedPatterns folds one interaction into the profile:
		// folder frequencies, topics of interest, and a classified
		// pattern entry.
		UpdateLearnedPatterns(ctx context.Context, command string, toolsUsed, foldersTouched, topics []string) error

		// LoadConversationLog returns the rolling log, most recent last.
		LoadConversationLog(ctx context.Context) ([]LogEntry, error)

		// AppendConversation adds an entry, consolidating the oldest
		// batch into the archive when the log exceeds its cap.
		AppendConversation(ctx context.Context, entry LogEntry) error

		// DeepConsolidate summarises the consolidated archive with the
		// given function and persists the result as the deep summary.
		DeepConsolidate(ctx context.Context, summarize SummarizeFunc) (string, error)

		// SaveSummary stores a research summary under summaries/ and
		// returns the file ID.
		SaveSummary(ctx context.Context, topic, summary string) (string, error)

		// SearchSummaries returns stored summaries whose filename
		// contains the keyword.
		SearchSummaries(ctx context.Context, keyword string) ([]TopicSummary, error)

		// Recall searches the log, summaries, archive, and profile for
		// the query.
		Recall(ctx context.Context, query string) (*RecallResult, error)

		// ContextForAgent builds the context block injected into every
		// agent prompt.
		ContextForAgent(ctx context.Context, maxRecent int) (string, error)
	}
)

const (
	profileFile      = "profile.json"
	logFile          = "conversation_log.json"
	consolidatedFile = "consolidated_memory.json"
	deepSummaryFile  = "deep_summary.json"
)

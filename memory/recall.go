package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

func (s *service) Recall(ctx context.Context, query string) (*RecallResult, error) {
	if err := s.ensureFolders(ctx); err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	result := &RecallResult{
		Conversations: []LogEntry{},
		Summaries:     []TopicSummary{},
		Consolidated:  []Block{},
	}

	log, err := s.LoadConversationLog(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range log {
		if containsFold(entry, needle) {
			result.Conversations = append(result.Conversations, entry)
		}
	}

	summaries, err := s.SearchSummaries(ctx, query)
	if err != nil {
		return nil, err
	}
	if summaries != nil {
		result.Summaries = summaries
	}

	archive, err := s.loadConsolidated(ctx)
	if err != nil {
		return nil, err
	}
	for _, block := range archive {
		if containsFold(block, needle) {
			result.Consolidated = append(result.Consolidated, block)
		}
	}

	profile, err := s.LoadProfile(ctx)
	if err != nil {
		return nil, err
	}
	if containsFold(profile, needle) {
		result.ProfileContext = fmt.Sprintf(
			"User has researched these topics before: %s. "+
				"Frequently used folders: %s. "+
				"Total interactions: %d.",
			strings.Join(profile.TopicsOfInterest, ", "),
			formatFolders(profile.FrequentlyUsedFolders),
			profile.InteractionCount,
		)
	}

	return result, nil
}

// containsFold reports whether the JSON form of v contains needle,
// case-insensitively. needle must already be lowercased.
func containsFold(v any, needle string) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), needle)
}

func (s *service) ContextForAgent(ctx context.Context, maxRecent int) (string, error) {
	if maxRecent <= 0 {
		maxRecent = 10
	}

	var parts []string

	log, err := s.LoadConversationLog(ctx)
	if err != nil {
		return "", err
	}
	if recent := tail(log, maxRecent); len(recent) > 0 {
		lines := make([]string, 0, len(recent))
		for _, e := range recent {
			ts := e.Timestamp
			if len(ts) > 10 {
				ts = ts[:10]
			}
			lines = append(lines, fmt.Sprintf("  [%s] %s → %s", ts, e.Command, e.Summary))
		}
		parts = append(parts, "[RECENT INTERACTIONS]\n"+strings.Join(lines, "\n"))
	}

	profile, err := s.LoadProfile(ctx)
	if err != nil {
		return "", err
	}
	if profile.InteractionCount > 0 {
		topics := strings.Join(tail(profile.TopicsOfInterest, 10), ", ")
		if topics == "" {
			topics = "none yet"
		}
		folders := formatFolders(profile.FrequentlyUsedFolders)
		if folders == "" {
			folders = "none yet"
		}
		parts = append(parts, fmt.Sprintf(
			"[USER PROFILE]\n"+
				"  Total interactions: %d\n"+
				"  Topics of interest: %s\n"+
				"  Preferred folders: %s",
			profile.InteractionCount, topics, folders,
		))
	}

	fid, err := s.drive.FindFile(ctx, deepSummaryFile, s.memoryFolderID)
	if err != nil {
		return "", err
	}
	if fid != "" {
		var ds DeepSummary
		if err := s.drive.ReadJSON(ctx, fid, &ds); err == nil {
			summary := ds.Summary
			if runes := []rune(summary); len(runes) > 500 {
				summary = string(runes[:500])
			}
			parts = append(parts, "[LONG-TERM MEMORY SUMMARY]\n  "+summary)
		}
	}

	if len(parts) == 0 {
		return "[No prior memory — this is a new user.]", nil
	}

	return strings.Join(parts, "\n\n"), nil
}

// formatFolders renders the top five folders by use count, as
// "name (3x), other (1x)".
func formatFolders(folders map[string]int) string {
	type kv struct {
		name  string
		count int
	}
	sorted := make([]kv, 0, len(folders))
	for name, count := range folders {
		sorted = append(sorted, kv{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	parts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		parts = append(parts, fmt.Sprintf("%s (%dx)", f.name, f.count))
	}

	return strings.Join(parts, ", ")
}

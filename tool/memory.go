package tool

import (
	"context"
	"encoding/json"

	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/memory"
)

type (
	RecallMemoryRequest struct {
		Query string `json:"query" jsonschema:"description=Keyword or topic to search in the agent's long-term memory"`
	}

	SaveMemoryNoteRequest struct {
		Topic   string `json:"topic" jsonschema:"description=Short label for this memory (e.g. 'user prefers markdown')"`
		Content string `json:"content" jsonschema:"description=The note or summary to remember for next time"`
	}
)

func (m *Manager) registerMemoryTools(memorySvc memory.Service) {
	registerRawTool(m, "recall_memory",
		"Search the agent's persistent memory for past interactions and stored research summaries.",
		func(ctx context.Context, req *RecallMemoryRequest) (string, error) {
			result, err := memorySvc.Recall(ctx, req.Query)
			if err != nil {
				return "", err
			}
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return "", errors.WithStack(err)
			}
			return string(data), nil
		})

	registerTool(m, "save_memory_note",
		"Save an important note, user preference, or summary to long-term memory so it can be recalled in future sessions. Use this whenever you learn something worth remembering about the user or their work.",
		func(ctx context.Context, req *SaveMemoryNoteRequest) (any, error) {
			fid, err := memorySvc.SaveSummary(ctx, req.Topic, req.Content)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"topic":   req.Topic,
				"file_id": fid,
			}, nil
		})
}

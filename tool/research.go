package tool

import (
	"context"
)

type ResearchRequest struct {
	Topic string `json:"topic" jsonschema:"description=The topic to research comprehensively"`
}

func (m *Manager) registerResearchTool(researcher Researcher) {
	// Returns the markdown article directly so the model can pass it
	// straight into write_to_document.
	registerRawTool(m, "research_topic",
		"Research a topic using AI. Returns a comprehensive, structured Markdown article ready for a Google Doc.",
		func(ctx context.Context, req *ResearchRequest) (string, error) {
			return researcher.Research(ctx, req.Topic)
		})
}

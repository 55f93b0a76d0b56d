package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corelabsai/driveagent/engine"
)

func TestExtractTopicsFromSteps(t *testing.T) {
	steps := []engine.Step{
		{Tool: "research_topic", Input: `{"topic": "machine learning"}`},
		{Tool: "create_folder", Input: `{"name": "ML"}`},
		{Tool: "research_topic", Input: `"bare topic"`},
	}

	topics := ExtractTopics("whatever", steps)
	assert.Equal(t, []string{"machine learning", "bare topic"}, topics)
}

func TestExtractTopicsFallbackToCommand(t *testing.T) {
	cases := []struct {
		command string
		want    []string
	}{
		{"research quantum computing", []string{"quantum computing"}},
		{"please write about honey bees and save it", []string{"honey bees"}},
		{"article on go generics in the Research folder", []string{"go generics"}},
		{"learn about rust", []string{"rust"}},
		{"list my files", nil},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractTopics(tc.command, nil), "command: %s", tc.command)
	}
}

func TestExtractFolders(t *testing.T) {
	steps := []engine.Step{
		{Tool: "create_folder", Output: `{"success": true, "folder": {"id": "f1", "name": "Research"}, "created": true}`},
		{Tool: "create_folder", Output: `not json`},
		{Tool: "list_drive_files", Output: `{"success": true}`},
		{Tool: "create_folder", Output: `{"success": true, "folder": {"id": "f2", "name": "Notes"}, "created": false}`},
	}

	assert.Equal(t, []string{"Research", "Notes"}, ExtractFolders(steps))
	assert.Empty(t, ExtractFolders(nil))
}

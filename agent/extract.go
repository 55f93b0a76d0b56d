package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/corelabsai/driveagent/engine"
)

var topicRe = regexp.MustCompile(`(?i)(?:research|write about|article on|learn about)\s+(.+?)(?:\s+and\s+|\s+in\s+|$)`)

// ExtractTopics pulls topic names from research_topic tool inputs,
// falling back to keyword extraction from the command itself.
func ExtractTopics(command string, steps []engine.Step) []string {
	var topics []string

	for _, step := range steps {
		if step.Tool != "research_topic" {
			continue
		}
		if topic := topicFromInput(step.Input); topic != "" {
			topics = append(topics, topic)
		}
	}

	if len(topics) == 0 {
		if m := topicRe.FindStringSubmatch(command); m != nil {
			if topic := strings.TrimSpace(m[1]); topic != "" {
				topics = append(topics, topic)
			}
		}
	}

	return topics
}

// topicFromInput reads the topic out of a research_topic invocation,
// accepting both JSON arguments and a bare string.
func topicFromInput(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "{") {
		var parsed struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal([]byte(input), &parsed); err == nil {
			return strings.TrimSpace(parsed.Topic)
		}
		return ""
	}
	return strings.Trim(input, `"' `)
}

// ExtractFolders pulls folder names from create_folder tool outputs.
func ExtractFolders(steps []engine.Step) []string {
	var folders []string
	for _, step := range steps {
		if step.Tool != "create_folder" {
			continue
		}
		var out struct {
			Folder struct {
				Name string `json:"name"`
			} `json:"folder"`
		}
		if err := json.Unmarshal([]byte(step.Output), &out); err != nil {
			continue
		}
		if out.Folder.Name != "" {
			folders = append(folders, out.Folder.Name)
		}
	}
	return folders
}

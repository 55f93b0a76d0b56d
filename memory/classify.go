package memory

import "strings"

// ClassifyCommand buckets a user command for pattern analysis. The
// checks run in priority order; the first bucket with a keyword hit
// wins.
func ClassifyCommand(command string) string {
	cmd := strings.ToLower(command)

	for _, c := range commandClasses {
		for _, keyword := range c.keywords {
			if strings.Contains(cmd, keyword) {
				return c.name
			}
		}
	}

	return "general"
}

var commandClasses = []struct {
	name     string
	keywords []string
}{
	{"research", []string{"research", "write about", "article"}},
	{"folder_management", []string{"create folder", "new folder", "mkdir"}},
	{"doc_creation", []string{"create doc", "new doc", "new document"}},
	{"search", []string{"search", "find", "look for", "list"}},
	{"read", []string{"read", "open", "show", "get content"}},
	{"delete", []string{"delete", "remove", "trash"}},
}

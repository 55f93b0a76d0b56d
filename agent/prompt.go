package agent

import (
	_ "embed"
)

// SystemPrompt is injected into every agent invocation.
//
//go:embed data/system_prompt.md
var SystemPrompt string

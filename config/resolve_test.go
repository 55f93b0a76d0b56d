package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModelConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("MODEL_MAX_TOKENS", "1024")

	conf, err := ResolveModelConfig(false)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", conf.AnthropicAPIKey)
	assert.Equal(t, 1024, conf.MaxTokens)

	// Defaults survive when the variable is unset.
	assert.Equal(t, "claude-sonnet-4-20250514", conf.AnthropicModel)
}

func TestResolveServerConfigDefaults(t *testing.T) {
	conf, err := ResolveServerConfig(false)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", conf.Host)
	assert.Equal(t, 8000, conf.Port)
	assert.Equal(t, 24, conf.JWTExpiryHours)
	assert.Equal(t, 15, conf.PendingActionTTLMinutes)
}

func TestResolveMemoryConfigDefaults(t *testing.T) {
	conf, err := ResolveMemoryConfig(false)
	require.NoError(t, err)
	assert.Equal(t, "AI_AGENT_MEMORY", conf.FolderName)
	assert.Equal(t, 200, conf.MaxLogEntries)
	assert.Equal(t, 50, conf.ConsolidationBatch)
	assert.Equal(t, 100, conf.MaxConsolidatedBlocks)
}

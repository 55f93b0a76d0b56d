package config

type MemoryConfig struct {
	// FolderName is the root memory folder created in the user's Drive.
	FolderName string `env:"MEMORY_FOLDER_NAME"`

	// SummariesFolderName is the sub-folder holding per-topic summaries.
	SummariesFolderName string `env:"SUMMARIES_FOLDER_NAME"`

	// MaxLogEntries caps the rolling conversation log. When exceeded, the
	// oldest ConsolidationBatch entries are condensed into the archive.
	MaxLogEntries      int `env:"MEMORY_MAX_LOG_ENTRIES"`
	ConsolidationBatch int `env:"MEMORY_CONSOLIDATION_BATCH"`

	// MaxConsolidatedBlocks caps the condensed archive, oldest evicted first.
	MaxConsolidatedBlocks int `env:"MEMORY_MAX_CONSOLIDATED_BLOCKS"`
}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		FolderName:            "AI_AGENT_MEMORY",
		SummariesFolderName:   "summaries",
		MaxLogEntries:         200,
		ConsolidationBatch:    50,
		MaxConsolidatedBlocks: 100,
	}
}

func ResolveMemoryConfig(testing bool) (*MemoryConfig, error) {
	conf := NewMemoryConfig()
	return conf, resolveConfig(conf, testing)
}

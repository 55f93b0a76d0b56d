package config

type ModelConfig struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`

	AnthropicModel string `env:"ANTHROPIC_MODEL"`
	OpenAIModel    string `env:"OPENAI_MODEL"`

	// MaxTokens bounds a single generation. Tool loops reuse it per turn.
	MaxTokens int `env:"MODEL_MAX_TOKENS"`
}

func NewModelConfig() *ModelConfig {
	return &ModelConfig{
		AnthropicModel: "claude-sonnet-4-20250514",
		OpenAIModel:    "gpt-4o",
		MaxTokens:      4096,
	}
}

func ResolveModelConfig(testing bool) (*ModelConfig, error) {
	conf := NewModelConfig()
	return conf, resolveConfig(conf, testing)
}

package config

type LogConfig struct {
	LogLevel   string `env:"LOG_LEVEL"`
	LogHandler string `env:"LOG_HANDLER"`
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		LogLevel:   "info",
		LogHandler: "default",
	}
}

func ResolveLogConfig(testing bool) (*LogConfig, error) {
	conf := NewLogConfig()
	return conf, resolveConfig(conf, testing)
}

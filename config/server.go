package config

type ServerConfig struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS"`

	// PendingActionTTLMinutes bounds how long a staged destructive action
	// waits for confirmation before it is swept.
	PendingActionTTLMinutes int `env:"PENDING_ACTION_TTL_MINUTES"`
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:                    "0.0.0.0",
		Port:                    8000,
		JWTExpiryHours:          24,
		PendingActionTTLMinutes: 15,
	}
}

func ResolveServerConfig(testing bool) (*ServerConfig, error) {
	conf := NewServerConfig()
	return conf, resolveConfig(conf, testing)
}

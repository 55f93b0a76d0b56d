package config

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URI"`

	// EncryptionKey is a base64-encoded 32-byte key used to seal token
	// bundles at rest.
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// TokenDir is where encrypted per-user token bundles are written.
	TokenDir string `env:"TOKEN_DIR"`
}

func NewOAuthConfig() *OAuthConfig {
	return &OAuthConfig{
		GoogleRedirectURL: "http://localhost:8000/auth/callback",
		TokenDir:          ".tokens",
	}
}

func ResolveOAuthConfig(testing bool) (*OAuthConfig, error) {
	conf := NewOAuthConfig()
	return conf, resolveConfig(conf, testing)
}

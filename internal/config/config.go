package config

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
}

func New() Config {
	return mainConfig{}
}

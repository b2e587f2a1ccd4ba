package config

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Port        string
	CORSOrigins string
	BodyLimitMB int
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:        getEnv("PORT", "3001"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 50),
	}
}

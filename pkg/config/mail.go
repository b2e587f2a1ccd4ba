package config

// MailConfig configures the outbound transport gateway.
type MailConfig struct {
	// Provider selects the dialer: "smtp" (per-job credentials) or "ses"
	// (all jobs routed through the process-level AWS SES client).
	Provider string

	// MaxConnections caps the pooled SMTP connections per job handle.
	MaxConnections int

	AWSRegion string
}

func loadMailConfig() MailConfig {
	return MailConfig{
		Provider:       getEnv("MAIL_PROVIDER", "smtp"),
		MaxConnections: getEnvInt("MAIL_MAX_CONNECTIONS", 5),
		AWSRegion:      getEnv("MAIL_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
	}
}

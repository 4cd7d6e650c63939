package mail

import "github.com/viniciussvasques/crm-innexar/pkg/env"

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

func NewConfig() Config {
	return Config{
		Host:     env.GetEnv("SMTP_HOST", "localhost"),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		From:     env.GetEnv("SMTP_FROM", "no-reply@innexar.com"),
		Enabled:  env.GetEnv("SMTP_ENABLED", "false") == "true",
	}
}

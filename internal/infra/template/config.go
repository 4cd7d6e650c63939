package template

import "github.com/viniciussvasques/crm-innexar/pkg/env"

type Config struct {
	TemplatesDir    string
	DefaultTemplate string
}

func NewConfig() Config {
	return Config{
		TemplatesDir:    env.GetEnv("TEMPLATES_DIR", "templates"),
		DefaultTemplate: env.GetEnv("DEFAULT_TEMPLATE", "premium-static"),
	}
}
